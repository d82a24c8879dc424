package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"zenzspa.app/configs/configsapp"
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"
	"zenzspa.app/pkg/metrics"
	"zenzspa.app/pkg/queryparams"
	"zenzspa.app/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// AppointmentServiceError özel servis hataları.
type AppointmentServiceError string

func (e AppointmentServiceError) Error() string { return string(e) }

const (
	ErrApptNotFound       AppointmentServiceError = "randevu bulunamadı"
	ErrApptInvalidInput   AppointmentServiceError = "geçersiz randevu verisi"
	ErrApptClientBlocked  AppointmentServiceError = "müşteri bloklu, yeni randevu alamaz"
	ErrApptClientDebt     AppointmentServiceError = "ödenmemiş borç varken yeni randevu alınamaz"
	ErrApptActiveCap      AppointmentServiceError = "aktif randevu limitine ulaşıldı"
	ErrApptStaffRequired  AppointmentServiceError = "bu hizmet için personel seçimi zorunludur"
	ErrApptStaffInvalid   AppointmentServiceError = "seçilen personel uygun değil"
	ErrApptPastStart      AppointmentServiceError = "geçmiş bir zamana randevu alınamaz"
	// Çakışma hataları: çağıran müsaitliği yeniden sorgulamalıdır.
	ErrApptSlotConflict     AppointmentServiceError = "seçilen slot artık müsait değil"
	ErrApptCapacityFull     AppointmentServiceError = "bu slotta kapasite dolu"
	ErrApptRescheduleWindow AppointmentServiceError = "randevuya 24 saatten az kaldığı için ertelenemez"
	ErrApptRescheduleLimit  AppointmentServiceError = "erteleme hakkı doldu"
	ErrApptForbidden        AppointmentServiceError = "bu işlem için yetkiniz yok"
	ErrApptNotCancellable   AppointmentServiceError = "tamamlama ödemesi alınmış randevu müşteri tarafından iptal edilemez"
	ErrApptTerminal         AppointmentServiceError = "randevu terminal durumda"
	ErrApptBalanceDue       AppointmentServiceError = "tamamlamadan önce kalan bakiye tahsil edilmelidir"
	ErrApptNotStarted       AppointmentServiceError = "randevu saati geçmeden no-show işaretlenemez"
	// Idempotency hataları.
	ErrIdemMismatch   AppointmentServiceError = "idempotency token farklı bir istekle kullanılmış"
	ErrIdemInProgress AppointmentServiceError = "aynı token ile bir istek zaten işleniyor"
)

// ISlotRecycler boşalan slotu bekleme listesine teklif eder. Döngüsel servis
// bağımlılığını kırmak için dar bir arayüzdür (WaitlistService uygular).
type ISlotRecycler interface {
	OfferFreedSlot(ctx context.Context, categoryID uint, staffID *uint, start, end time.Time) error
}

// CreateAppointmentInput randevu oluşturma isteği.
type CreateAppointmentInput struct {
	ClientID       uint
	StaffID        *uint
	ServiceIDs     []uint
	Start          time.Time
	IdempotencyKey string
}

// CreateAppointmentResult oluşturma yanıtı; Replayed=true ise yanıt önceki
// istekten aynen tekrarlanmıştır.
type CreateAppointmentResult struct {
	AppointmentID uint                     `json:"appointment_id"`
	PaymentID     uint                     `json:"payment_id"`
	ExternalRef   string                   `json:"external_ref"`
	AdvanceMinor  int64                    `json:"advance_minor"`
	Status        models.AppointmentStatus `json:"status"`
	Replayed      bool                     `json:"-"`
}

// IAppointmentService randevu yaşam döngüsü işlemleri için arayüz.
type IAppointmentService interface {
	Create(ctx context.Context, input CreateAppointmentInput) (*CreateAppointmentResult, error)
	Reschedule(ctx context.Context, appointmentID, actorID uint, newStart time.Time, override bool) (*models.Appointment, error)
	Cancel(ctx context.Context, appointmentID, actorID uint) (*models.Appointment, error)
	Complete(ctx context.Context, appointmentID, actorID uint) (*models.Appointment, error)
	NoShow(ctx context.Context, appointmentID, actorID uint) (*models.Appointment, error)
	GetByID(ctx context.Context, appointmentID, actorID uint) (*models.Appointment, error)
	List(ctx context.Context, actorID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error)

	// ExpireUnpaid süresi dolan ödenmemiş randevuları iptal eden süpürme.
	ExpireUnpaid(ctx context.Context) error

	SetRecycler(recycler ISlotRecycler)
}

// AppointmentService IAppointmentService arayüzünü uygular.
type AppointmentService struct {
	appointmentRepo repositories.IAppointmentRepository
	paymentRepo     repositories.IPaymentRepository
	userRepo        repositories.IUserRepository
	serviceRepo     repositories.IServiceRepository
	creditRepo      repositories.ICreditRepository
	idemRepo        repositories.IIdempotencyRepository
	auditRepo       repositories.IAuditRepository
	settings        configsapp.ISettingsProvider
	tx              ITxManager
	notifier        INotificationService
	recycler        ISlotRecycler
	now             func() time.Time
}

// NewAppointmentService yeni bir AppointmentService örneği oluşturur.
func NewAppointmentService(settings configsapp.ISettingsProvider, tx ITxManager, notifier INotificationService) IAppointmentService {
	return &AppointmentService{
		appointmentRepo: repositories.NewAppointmentRepository(),
		paymentRepo:     repositories.NewPaymentRepository(),
		userRepo:        repositories.NewUserRepository(),
		serviceRepo:     repositories.NewServiceRepository(),
		creditRepo:      repositories.NewCreditRepository(),
		idemRepo:        repositories.NewIdempotencyRepository(),
		auditRepo:       repositories.NewAuditRepository(),
		settings:        settings,
		tx:              tx,
		notifier:        notifier,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// SetRecycler bekleme listesi servisini bağlar (main'de wiring sırasında).
func (s *AppointmentService) SetRecycler(recycler ISlotRecycler) {
	s.recycler = recycler
}

// Create randevu oluşturur. İş kuralları kilitsiz doğrulanır; slot kontrolü
// tek transaction içinde, personel (veya kategori) satırı kilitliyken
// TEKRAR yapılır, çünkü müsaitlik hesabındaki okuma eşzamanlı yazarlarla
// linearizable değildir.
func (s *AppointmentService) Create(ctx context.Context, input CreateAppointmentInput) (*CreateAppointmentResult, error) {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if input.ClientID == 0 || input.Start.IsZero() {
		return nil, ErrApptInvalidInput
	}
	if input.Start.Before(s.now()) {
		return nil, ErrApptPastStart
	}

	// 1. Kilitsiz ön doğrulama
	client, err := s.userRepo.FindByID(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: müşteri", ErrApptInvalidInput)
	}
	if client.IsBlocked {
		return nil, ErrApptClientBlocked
	}
	if client.OutstandingDebt > 0 {
		return nil, ErrApptClientDebt
	}
	if client.Role == models.RoleClient {
		active, err := s.appointmentRepo.CountActiveByClient(ctx, input.ClientID)
		if err != nil {
			return nil, err
		}
		if active >= int64(snap.ActiveAppointmentCap) {
			return nil, ErrApptActiveCap
		}
	}

	svcList, category, totalDuration, totalPrice, err := resolveServices(ctx, s.serviceRepo, input.ServiceIDs)
	if err != nil {
		return nil, err
	}
	if category.LowSupervision {
		input.StaffID = nil
	} else if input.StaffID == nil {
		return nil, ErrApptStaffRequired
	}

	start := input.Start.UTC()
	end := start.Add(time.Duration(totalDuration) * time.Minute)
	buffer := time.Duration(snap.BufferMinutes) * time.Minute
	advance := totalPrice * snap.AdvancePercent / 100

	// 2. Atomik rezervasyon
	var result *CreateAppointmentResult
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		txCtx = models.ContextWithUserID(txCtx, input.ClientID)

		// a. Idempotency: aynı token'la gelen retry saklanan yanıtı alır.
		if input.IdempotencyKey != "" {
			replayed, err := s.checkIdempotency(txCtx, input)
			if err != nil {
				return err
			}
			if replayed != nil {
				result = replayed
				return nil
			}
		}

		// b. Kilit + kilit altında yeniden kontrol
		if err := s.lockAndRecheckSlot(txCtx, category, input.StaffID, start, end, buffer, 0); err != nil {
			return err
		}

		// c. Randevu + avans ödemesi
		appointment := models.Appointment{
			ClientID:        input.ClientID,
			StaffID:         input.StaffID,
			CategoryID:      category.ID,
			StartTime:       start,
			EndTime:         end,
			Status:          models.AppointmentPendingPayment,
			TotalPriceMinor: totalPrice,
		}
		for _, svc := range svcList {
			appointment.Items = append(appointment.Items, models.AppointmentItem{
				ServiceID:       svc.ID,
				Name:            svc.Name,
				DurationMinutes: svc.DurationMinutes,
				PriceMinor:      svc.PriceMinor,
			})
		}
		if err := s.appointmentRepo.Create(txCtx, &appointment); err != nil {
			configslog.Log.Error("Randevu oluşturulamadı", zap.Error(err))
			return err
		}

		payment := models.Payment{
			AppointmentID: &appointment.ID,
			ClientID:      input.ClientID,
			Type:          models.PaymentTypeAdvance,
			AmountMinor:   advance,
			Currency:      "TRY",
			Status:        models.PaymentPending,
			ExternalRef:   uuid.NewString(),
		}
		if err := s.paymentRepo.Create(txCtx, &payment); err != nil {
			return err
		}

		result = &CreateAppointmentResult{
			AppointmentID: appointment.ID,
			PaymentID:     payment.ID,
			ExternalRef:   payment.ExternalRef,
			AdvanceMinor:  advance,
			Status:        appointment.Status,
		}

		// d. Idempotency yanıtını sonuçlandır
		if input.IdempotencyKey != "" {
			if err := s.finalizeIdempotency(txCtx, input.IdempotencyKey, result); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if !result.Replayed {
		metrics.BookingsCreated.Inc()
		configslog.SLog.Infof("Randevu oluşturuldu: ID %d, müşteri %d, başlangıç %s",
			result.AppointmentID, input.ClientID, start.Format(time.RFC3339))
	}
	return result, nil
}

// checkIdempotency token kaydını kilitleyip üç durumu ayırır: tekrar (yanıtı
// döndür), devam eden istek, token yeniden kullanımı. Kayıt yoksa rezerve eder.
func (s *AppointmentService) checkIdempotency(ctx context.Context, input CreateAppointmentInput) (*CreateAppointmentResult, error) {
	hash := hashCreateRequest(input)

	record, err := s.idemRepo.FindByKeyForUpdate(ctx, input.IdempotencyKey)
	if err == nil {
		if record.RequestHash != hash {
			return nil, ErrIdemMismatch
		}
		if record.ResponseStatus == 0 {
			return nil, ErrIdemInProgress
		}
		var replay CreateAppointmentResult
		if err := json.Unmarshal(record.ResponseBody, &replay); err != nil {
			return nil, err
		}
		replay.Replayed = true
		return &replay, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	// Rezervasyon: unique index eşzamanlı ikinci isteği düşürür.
	if err := s.idemRepo.Create(ctx, &models.IdempotencyKey{
		Key:         input.IdempotencyKey,
		ClientID:    input.ClientID,
		RequestHash: hash,
	}); err != nil {
		return nil, ErrIdemInProgress
	}
	return nil, nil
}

func (s *AppointmentService) finalizeIdempotency(ctx context.Context, key string, result *CreateAppointmentResult) error {
	record, err := s.idemRepo.FindByKeyForUpdate(ctx, key)
	if err != nil {
		return err
	}
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}
	record.ResponseStatus = 201
	record.ResponseBody = datatypes.JSON(body)
	return s.idemRepo.Update(ctx, record)
}

func hashCreateRequest(input CreateAppointmentInput) string {
	payload, _ := json.Marshal(struct {
		ClientID   uint      `json:"client_id"`
		StaffID    *uint     `json:"staff_id"`
		ServiceIDs []uint    `json:"service_ids"`
		Start      time.Time `json:"start"`
	}{input.ClientID, input.StaffID, input.ServiceIDs, input.Start})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// lockAndRecheckSlot personel satırını (veya düşük gözetimde kategori
// satırını) kilitler ve çakışma kontrolünü kilit altında tekrarlar.
// excludeID erteleme akışında randevunun kendisini dışarıda bırakır.
func (s *AppointmentService) lockAndRecheckSlot(ctx context.Context, category *models.ServiceCategory, staffID *uint, start, end time.Time, buffer time.Duration, excludeID uint) error {
	if category.LowSupervision {
		locked, err := s.serviceRepo.FindCategoryByIDForUpdate(ctx, category.ID)
		if err != nil {
			return err
		}
		count, err := s.appointmentRepo.CountOverlappingForCategory(ctx, category.ID, start, end, buffer, excludeID)
		if err != nil {
			return err
		}
		if count >= int64(locked.ConcurrentCapacity) {
			metrics.BookingConflicts.Inc()
			return ErrApptCapacityFull
		}
		return nil
	}

	staff, err := s.userRepo.FindByIDForUpdate(ctx, *staffID)
	if err != nil {
		return ErrApptStaffInvalid
	}
	if staff.Role != models.RoleStaff || !staff.IsActive {
		return ErrApptStaffInvalid
	}
	count, err := s.appointmentRepo.CountOverlappingForStaff(ctx, *staffID, start, end, buffer, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		metrics.BookingConflicts.Inc()
		return ErrApptSlotConflict
	}
	return nil
}

// Reschedule randevuyu yeni slota taşır. Yeni slot için aynı kilit +
// yeniden kontrol dizisi çalışır.
func (s *AppointmentService) Reschedule(ctx context.Context, appointmentID, actorID uint, newStart time.Time, override bool) (*models.Appointment, error) {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, ErrApptForbidden
	}

	var updated *models.Appointment
	var freedStaff *uint
	var freedCategory uint
	var freedStart, freedEnd time.Time

	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		txCtx = models.ContextWithUserID(txCtx, actorID)

		appointment, err := s.appointmentRepo.FindByIDForUpdate(txCtx, appointmentID)
		if err != nil {
			return ErrApptNotFound
		}
		if !actor.IsStaffOrAdmin() && appointment.ClientID != actorID {
			return ErrApptForbidden
		}
		if appointment.IsTerminal() || appointment.Status == models.AppointmentPendingPayment {
			return ErrApptTerminal
		}

		// Zaman penceresi: müşteri yalnızca başlangıca >= N saat kala erteleyebilir.
		if !actor.IsStaffOrAdmin() {
			if s.now().Add(time.Duration(snap.RescheduleMinHours) * time.Hour).After(appointment.StartTime) {
				return ErrApptRescheduleWindow
			}
		}
		if appointment.RescheduleCount >= snap.RescheduleLimit {
			if !override || !actor.IsStaffOrAdmin() {
				return ErrApptRescheduleLimit
			}
			// Limit aşımı personel kararıyla: denetlenebilir istisna.
			detail, _ := json.Marshal(map[string]any{
				"reschedule_count": appointment.RescheduleCount,
				"limit":            snap.RescheduleLimit,
			})
			if err := s.auditRepo.Create(txCtx, &models.AuditLog{
				Event:      models.AuditRescheduleOverride,
				ActorID:    actorID,
				EntityType: "appointment",
				EntityID:   appointment.ID,
				Detail:     datatypes.JSON(detail),
			}); err != nil {
				return err
			}
		}

		category, err := s.serviceRepo.FindCategoryByID(txCtx, appointment.CategoryID)
		if err != nil {
			return err
		}
		start := newStart.UTC()
		end := start.Add(time.Duration(appointment.TotalDurationMinutes()) * time.Minute)
		buffer := time.Duration(snap.BufferMinutes) * time.Minute

		if err := s.lockAndRecheckSlot(txCtx, category, appointment.StaffID, start, end, buffer, appointment.ID); err != nil {
			return err
		}

		freedStaff = appointment.StaffID
		freedCategory = appointment.CategoryID
		freedStart, freedEnd = appointment.StartTime, appointment.EndTime

		if err := appointment.Transition(models.AppointmentRescheduled, models.OutcomeNone); err != nil {
			return err
		}
		appointment.StartTime = start
		appointment.EndTime = end
		appointment.RescheduleCount++
		if err := s.appointmentRepo.Update(txCtx, appointment); err != nil {
			return err
		}
		updated = appointment
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Eski slot boşaldı; bekleme listesine teklif edilir.
	if s.recycler != nil && freedStart.After(s.now()) {
		if err := s.recycler.OfferFreedSlot(ctx, freedCategory, freedStaff, freedStart, freedEnd); err != nil {
			configslog.Log.Error("Boşalan slot bekleme listesine teklif edilemedi",
				zap.Uint("appointmentID", appointmentID), zap.Error(err))
		}
	}

	configslog.SLog.Infof("Randevu ertelendi: ID %d, yeni başlangıç %s", appointmentID, newStart.Format(time.RFC3339))
	return updated, nil
}

// Cancel randevuyu iptal eder. Tamamlama ödemesi uygulanmış bir randevuyu
// yalnızca admin iptal edebilir. İptal her zaman bekleme listesi geri
// dönüşümünü tetikler; zamanlamaya göre avans krediye döner ve geç iptal
// ceza (strike) üretir.
func (s *AppointmentService) Cancel(ctx context.Context, appointmentID, actorID uint) (*models.Appointment, error) {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, ErrApptForbidden
	}

	var cancelled *models.Appointment
	var freedStaff *uint
	var freedCategory uint
	var freedStart, freedEnd time.Time

	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		txCtx = models.ContextWithUserID(txCtx, actorID)

		appointment, err := s.appointmentRepo.FindByIDForUpdate(txCtx, appointmentID)
		if err != nil {
			return ErrApptNotFound
		}
		isOwner := appointment.ClientID == actorID
		if !actor.IsStaffOrAdmin() && !isOwner {
			return ErrApptForbidden
		}
		if appointment.IsTerminal() {
			return ErrApptTerminal
		}

		payments, err := s.paymentRepo.FindByAppointment(txCtx, appointment.ID)
		if err != nil {
			return err
		}
		// Tamamlama (FINAL) ödemesi uygulanmışsa müşteri yolu kapalıdır.
		if actor.Role == models.RoleClient {
			for _, p := range payments {
				if p.Type == models.PaymentTypeFinal &&
					(p.Status == models.PaymentApproved || p.Status == models.PaymentPaidWithCredit) {
					return ErrApptNotCancellable
				}
			}
		}

		outcome := models.OutcomeCancelledClient
		if actor.Role == models.RoleAdmin {
			outcome = models.OutcomeCancelledAdmin
		} else if actor.Role == models.RoleStaff {
			outcome = models.OutcomeCancelledAdmin
		}
		if err := appointment.Transition(models.AppointmentCancelled, outcome); err != nil {
			return err
		}
		if err := s.appointmentRepo.Update(txCtx, appointment); err != nil {
			return err
		}

		// Avans politikası: erken iptalde tam kredi, geç iptalde politika
		// yüzdesi + strike.
		late := s.now().Add(time.Duration(snap.RescheduleMinHours) * time.Hour).After(appointment.StartTime)
		percent := int64(100)
		if late && outcome == models.OutcomeCancelledClient {
			percent = noShowCreditPercent(snap)
			if err := s.applyStrike(txCtx, appointment, models.StrikeReasonLateCancel, snap); err != nil {
				return err
			}
		}
		if err := s.creditApprovedAdvance(txCtx, appointment, payments, percent, models.CreditSourceCancel, snap); err != nil {
			return err
		}

		cancelled = appointment
		freedStaff = appointment.StaffID
		freedCategory = appointment.CategoryID
		freedStart, freedEnd = appointment.StartTime, appointment.EndTime
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Commit sonrası: boşalan slot bekleme listesine, bildirim müşteriye.
	if s.recycler != nil && freedStart.After(s.now()) {
		if err := s.recycler.OfferFreedSlot(ctx, freedCategory, freedStaff, freedStart, freedEnd); err != nil {
			configslog.Log.Error("Boşalan slot bekleme listesine teklif edilemedi",
				zap.Uint("appointmentID", appointmentID), zap.Error(err))
		}
	}
	s.notifier.Dispatch(ctx, EventAppointmentCancelled, cancelled.ClientID, map[string]any{
		"appointment_id": cancelled.ID,
		"outcome":        cancelled.Outcome,
	})

	configslog.SLog.Infof("Randevu iptal edildi: ID %d, sonuç %s", appointmentID, cancelled.Outcome)
	return cancelled, nil
}

// Complete randevuyu tamamlar; yalnızca personel/admin. Kalan bakiye
// tahsil edilmeden tamamlanamaz.
func (s *AppointmentService) Complete(ctx context.Context, appointmentID, actorID uint) (*models.Appointment, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil || !actor.IsStaffOrAdmin() {
		return nil, ErrApptForbidden
	}

	var completed *models.Appointment
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		txCtx = models.ContextWithUserID(txCtx, actorID)

		appointment, err := s.appointmentRepo.FindByIDForUpdate(txCtx, appointmentID)
		if err != nil {
			return ErrApptNotFound
		}
		payments, err := s.paymentRepo.FindByAppointment(txCtx, appointment.ID)
		if err != nil {
			return err
		}
		if paidTotal(payments) < appointment.TotalPriceMinor {
			return ErrApptBalanceDue
		}
		if err := appointment.Transition(models.AppointmentCompleted, models.OutcomeCompleted); err != nil {
			return err
		}
		if err := s.appointmentRepo.Update(txCtx, appointment); err != nil {
			return err
		}
		completed = appointment
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	configslog.SLog.Infof("Randevu tamamlandı: ID %d", appointmentID)
	return completed, nil
}

// NoShow müşteri gelmediğinde çağrılır; yalnızca personel/admin. Politika
// kredisi ve strike aynı transaction içinde, müşteri satırı kilitliyken işlenir.
func (s *AppointmentService) NoShow(ctx context.Context, appointmentID, actorID uint) (*models.Appointment, error) {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil || !actor.IsStaffOrAdmin() {
		return nil, ErrApptForbidden
	}

	var marked *models.Appointment
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		txCtx = models.ContextWithUserID(txCtx, actorID)

		appointment, err := s.appointmentRepo.FindByIDForUpdate(txCtx, appointmentID)
		if err != nil {
			return ErrApptNotFound
		}
		if appointment.IsTerminal() {
			return ErrApptTerminal
		}
		if appointment.StartTime.After(s.now()) {
			return ErrApptNotStarted
		}
		if err := appointment.Transition(models.AppointmentCancelled, models.OutcomeNoShow); err != nil {
			return err
		}
		if err := s.appointmentRepo.Update(txCtx, appointment); err != nil {
			return err
		}

		payments, err := s.paymentRepo.FindByAppointment(txCtx, appointment.ID)
		if err != nil {
			return err
		}
		if err := s.creditApprovedAdvance(txCtx, appointment, payments, noShowCreditPercent(snap), models.CreditSourceNoShow, snap); err != nil {
			return err
		}
		if err := s.applyStrike(txCtx, appointment, models.StrikeReasonNoShow, snap); err != nil {
			return err
		}
		marked = appointment
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	configslog.SLog.Infof("No-show işlendi: randevu %d", appointmentID)
	return marked, nil
}

// GetByID randevuyu yetki kontrolüyle getirir.
func (s *AppointmentService) GetByID(ctx context.Context, appointmentID, actorID uint) (*models.Appointment, error) {
	appointment, err := s.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		return nil, ErrApptNotFound
	}
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, ErrApptForbidden
	}
	if !actor.IsStaffOrAdmin() && appointment.ClientID != actorID {
		return nil, ErrApptForbidden
	}
	return appointment, nil
}

// List randevuları sayfalı listeler. Müşteri yalnızca kendi kayıtlarını,
// personel ve admin tüm kayıtları görür.
func (s *AppointmentService) List(ctx context.Context, actorID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, ErrApptForbidden
	}
	params.Validate()

	var clientFilter *uint
	if !actor.IsStaffOrAdmin() {
		clientFilter = &actorID
	}
	appointments, total, err := s.appointmentRepo.ListPaginated(ctx, clientFilter, params)
	if err != nil {
		return nil, err
	}
	return &queryparams.PaginatedResult{
		Data: appointments,
		Meta: queryparams.PaginationMeta{
			CurrentPage: params.Page,
			PerPage:     params.PerPage,
			TotalItems:  total,
			TotalPages:  queryparams.CalculateTotalPages(total, params.PerPage),
		},
	}, nil
}

// ExpireUnpaid TTL'i dolan ödenmemiş randevuları sistem adına iptal eder.
// Her randevu kendi transaction'ında, kilitli geçiş yolundan işlenir;
// süpürme eşzamanlı kullanıcı işlemleriyle güvenle yarışır.
func (s *AppointmentService) ExpireUnpaid(ctx context.Context) error {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	cutoff := s.now().Add(-time.Duration(snap.UnpaidTTLMinutes) * time.Minute)

	stale, err := s.appointmentRepo.FindUnpaidCreatedBefore(ctx, cutoff, 100)
	if err != nil {
		return err
	}

	for _, candidate := range stale {
		candidateID := candidate.ID
		txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
			appointment, err := s.appointmentRepo.FindByIDForUpdate(txCtx, candidateID)
			if err != nil {
				return nil // başka bir işlem silmiş olabilir
			}
			// Kilit altında yeniden kontrol: bu arada ödenmiş olabilir.
			if appointment.Status != models.AppointmentPendingPayment {
				return nil
			}
			if err := appointment.Transition(models.AppointmentCancelled, models.OutcomeCancelledSystem); err != nil {
				return err
			}
			if err := s.appointmentRepo.Update(txCtx, appointment); err != nil {
				return err
			}
			metrics.SweepTransitions.WithLabelValues("unpaid_expiry").Inc()
			return nil
		})
		if txErr != nil {
			configslog.Log.Error("Ödenmemiş randevu süpürmesi başarısız",
				zap.Uint("appointmentID", candidateID), zap.Error(txErr))
			continue
		}

		if s.recycler != nil && candidate.StartTime.After(s.now()) {
			_ = s.recycler.OfferFreedSlot(ctx, candidate.CategoryID, candidate.StaffID, candidate.StartTime, candidate.EndTime)
		}
	}
	return nil
}

// --- Yardımcılar ---

// noShowCreditPercent politika -> iade yüzdesi.
func noShowCreditPercent(snap *configsapp.Snapshot) int64 {
	switch snap.NoShowPolicy {
	case "FULL":
		return 100
	case "PARTIAL":
		return snap.NoShowPartialPercent
	default:
		return 0
	}
}

// creditApprovedAdvance onaylanmış avans ödemelerini verilen yüzdeyle
// ClientCredit'e çevirir.
func (s *AppointmentService) creditApprovedAdvance(ctx context.Context, appointment *models.Appointment, payments []models.Payment, percent int64, source models.CreditSource, snap *configsapp.Snapshot) error {
	if percent <= 0 {
		return nil
	}
	for i := range payments {
		p := &payments[i]
		if p.Type != models.PaymentTypeAdvance {
			continue
		}
		if p.Status != models.PaymentApproved && p.Status != models.PaymentPaidWithCredit {
			continue
		}
		amount := p.AmountMinor * percent / 100
		if amount <= 0 {
			continue
		}
		credit := models.ClientCredit{
			ClientID:        appointment.ClientID,
			Source:          source,
			OriginPaymentID: &p.ID,
			OriginalMinor:   amount,
			RemainingMinor:  amount,
			Status:          models.CreditAvailable,
			ExpiresAt:       s.now().AddDate(0, 0, snap.CreditExpiryDays),
		}
		if err := s.creditRepo.Create(ctx, &credit); err != nil {
			return err
		}
	}
	return nil
}

// applyStrike müşteri satırını kilitleyip strike ekler ve eşiği AYNI kilit
// altında yeniden sayar; iki eşzamanlı iptal eşiği iki kez tetikleyemez.
func (s *AppointmentService) applyStrike(ctx context.Context, appointment *models.Appointment, reason string, snap *configsapp.Snapshot) error {
	client, err := s.userRepo.FindByIDForUpdate(ctx, appointment.ClientID)
	if err != nil {
		return err
	}
	if err := s.userRepo.CreateStrike(ctx, &models.Strike{
		ClientID:      appointment.ClientID,
		AppointmentID: appointment.ID,
		Reason:        reason,
	}); err != nil {
		// Aynı randevu için ikinci strike unique index'e takılır; sayım değişmez.
		configslog.Log.Warn("Strike kaydı eklenemedi", zap.Uint("appointmentID", appointment.ID), zap.Error(err))
		return nil
	}

	windowStart := s.now().AddDate(0, 0, -snap.StrikeWindowDays)
	count, err := s.userRepo.CountStrikesSince(ctx, appointment.ClientID, windowStart)
	if err != nil {
		return err
	}
	if count >= int64(snap.StrikeLimit) && !client.IsBlocked {
		now := s.now()
		client.IsBlocked = true
		client.BlockedAt = &now
		if err := s.userRepo.Update(ctx, client); err != nil {
			return err
		}
		detail, _ := json.Marshal(map[string]any{"strike_count": count, "window_days": snap.StrikeWindowDays})
		if err := s.auditRepo.Create(ctx, &models.AuditLog{
			Event:      models.AuditClientBlocked,
			EntityType: "user",
			EntityID:   client.ID,
			Detail:     datatypes.JSON(detail),
		}); err != nil {
			return err
		}
		configslog.SLog.Warnf("Müşteri bloklandı: ID %d (%d strike)", client.ID, count)
	}
	return nil
}

// paidTotal onaylanmış ödemelerin toplamı.
func paidTotal(payments []models.Payment) int64 {
	var total int64
	for _, p := range payments {
		if p.Status == models.PaymentApproved || p.Status == models.PaymentPaidWithCredit {
			total += p.AmountMinor
		}
	}
	return total
}

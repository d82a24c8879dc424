package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"zenzspa.app/configs/configsapp"
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"
	"zenzspa.app/pkg/metrics"
	"zenzspa.app/repositories"

	"go.uber.org/zap"
)

// WaitlistServiceError özel servis hataları.
type WaitlistServiceError string

func (e WaitlistServiceError) Error() string { return string(e) }

const (
	ErrWaitlistNotFound     WaitlistServiceError = "bekleme listesi kaydı bulunamadı"
	ErrWaitlistInvalidInput WaitlistServiceError = "geçersiz bekleme listesi verisi"
	ErrWaitlistForbidden    WaitlistServiceError = "bu kayıt üzerinde işlem yetkiniz yok"
	ErrWaitlistNoOffer      WaitlistServiceError = "bu kayıt için aktif bir teklif yok"
	ErrWaitlistOfferExpired WaitlistServiceError = "teklif süresi doldu"
	// Slot teklif ile kabul arasında başkası tarafından alınmış; kayıt
	// EXPIRED olur ve slot sıradakine teklif edilir.
	ErrWaitlistSlotTaken WaitlistServiceError = "teklif edilen slot artık müsait değil"
)

// JoinWaitlistInput bekleme listesine katılma isteği.
type JoinWaitlistInput struct {
	ClientID      uint
	ServiceIDs    []uint
	StaffID       *uint
	PreferredFrom time.Time
	PreferredTo   time.Time
}

// IWaitlistService bekleme listesi işlemleri için arayüz. OfferFreedSlot
// ayrıca ISlotRecycler olarak AppointmentService'e bağlanır.
type IWaitlistService interface {
	Join(ctx context.Context, input JoinWaitlistInput) (*models.WaitlistEntry, error)
	AcceptOffer(ctx context.Context, entryID, clientID uint) (*CreateAppointmentResult, error)
	DeclineOffer(ctx context.Context, entryID, clientID uint) error
	ListByClient(ctx context.Context, clientID uint) ([]models.WaitlistEntry, error)

	OfferFreedSlot(ctx context.Context, categoryID uint, staffID *uint, start, end time.Time) error
	// ExpireOffers süresi geçen teklifleri kapatır ve slotu sıradakine geçirir.
	ExpireOffers(ctx context.Context) error
}

// WaitlistService IWaitlistService arayüzünü uygular.
type WaitlistService struct {
	waitlistRepo repositories.IWaitlistRepository
	serviceRepo  repositories.IServiceRepository
	userRepo     repositories.IUserRepository
	appointments IAppointmentService
	settings     configsapp.ISettingsProvider
	tx           ITxManager
	notifier     INotificationService
	now          func() time.Time
}

// NewWaitlistService yeni bir WaitlistService örneği oluşturur.
func NewWaitlistService(settings configsapp.ISettingsProvider, tx ITxManager, appointments IAppointmentService, notifier INotificationService) IWaitlistService {
	return &WaitlistService{
		waitlistRepo: repositories.NewWaitlistRepository(),
		serviceRepo:  repositories.NewServiceRepository(),
		userRepo:     repositories.NewUserRepository(),
		appointments: appointments,
		settings:     settings,
		tx:           tx,
		notifier:     notifier,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Join müşteriyi bekleme listesine ekler. Hizmetler tek kategoriye ait
// olmalıdır; teklif eşleme kategori üzerinden yapılır.
func (s *WaitlistService) Join(ctx context.Context, input JoinWaitlistInput) (*models.WaitlistEntry, error) {
	if input.ClientID == 0 || len(input.ServiceIDs) == 0 {
		return nil, ErrWaitlistInvalidInput
	}
	if !input.PreferredTo.After(input.PreferredFrom) {
		return nil, ErrWaitlistInvalidInput
	}
	client, err := s.userRepo.FindByID(ctx, input.ClientID)
	if err != nil {
		return nil, ErrWaitlistInvalidInput
	}
	if client.IsBlocked {
		return nil, ErrApptClientBlocked
	}

	_, category, _, _, err := resolveServices(ctx, s.serviceRepo, input.ServiceIDs)
	if err != nil {
		return nil, err
	}
	if category.LowSupervision {
		input.StaffID = nil
	}

	entry := models.WaitlistEntry{
		ClientID:      input.ClientID,
		CategoryID:    category.ID,
		StaffID:       input.StaffID,
		ServiceIDs:    joinServiceIDs(input.ServiceIDs),
		PreferredFrom: input.PreferredFrom.UTC(),
		PreferredTo:   input.PreferredTo.UTC(),
		Status:        models.WaitlistQueued,
	}
	if err := s.waitlistRepo.Create(ctx, &entry); err != nil {
		return nil, err
	}

	configslog.SLog.Infof("Bekleme listesine eklendi: kayıt %d, müşteri %d", entry.ID, entry.ClientID)
	return &entry, nil
}

// OfferFreedSlot boşalan slotu sıradaki uygun QUEUED kayda teklif eder.
// Kuyrukta uygun kayıt yoksa sessizce döner; slot herkese açık kalır.
func (s *WaitlistService) OfferFreedSlot(ctx context.Context, categoryID uint, staffID *uint, start, end time.Time) error {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return err
	}

	var offered *models.WaitlistEntry
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		entry, err := s.waitlistRepo.NextQueuedForUpdate(txCtx, categoryID, staffID, start)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := entry.Transition(models.WaitlistOffered); err != nil {
			return err
		}
		deadline := s.now().Add(time.Duration(snap.WaitlistOfferMinutes) * time.Minute)
		startCopy, endCopy := start, end
		entry.OfferedStart = &startCopy
		entry.OfferedEnd = &endCopy
		entry.OfferedStaff = staffID
		entry.OfferDeadline = &deadline
		if err := s.waitlistRepo.Update(txCtx, entry); err != nil {
			return err
		}
		offered = entry
		return nil
	})
	if txErr != nil {
		return txErr
	}
	if offered == nil {
		return nil
	}

	s.notifier.Dispatch(ctx, EventWaitlistOffer, offered.ClientID, map[string]any{
		"entry_id":       offered.ID,
		"offered_start":  offered.OfferedStart,
		"offer_deadline": offered.OfferDeadline,
	})
	configslog.SLog.Infof("Slot teklif edildi: kayıt %d, müşteri %d, başlangıç %s",
		offered.ID, offered.ClientID, start.Format(time.RFC3339))
	return nil
}

// AcceptOffer teklifi kabul eder ve randevuyu standart kilitli oluşturma
// yolundan açar. Kayıt kilidi deadline kontrolünden CONFIRMED geçişine kadar
// tek transaction boyunca tutulur; süpürme araya girip teklifi düşüremez.
// Slot bu arada başka yoldan alınmışsa kayıt EXPIRED olarak commit edilir
// ve slot sıradakine teklif edilir.
func (s *WaitlistService) AcceptOffer(ctx context.Context, entryID, clientID uint) (*CreateAppointmentResult, error) {
	var (
		result     *CreateAppointmentResult
		slotTaken  bool
		categoryID uint
		staffID    *uint
		start, end time.Time
	)

	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		found, err := s.waitlistRepo.FindByIDForUpdate(txCtx, entryID)
		if err != nil {
			return ErrWaitlistNotFound
		}
		if found.ClientID != clientID {
			return ErrWaitlistForbidden
		}
		if found.Status != models.WaitlistOffered || found.OfferedStart == nil || found.OfferDeadline == nil {
			return ErrWaitlistNoOffer
		}
		if s.now().After(*found.OfferDeadline) {
			return ErrWaitlistOfferExpired
		}
		serviceIDs, err := splitServiceIDs(found.ServiceIDs)
		if err != nil {
			return err
		}
		categoryID = found.CategoryID
		staffID = found.OfferedStaff
		start, end = *found.OfferedStart, *found.OfferedEnd

		// Randevu aynı transaction'a katılarak açılır; çakışma ve kapasite
		// kilidi oradadır ve çakışma anında hiçbir şey yazılmamıştır.
		created, err := s.appointments.Create(txCtx, CreateAppointmentInput{
			ClientID:   clientID,
			StaffID:    staffID,
			ServiceIDs: serviceIDs,
			Start:      start,
		})
		if err != nil {
			if errors.Is(err, ErrApptSlotConflict) || errors.Is(err, ErrApptCapacityFull) {
				// Kaydın düşmesi commit edilmelidir; hata döndürülmez.
				if terr := found.Transition(models.WaitlistExpired); terr != nil {
					return terr
				}
				if uerr := s.waitlistRepo.Update(txCtx, found); uerr != nil {
					return uerr
				}
				slotTaken = true
				return nil
			}
			return err
		}

		if err := found.Transition(models.WaitlistConfirmed); err != nil {
			return err
		}
		found.AppointmentID = &created.AppointmentID
		if err := s.waitlistRepo.Update(txCtx, found); err != nil {
			return err
		}
		result = created
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if slotTaken {
		if start.After(s.now()) {
			if err := s.OfferFreedSlot(ctx, categoryID, staffID, start, end); err != nil {
				configslog.Log.Error("Slot yeniden teklif edilemedi", zap.Uint("entryID", entryID), zap.Error(err))
			}
		}
		return nil, ErrWaitlistSlotTaken
	}

	configslog.SLog.Infof("Teklif kabul edildi: kayıt %d, randevu %d", entryID, result.AppointmentID)
	return result, nil
}

// DeclineOffer teklifi reddeder; slot sıradakine teklif edilir.
func (s *WaitlistService) DeclineOffer(ctx context.Context, entryID, clientID uint) error {
	var (
		categoryID uint
		staffID    *uint
		start, end time.Time
		hasSlot    bool
	)
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		entry, err := s.waitlistRepo.FindByIDForUpdate(txCtx, entryID)
		if err != nil {
			return ErrWaitlistNotFound
		}
		if entry.ClientID != clientID {
			return ErrWaitlistForbidden
		}
		switch entry.Status {
		case models.WaitlistQueued:
			return entryCancel(txCtx, s.waitlistRepo, entry)
		case models.WaitlistOffered:
			if err := entry.Transition(models.WaitlistExpired); err != nil {
				return err
			}
			if err := s.waitlistRepo.Update(txCtx, entry); err != nil {
				return err
			}
			if entry.OfferedStart != nil && entry.OfferedEnd != nil {
				categoryID = entry.CategoryID
				staffID = entry.OfferedStaff
				start, end = *entry.OfferedStart, *entry.OfferedEnd
				hasSlot = true
			}
			return nil
		default:
			return ErrWaitlistNoOffer
		}
	})
	if txErr != nil {
		return txErr
	}

	if hasSlot && start.After(s.now()) {
		if err := s.OfferFreedSlot(ctx, categoryID, staffID, start, end); err != nil {
			configslog.Log.Error("Reddedilen slot yeniden teklif edilemedi", zap.Error(err))
		}
	}
	return nil
}

func entryCancel(ctx context.Context, repo repositories.IWaitlistRepository, entry *models.WaitlistEntry) error {
	if err := entry.Transition(models.WaitlistCancelled); err != nil {
		return err
	}
	return repo.Update(ctx, entry)
}

// ListByClient müşterinin bekleme listesi kayıtlarını döndürür.
func (s *WaitlistService) ListByClient(ctx context.Context, clientID uint) ([]models.WaitlistEntry, error) {
	return s.waitlistRepo.ListByClient(ctx, clientID)
}

// ExpireOffers son kabul zamanı geçen teklifleri kapatır ve slotu sıradaki
// kayda geçirir. Zamanlayıcıdan periyodik çağrılır.
func (s *WaitlistService) ExpireOffers(ctx context.Context) error {
	expired, err := s.waitlistRepo.FindExpiredOffers(ctx, s.now(), 50)
	if err != nil {
		return err
	}
	for _, candidate := range expired {
		if candidate.OfferedStart == nil || candidate.OfferedEnd == nil {
			continue
		}
		s.expireAndReoffer(ctx, candidate.ID, candidate.CategoryID, candidate.OfferedStaff,
			*candidate.OfferedStart, *candidate.OfferedEnd)
		metrics.SweepTransitions.WithLabelValues("waitlist_offer_expiry").Inc()
	}
	return nil
}

// expireAndReoffer kaydı EXPIRED yapar ve slotu sıradakine teklif eder.
func (s *WaitlistService) expireAndReoffer(ctx context.Context, entryID, categoryID uint, staffID *uint, start, end time.Time) {
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		entry, err := s.waitlistRepo.FindByIDForUpdate(txCtx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != models.WaitlistOffered {
			return nil // başka bir işlem kapatmış
		}
		if err := entry.Transition(models.WaitlistExpired); err != nil {
			return err
		}
		return s.waitlistRepo.Update(txCtx, entry)
	})
	if txErr != nil {
		configslog.Log.Error("Teklif süresi kapatılamadı", zap.Uint("entryID", entryID), zap.Error(txErr))
		return
	}
	if start.After(s.now()) {
		if err := s.OfferFreedSlot(ctx, categoryID, staffID, start, end); err != nil {
			configslog.Log.Error("Slot yeniden teklif edilemedi", zap.Uint("entryID", entryID), zap.Error(err))
		}
	}
}

func joinServiceIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

func splitServiceIDs(raw string) ([]uint, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: hizmet listesi bozuk", ErrWaitlistInvalidInput)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

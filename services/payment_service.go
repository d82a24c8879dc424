package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"zenzspa.app/configs/configsapp"
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"
	"zenzspa.app/pkg/gateway"
	"zenzspa.app/pkg/metrics"
	"zenzspa.app/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// PaymentServiceError özel servis hataları.
type PaymentServiceError string

func (e PaymentServiceError) Error() string { return string(e) }

const (
	ErrPaymentNotFound     PaymentServiceError = "ödeme bulunamadı"
	ErrPaymentNotPending   PaymentServiceError = "ödeme beklemede değil"
	ErrPaymentForbidden    PaymentServiceError = "bu ödeme üzerinde işlem yetkiniz yok"
	ErrWebhookBadSignature PaymentServiceError = "webhook imzası doğrulanamadı"
	ErrWebhookBadPayload   PaymentServiceError = "webhook gövdesi çözümlenemedi"
	ErrWebhookUnknownRef   PaymentServiceError = "bilinmeyen ödeme referansı"
	ErrVoucherNotFound     PaymentServiceError = "kupon bulunamadı"
	ErrVoucherNotUsable    PaymentServiceError = "kupon kullanılabilir değil"
	ErrVoucherWrongService PaymentServiceError = "kupon bu randevudaki hizmetler için geçerli değil"
	ErrVoucherWrongClient  PaymentServiceError = "kupon başka bir müşteriye tahsisli"
	ErrNoBalanceDue        PaymentServiceError = "tahsil edilecek bakiye yok"
	ErrTipOnOpenPayment    PaymentServiceError = "açık bakiye ödemesi varken bahşiş eklenemez; önce mevcut ödemeyi tamamlayın"
	ErrCommissionNotFound  PaymentServiceError = "komisyon kaydı bulunamadı"
)

// WebhookPayload ağ geçidinin gönderdiği bildirim gövdesi.
type WebhookPayload struct {
	Reference   string `json:"reference"`
	Status      string `json:"status"` // approved | declined
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// CheckoutResult ödeme oturumu bilgisi; istemci RedirectURL'e yönlendirilir.
type CheckoutResult struct {
	PaymentID   uint   `json:"payment_id"`
	ExternalRef string `json:"external_ref"`
	AmountMinor int64  `json:"amount_minor"`
	RedirectURL string `json:"redirect_url"`
}

// IPaymentService ödeme mutabakatı ve kredi/kupon işlemleri için arayüz.
type IPaymentService interface {
	// HandleWebhook imzalı ham gövdeyi işler. Dönen hata yalnızca geçici
	// durumlar içindir (çağıran 5xx döner, ağ geçidi tekrar dener);
	// kalıcı reddetmeler hata üretmeden loglanıp kabul edilir.
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error

	StartCheckout(ctx context.Context, paymentID, clientID uint) (*CheckoutResult, error)
	ApplyCredit(ctx context.Context, paymentID, clientID uint) (*models.Payment, error)
	ApplyVoucher(ctx context.Context, paymentID, clientID uint, code string) (*models.Payment, error)
	CollectBalance(ctx context.Context, appointmentID, actorID uint, tipMinor int64) (*CheckoutResult, error)
	MarkCommissionPaid(ctx context.Context, paymentID uint, payoutRef string, nsf bool) (*models.CommissionLedger, error)
}

// PaymentService IPaymentService arayüzünü uygular.
type PaymentService struct {
	paymentRepo     repositories.IPaymentRepository
	appointmentRepo repositories.IAppointmentRepository
	creditRepo      repositories.ICreditRepository
	voucherRepo     repositories.IVoucherRepository
	commissionRepo  repositories.ICommissionRepository
	userRepo        repositories.IUserRepository
	auditRepo       repositories.IAuditRepository
	settings        configsapp.ISettingsProvider
	tx              ITxManager
	gateway         *gateway.Client
	webhookSecret   string
	notifier        INotificationService
	now             func() time.Time
}

// NewPaymentService yeni bir PaymentService örneği oluşturur.
func NewPaymentService(settings configsapp.ISettingsProvider, tx ITxManager, gw *gateway.Client, webhookSecret string, notifier INotificationService) IPaymentService {
	return &PaymentService{
		paymentRepo:     repositories.NewPaymentRepository(),
		appointmentRepo: repositories.NewAppointmentRepository(),
		creditRepo:      repositories.NewCreditRepository(),
		voucherRepo:     repositories.NewVoucherRepository(),
		commissionRepo:  repositories.NewCommissionRepository(),
		userRepo:        repositories.NewUserRepository(),
		auditRepo:       repositories.NewAuditRepository(),
		settings:        settings,
		tx:              tx,
		gateway:         gw,
		webhookSecret:   webhookSecret,
		notifier:        notifier,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// HandleWebhook ağ geçidi bildirimini işler. Akışın tamamı tek transaction
// içinde, Payment satırı ExternalRef üzerinden kilitliyken yürür; replay'ler
// terminal durum kontrolüne takılır ve no-op olur.
func (s *PaymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !gateway.VerifySignature(rawBody, signature, s.webhookSecret) {
		metrics.WebhooksProcessed.WithLabelValues("rejected").Inc()
		return ErrWebhookBadSignature
	}

	var payload WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil || payload.Reference == "" {
		metrics.WebhooksProcessed.WithLabelValues("rejected").Inc()
		return ErrWebhookBadPayload
	}

	var notify func()
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		payment, err := s.paymentRepo.FindByExternalRefForUpdate(txCtx, payload.Reference)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				metrics.WebhooksProcessed.WithLabelValues("rejected").Inc()
				return ErrWebhookUnknownRef
			}
			return err
		}

		if payment.IsTerminal() {
			// Replay: durum değişmez, bildirim kabul edilir.
			metrics.WebhooksProcessed.WithLabelValues("duplicate").Inc()
			configslog.SLog.Infof("Webhook replay yok sayıldı: ref %s, durum %s", payload.Reference, payment.Status)
			return nil
		}

		payment.RawPayload = datatypes.JSON(rawBody)

		// Tutar uyuşmazlığı sessizce düzeltilmez: ödeme ERROR'a çekilir ve
		// denetim kaydı düşülür; manuel inceleme gerekir.
		if payload.Status == "approved" && payload.AmountMinor != payment.RemainingMinor() {
			return s.flagAmountMismatch(txCtx, payment, &payload)
		}

		switch payload.Status {
		case "approved":
			n, err := s.settleApproved(txCtx, payment)
			if err != nil {
				return err
			}
			notify = n
			metrics.WebhooksProcessed.WithLabelValues("approved").Inc()
		case "declined":
			if err := payment.Transition(models.PaymentDeclined); err != nil {
				return err
			}
			if err := s.restoreAppliedFunding(txCtx, payment); err != nil {
				return err
			}
			if err := s.paymentRepo.Update(txCtx, payment); err != nil {
				return err
			}
			metrics.WebhooksProcessed.WithLabelValues("declined").Inc()
			clientID, paymentID := payment.ClientID, payment.ID
			notify = func() {
				s.notifier.Dispatch(ctx, EventPaymentDeclined, clientID, map[string]any{"payment_id": paymentID})
			}
		default:
			metrics.WebhooksProcessed.WithLabelValues("rejected").Inc()
			return fmt.Errorf("%w: durum %q", ErrWebhookBadPayload, payload.Status)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}
	if notify != nil {
		notify()
	}
	return nil
}

func (s *PaymentService) flagAmountMismatch(ctx context.Context, payment *models.Payment, payload *WebhookPayload) error {
	expected := payment.RemainingMinor()
	if err := payment.Transition(models.PaymentError); err != nil {
		return err
	}
	if err := s.restoreAppliedFunding(ctx, payment); err != nil {
		return err
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return err
	}
	detail, _ := json.Marshal(map[string]any{
		"expected_minor": expected,
		"received_minor": payload.AmountMinor,
		"external_ref":   payment.ExternalRef,
	})
	if err := s.auditRepo.Create(ctx, &models.AuditLog{
		Event:      models.AuditAmountMismatch,
		EntityType: "payment",
		EntityID:   payment.ID,
		Detail:     datatypes.JSON(detail),
	}); err != nil {
		return err
	}
	metrics.WebhooksProcessed.WithLabelValues("mismatch").Inc()
	configslog.SLog.Warnf("Webhook tutar uyuşmazlığı: ref %s, beklenen %d, gelen %d",
		payment.ExternalRef, expected, payload.AmountMinor)
	return nil
}

// restoreAppliedFunding terminal olarak başarısız olan ödemeye uygulanmış
// kredi ve kuponları iade eder. Kredi bakiyeleri satır kilidi altında geri
// artırılır ve her iade negatif tutarlı bir hareket kaydıyla izlenir; kupon
// kullanım sayacı geri alınır ve redemption kaydı silinir. Çağıran Payment
// satırını kilitli tutuyor olmalıdır.
func (s *PaymentService) restoreAppliedFunding(ctx context.Context, payment *models.Payment) error {
	if payment.CreditAppliedMinor == 0 {
		return nil
	}

	applied, err := s.creditRepo.FindTransactionsByPayment(ctx, payment.ID)
	if err != nil {
		return err
	}
	for _, crtx := range applied {
		if crtx.AppliedMinor <= 0 {
			continue
		}
		credit, err := s.creditRepo.FindByIDForUpdate(ctx, crtx.CreditID)
		if err != nil {
			return err
		}
		credit.RemainingMinor += crtx.AppliedMinor
		if credit.Status == models.CreditExhausted {
			credit.Status = models.CreditAvailable
		}
		if err := s.creditRepo.Update(ctx, credit); err != nil {
			return err
		}
		if err := s.creditRepo.CreateTransaction(ctx, &models.CreditTransaction{
			CreditID:     crtx.CreditID,
			PaymentID:    payment.ID,
			AppliedMinor: -crtx.AppliedMinor,
		}); err != nil {
			return err
		}
		payment.CreditAppliedMinor -= crtx.AppliedMinor
	}

	redemptions, err := s.voucherRepo.FindRedemptionsByPayment(ctx, payment.ID)
	if err != nil {
		return err
	}
	for _, red := range redemptions {
		voucher, err := s.voucherRepo.FindByIDForUpdate(ctx, red.VoucherID)
		if err != nil {
			return err
		}
		if voucher.UsedCount > 0 {
			voucher.UsedCount--
		}
		if err := s.voucherRepo.Update(ctx, voucher); err != nil {
			return err
		}
		if err := s.voucherRepo.DeleteRedemption(ctx, red.ID); err != nil {
			return err
		}
		payment.CreditAppliedMinor -= red.AmountMinor
	}

	configslog.SLog.Infof("Başarısız ödemenin kredi/kupon payı iade edildi: ödeme %d", payment.ID)
	return nil
}

// settleApproved onaylanan ödemenin türüne göre yan etkilerini işler ve
// commit sonrasında çalıştırılacak bildirim closure'ını döndürür. Çağıran
// Payment satırını kilitli tutuyor olmalıdır.
func (s *PaymentService) settleApproved(ctx context.Context, payment *models.Payment) (func(), error) {
	if err := payment.Transition(models.PaymentApproved); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	var notify func()
	switch payment.Type {
	case models.PaymentTypeAdvance:
		n, err := s.settleAdvance(ctx, payment)
		if err != nil {
			return nil, err
		}
		notify = n
	case models.PaymentTypeFinal:
		// Bakiye kapandı; gömülü bahşiş payı randevuya aktarılır.
		if payment.TipMinor > 0 {
			if err := s.addTip(ctx, payment, payment.TipMinor); err != nil {
				return nil, err
			}
		}
	case models.PaymentTypeTip:
		if err := s.addTip(ctx, payment, payment.AmountMinor); err != nil {
			return nil, err
		}
		return nil, nil // bahşişten komisyon kesilmez
	}

	if err := s.accrueCommission(ctx, payment); err != nil {
		return nil, err
	}
	return notify, nil
}

// settleAdvance avans onayında randevuyu CONFIRMED'e çeker ve bildirimini
// commit sonrası çalıştırılmak üzere döndürür. Randevu bu arada iptal
// edilmişse (ödenmemiş süpürmesiyle yarış) tutar kaybolmaz: müşteriye kredi
// olarak yazılır ve denetim kaydı düşülür.
func (s *PaymentService) settleAdvance(ctx context.Context, payment *models.Payment) (func(), error) {
	if payment.AppointmentID == nil {
		return nil, nil
	}
	appointment, err := s.appointmentRepo.FindByIDForUpdate(ctx, *payment.AppointmentID)
	if err != nil {
		return nil, err
	}

	if appointment.Status == models.AppointmentPendingPayment {
		if err := appointment.Transition(models.AppointmentConfirmed, models.OutcomeNone); err != nil {
			return nil, err
		}
		if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
			return nil, err
		}
		clientID, appointmentID := appointment.ClientID, appointment.ID
		return func() {
			s.notifier.Dispatch(ctx, EventAppointmentConfirmed, clientID, map[string]any{
				"appointment_id": appointmentID,
			})
		}, nil
	}

	if appointment.Status == models.AppointmentCancelled {
		snap, err := s.settings.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		credit := models.ClientCredit{
			ClientID:        payment.ClientID,
			Source:          models.CreditSourceLatePayment,
			OriginPaymentID: &payment.ID,
			OriginalMinor:   payment.AmountMinor,
			RemainingMinor:  payment.AmountMinor,
			Status:          models.CreditAvailable,
			ExpiresAt:       s.now().AddDate(0, 0, snap.CreditExpiryDays),
		}
		if err := s.creditRepo.Create(ctx, &credit); err != nil {
			return nil, err
		}
		detail, _ := json.Marshal(map[string]any{
			"payment_id":   payment.ID,
			"amount_minor": payment.AmountMinor,
			"credit_id":    credit.ID,
		})
		if err := s.auditRepo.Create(ctx, &models.AuditLog{
			Event:      models.AuditLatePaymentCredit,
			EntityType: "appointment",
			EntityID:   appointment.ID,
			Detail:     datatypes.JSON(detail),
		}); err != nil {
			return nil, err
		}
		configslog.SLog.Warnf("İptal edilmiş randevuya geç ödeme: randevu %d, tutar %d krediye çevrildi",
			appointment.ID, payment.AmountMinor)
		return nil, nil
	}

	// CONFIRMED/COMPLETED bir randevuya ikinci avans onayı beklenmez;
	// replay koruması bunu normalde yakalar, kalanlar denetime yazılır.
	detail, _ := json.Marshal(map[string]any{
		"payment_id":         payment.ID,
		"appointment_status": appointment.Status,
	})
	return nil, s.auditRepo.Create(ctx, &models.AuditLog{
		Event:      models.AuditUnexpectedWebhook,
		EntityType: "appointment",
		EntityID:   appointment.ID,
		Detail:     datatypes.JSON(detail),
	})
}

func (s *PaymentService) addTip(ctx context.Context, payment *models.Payment, amount int64) error {
	if payment.AppointmentID == nil || amount <= 0 {
		return nil
	}
	appointment, err := s.appointmentRepo.FindByIDForUpdate(ctx, *payment.AppointmentID)
	if err != nil {
		return err
	}
	appointment.TipMinor += amount
	return s.appointmentRepo.Update(ctx, appointment)
}

// accrueCommission ödeme başına tek komisyon satırı yazar. PaymentID
// üzerindeki unique index çift tahakkuku veritabanı seviyesinde de engeller.
func (s *PaymentService) accrueCommission(ctx context.Context, payment *models.Payment) error {
	if _, err := s.commissionRepo.FindByPaymentID(ctx, payment.ID); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	// Bahşiş payı komisyon matrahına girmez.
	owed := (payment.AmountMinor - payment.TipMinor) * snap.CommissionPercent / 100
	if owed <= 0 {
		return nil
	}
	return s.commissionRepo.Create(ctx, &models.CommissionLedger{
		PaymentID: payment.ID,
		OwedMinor: owed,
		Status:    models.CommissionPending,
	})
}

// StartCheckout bekleyen ödeme için ağ geçidinde oturum açar. Oturum açma
// transaction DIŞINDA yapılır; ağ geçidi hatası veritabanı durumunu bozmaz,
// ödeme PENDING kalır ve tekrar denenebilir.
func (s *PaymentService) StartCheckout(ctx context.Context, paymentID, clientID uint) (*CheckoutResult, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	if payment.ClientID != clientID {
		return nil, ErrPaymentForbidden
	}
	if payment.Status != models.PaymentPending {
		return nil, ErrPaymentNotPending
	}

	resp, err := s.gateway.CreateCheckout(ctx, gateway.CheckoutRequest{
		Reference:   payment.ExternalRef,
		AmountMinor: payment.RemainingMinor(),
		Currency:    payment.Currency,
		Description: fmt.Sprintf("zenzspa odeme #%d", payment.ID),
	})
	if err != nil {
		configslog.Log.Error("Ödeme oturumu açılamadı",
			zap.Uint("paymentID", payment.ID), zap.Error(err))
		return nil, err
	}

	return &CheckoutResult{
		PaymentID:   payment.ID,
		ExternalRef: payment.ExternalRef,
		AmountMinor: payment.RemainingMinor(),
		RedirectURL: resp.RedirectURL,
	}, nil
}

// ApplyCredit müşterinin kullanılabilir kredilerini bekleyen ödemeye uygular.
// Krediler son kullanma tarihine göre sırayla, satır kilidi altında düşülür.
// Kalan tutar sıfıra inerse ödeme PAID_WITH_CREDIT olur ve tür bazlı yan
// etkiler (randevu onayı, komisyon) ağ geçidi onayıyla aynı yoldan işler.
func (s *PaymentService) ApplyCredit(ctx context.Context, paymentID, clientID uint) (*models.Payment, error) {
	var result *models.Payment
	var notify func()
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		payment, err := s.paymentRepo.FindByIDForUpdate(txCtx, paymentID)
		if err != nil {
			return ErrPaymentNotFound
		}
		if payment.ClientID != clientID {
			return ErrPaymentForbidden
		}
		if payment.Status != models.PaymentPending {
			return ErrPaymentNotPending
		}

		credits, err := s.creditRepo.FindUsableByClientForUpdate(txCtx, clientID, s.now())
		if err != nil {
			return err
		}

		remaining := payment.RemainingMinor()
		for i := range credits {
			if remaining <= 0 {
				break
			}
			credit := &credits[i]
			applied := credit.RemainingMinor
			if applied > remaining {
				applied = remaining
			}
			credit.RemainingMinor -= applied
			if credit.RemainingMinor == 0 {
				credit.Status = models.CreditExhausted
			}
			if err := s.creditRepo.Update(txCtx, credit); err != nil {
				return err
			}
			if err := s.creditRepo.CreateTransaction(txCtx, &models.CreditTransaction{
				CreditID:     credit.ID,
				PaymentID:    payment.ID,
				AppliedMinor: applied,
			}); err != nil {
				return err
			}
			payment.CreditAppliedMinor += applied
			remaining -= applied
		}

		if remaining == 0 && payment.CreditAppliedMinor > 0 {
			if err := payment.Transition(models.PaymentPaidWithCredit); err != nil {
				return err
			}
			if err := s.paymentRepo.Update(txCtx, payment); err != nil {
				return err
			}
			n, err := s.settlePaidWithCredit(txCtx, payment)
			if err != nil {
				return err
			}
			notify = n
		} else if err := s.paymentRepo.Update(txCtx, payment); err != nil {
			return err
		}

		result = payment
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	if notify != nil {
		notify()
	}

	configslog.SLog.Infof("Kredi uygulandı: ödeme %d, uygulanan %d, durum %s",
		result.ID, result.CreditAppliedMinor, result.Status)
	return result, nil
}

// settlePaidWithCredit krediyle tamamen kapanan ödemenin yan etkileri.
// Komisyon yalnızca ağ geçidinden geçen tutar üzerinden tahakkuk eder;
// tamamı krediyle kapanan ödemede tahsilat olmadığı için komisyon yazılmaz.
func (s *PaymentService) settlePaidWithCredit(ctx context.Context, payment *models.Payment) (func(), error) {
	switch payment.Type {
	case models.PaymentTypeAdvance:
		return s.settleAdvance(ctx, payment)
	case models.PaymentTypeTip:
		return nil, s.addTip(ctx, payment, payment.AmountMinor)
	}
	return nil, nil
}

// ApplyVoucher kuponu bekleyen ödemeye uygular. Kupon satırı kilitlenir;
// kullanım sayacı ve redemption kaydı aynı transaction'da yazılır.
func (s *PaymentService) ApplyVoucher(ctx context.Context, paymentID, clientID uint, code string) (*models.Payment, error) {
	var result *models.Payment
	var notify func()
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		payment, err := s.paymentRepo.FindByIDForUpdate(txCtx, paymentID)
		if err != nil {
			return ErrPaymentNotFound
		}
		if payment.ClientID != clientID {
			return ErrPaymentForbidden
		}
		if payment.Status != models.PaymentPending || payment.AppointmentID == nil {
			return ErrPaymentNotPending
		}

		voucher, err := s.voucherRepo.FindByCodeForUpdate(txCtx, code)
		if err != nil {
			return ErrVoucherNotFound
		}
		if !voucher.Redeemable(s.now()) {
			return ErrVoucherNotUsable
		}
		if voucher.ClientID != nil && *voucher.ClientID != clientID {
			return ErrVoucherWrongClient
		}

		appointment, err := s.appointmentRepo.FindByID(txCtx, *payment.AppointmentID)
		if err != nil {
			return err
		}
		matched := false
		for _, item := range appointment.Items {
			if item.ServiceID == voucher.ServiceID {
				matched = true
				break
			}
		}
		if !matched {
			return ErrVoucherWrongService
		}

		applied := voucher.AmountMinor
		if max := payment.RemainingMinor(); applied > max {
			applied = max
		}
		if applied <= 0 {
			return ErrVoucherNotUsable
		}

		voucher.UsedCount++
		if err := s.voucherRepo.Update(txCtx, voucher); err != nil {
			return err
		}
		if err := s.voucherRepo.CreateRedemption(txCtx, &models.VoucherRedemption{
			VoucherID:     voucher.ID,
			AppointmentID: appointment.ID,
			PaymentID:     payment.ID,
			AmountMinor:   applied,
		}); err != nil {
			// Aynı randevuya ikinci kullanım unique index'e takılır.
			return ErrVoucherNotUsable
		}

		payment.CreditAppliedMinor += applied
		if payment.RemainingMinor() == 0 {
			if err := payment.Transition(models.PaymentPaidWithCredit); err != nil {
				return err
			}
			if err := s.paymentRepo.Update(txCtx, payment); err != nil {
				return err
			}
			n, err := s.settlePaidWithCredit(txCtx, payment)
			if err != nil {
				return err
			}
			notify = n
		} else if err := s.paymentRepo.Update(txCtx, payment); err != nil {
			return err
		}

		result = payment
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	if notify != nil {
		notify()
	}

	configslog.SLog.Infof("Kupon uygulandı: ödeme %d, kod %s", result.ID, code)
	return result, nil
}

// CollectBalance randevunun kalan bakiyesi (+ isteğe bağlı bahşiş) için FINAL
// tipinde yeni bir Payment açar ve oturum bilgisini döndürür.
func (s *PaymentService) CollectBalance(ctx context.Context, appointmentID, actorID uint, tipMinor int64) (*CheckoutResult, error) {
	var payment *models.Payment
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		appointment, err := s.appointmentRepo.FindByID(txCtx, appointmentID)
		if err != nil {
			return ErrApptNotFound
		}
		actor, err := s.userRepo.FindByID(txCtx, actorID)
		if err != nil {
			return ErrApptForbidden
		}
		if !actor.IsStaffOrAdmin() && appointment.ClientID != actorID {
			return ErrApptForbidden
		}
		if appointment.IsTerminal() {
			return ErrApptTerminal
		}

		payments, err := s.paymentRepo.FindByAppointment(txCtx, appointmentID)
		if err != nil {
			return err
		}
		due := appointment.TotalPriceMinor - paidTotal(payments)
		// Açık bir FINAL ödemesi varsa yenisi açılmaz, o yeniden kullanılır.
		// Bahşiş açık ödemeye sessizce eklenmez; tekrar deneme tutarı
		// şişirebileceği için mevcut ödeme önce tamamlanmalıdır.
		for i := range payments {
			if payments[i].Type == models.PaymentTypeFinal && payments[i].Status == models.PaymentPending {
				if tipMinor > 0 {
					return ErrTipOnOpenPayment
				}
				payment = &payments[i]
				return nil
			}
		}
		if due <= 0 && tipMinor <= 0 {
			return ErrNoBalanceDue
		}
		if due < 0 {
			due = 0
		}

		ptype := models.PaymentTypeFinal
		if due == 0 {
			ptype = models.PaymentTypeTip
		}
		payment = &models.Payment{
			AppointmentID: &appointment.ID,
			ClientID:      appointment.ClientID,
			Type:          ptype,
			AmountMinor:   due + tipMinor,
			TipMinor:      tipMinor,
			Currency:      "TRY",
			Status:        models.PaymentPending,
			ExternalRef:   uuid.NewString(),
		}
		return s.paymentRepo.Create(txCtx, payment)
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.StartCheckout(ctx, payment.ID, payment.ClientID)
}

// MarkCommissionPaid komisyon satırını ödendi (veya bakiye yetersizliğinde
// FAILED_NSF) olarak işaretler; yalnızca admin akışından çağrılır.
func (s *PaymentService) MarkCommissionPaid(ctx context.Context, paymentID uint, payoutRef string, nsf bool) (*models.CommissionLedger, error) {
	var ledger *models.CommissionLedger
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		found, err := s.commissionRepo.FindByPaymentID(txCtx, paymentID)
		if err != nil {
			return ErrCommissionNotFound
		}
		target := models.CommissionPaid
		if nsf {
			target = models.CommissionFailedNSF
		}
		if err := found.Transition(target); err != nil {
			return err
		}
		if target == models.CommissionPaid {
			found.PaidMinor = found.OwedMinor
			found.PayoutRef = payoutRef
		}
		if err := s.commissionRepo.Update(txCtx, found); err != nil {
			return err
		}
		ledger = found
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return ledger, nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zenzspa.app/models"
	"zenzspa.app/pkg/gateway"
	"zenzspa.app/repositories"
)

const testWebhookSecret = "whsec-test"

type payFixture struct {
	svc         *PaymentService
	users       *fakeUserRepo
	appts       *fakeAppointmentRepo
	payments    *fakePaymentRepo
	credits     *fakeCreditRepo
	vouchers    *fakeVoucherRepo
	commissions *fakeCommissionRepo
	audits      *fakeAuditRepo
	now         time.Time
}

func newPayFixture(t *testing.T) *payFixture {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Minute)

	f := &payFixture{
		users: newFakeUserRepo(
			&models.User{BaseModel: models.BaseModel{ID: testClientID}, Role: models.RoleClient, IsActive: true},
			&models.User{BaseModel: models.BaseModel{ID: testStaffID}, Role: models.RoleStaff, IsActive: true},
			&models.User{BaseModel: models.BaseModel{ID: testAdminID}, Role: models.RoleAdmin, IsActive: true},
		),
		appts:       newFakeAppointmentRepo(),
		payments:    newFakePaymentRepo(),
		credits:     newFakeCreditRepo(),
		vouchers:    newFakeVoucherRepo(),
		commissions: newFakeCommissionRepo(),
		audits:      &fakeAuditRepo{},
		now:         now,
	}
	f.svc = &PaymentService{
		paymentRepo:     f.payments,
		appointmentRepo: f.appts,
		creditRepo:      f.credits,
		voucherRepo:     f.vouchers,
		commissionRepo:  f.commissions,
		userRepo:        f.users,
		auditRepo:       f.audits,
		settings:        testSettings(),
		tx:              fakeTxManager{},
		webhookSecret:   testWebhookSecret,
		notifier:        NewNotificationService(nil),
		now:             func() time.Time { return now },
	}
	return f
}

// seedAdvance ödenmemiş bir randevu ve ona bağlı PENDING avans ödemesi kurar.
func (f *payFixture) seedAdvance(t *testing.T) (*models.Appointment, *models.Payment) {
	t.Helper()
	ctx := context.Background()
	staffID := testStaffID
	appointment := &models.Appointment{
		ClientID:        testClientID,
		StaffID:         &staffID,
		CategoryID:      1,
		StartTime:       f.now.Add(48 * time.Hour),
		EndTime:         f.now.Add(49 * time.Hour),
		Status:          models.AppointmentPendingPayment,
		TotalPriceMinor: 100000,
		Items: []models.AppointmentItem{
			{ServiceID: 1, Name: "Klasik Masaj", DurationMinutes: 60, PriceMinor: 100000},
		},
	}
	if err := f.appts.Create(ctx, appointment); err != nil {
		t.Fatal(err)
	}
	payment := &models.Payment{
		AppointmentID: &appointment.ID,
		ClientID:      testClientID,
		Type:          models.PaymentTypeAdvance,
		AmountMinor:   30000,
		Currency:      "TRY",
		Status:        models.PaymentPending,
		ExternalRef:   fmt.Sprintf("adv-ref-%d", appointment.ID),
	}
	if err := f.payments.Create(ctx, payment); err != nil {
		t.Fatal(err)
	}
	return appointment, payment
}

func signedBody(t *testing.T, payload WebhookPayload) ([]byte, string) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return body, gateway.Sign(body, testWebhookSecret)
}

func TestHandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("geçersiz imza reddedilir", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		body, _ := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "approved", AmountMinor: 30000})

		err := f.svc.HandleWebhook(ctx, body, "kotu-imza")
		if !errors.Is(err, ErrWebhookBadSignature) {
			t.Errorf("hata = %v, beklenen ErrWebhookBadSignature", err)
		}
		unchanged, _ := f.payments.FindByID(ctx, payment.ID)
		if unchanged.Status != models.PaymentPending {
			t.Error("geçersiz imza ödeme durumunu değiştirmemeli")
		}
	})

	t.Run("bilinmeyen referans kalıcı hatadır", func(t *testing.T) {
		f := newPayFixture(t)
		body, sig := signedBody(t, WebhookPayload{Reference: "yok-boyle-ref", Status: "approved", AmountMinor: 30000})

		err := f.svc.HandleWebhook(ctx, body, sig)
		if !errors.Is(err, ErrWebhookUnknownRef) {
			t.Errorf("hata = %v, beklenen ErrWebhookUnknownRef", err)
		}
	})

	t.Run("avans onayı randevuyu CONFIRMED yapar ve komisyon tahakkuk eder", func(t *testing.T) {
		f := newPayFixture(t)
		appointment, payment := f.seedAdvance(t)
		body, sig := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "approved", AmountMinor: 30000})

		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("webhook işlenemedi: %v", err)
		}
		settled, _ := f.payments.FindByID(ctx, payment.ID)
		if settled.Status != models.PaymentApproved {
			t.Errorf("ödeme durumu = %s, beklenen APPROVED", settled.Status)
		}
		if len(settled.RawPayload) == 0 {
			t.Error("ham payload saklanmalı")
		}
		confirmed, _ := f.appts.FindByID(ctx, appointment.ID)
		if confirmed.Status != models.AppointmentConfirmed {
			t.Errorf("randevu durumu = %s, beklenen CONFIRMED", confirmed.Status)
		}
		ledger, err := f.commissions.FindByPaymentID(ctx, payment.ID)
		if err != nil {
			t.Fatal("komisyon kaydı bekleniyordu")
		}
		// 30000 * %10
		if ledger.OwedMinor != 3000 || ledger.Status != models.CommissionPending {
			t.Errorf("komisyon = %d/%s, beklenen 3000/PENDING", ledger.OwedMinor, ledger.Status)
		}
	})

	t.Run("replay terminal ödemede no-op olur", func(t *testing.T) {
		f := newPayFixture(t)
		appointment, payment := f.seedAdvance(t)
		body, sig := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "approved", AmountMinor: 30000})

		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatal(err)
		}
		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("replay hata üretmemeli: %v", err)
		}
		if _, err := f.commissions.FindByPaymentID(ctx, payment.ID); err != nil {
			t.Fatal(err)
		}
		if len(f.commissions.ledgers) != 1 {
			t.Errorf("komisyon kaydı = %d, beklenen 1", len(f.commissions.ledgers))
		}
		confirmed, _ := f.appts.FindByID(ctx, appointment.ID)
		if confirmed.Status != models.AppointmentConfirmed {
			t.Errorf("randevu durumu = %s, beklenen CONFIRMED", confirmed.Status)
		}
	})

	t.Run("tutar uyuşmazlığı ödemeyi ERROR'a çeker", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		body, sig := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "approved", AmountMinor: 29999})

		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("uyuşmazlık kabul edilip denetime yazılmalı: %v", err)
		}
		flagged, _ := f.payments.FindByID(ctx, payment.ID)
		if flagged.Status != models.PaymentError {
			t.Errorf("ödeme durumu = %s, beklenen ERROR", flagged.Status)
		}
		if !f.audits.hasEvent(models.AuditAmountMismatch) {
			t.Error("uyuşmazlık denetim kaydı yazılmadı")
		}
	})

	t.Run("red bildirimi ödemeyi DECLINED yapar", func(t *testing.T) {
		f := newPayFixture(t)
		appointment, payment := f.seedAdvance(t)
		body, sig := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "declined"})

		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("webhook işlenemedi: %v", err)
		}
		declined, _ := f.payments.FindByID(ctx, payment.ID)
		if declined.Status != models.PaymentDeclined {
			t.Errorf("ödeme durumu = %s, beklenen DECLINED", declined.Status)
		}
		// Randevu PENDING_PAYMENT kalır; süpürme zamanı gelince iptal eder.
		kept, _ := f.appts.FindByID(ctx, appointment.ID)
		if kept.Status != models.AppointmentPendingPayment {
			t.Errorf("randevu durumu = %s, beklenen PENDING_PAYMENT", kept.Status)
		}
	})

	t.Run("iptal edilmiş randevuya geç onay krediye döner", func(t *testing.T) {
		f := newPayFixture(t)
		appointment, payment := f.seedAdvance(t)
		appointment.Status = models.AppointmentCancelled
		appointment.Outcome = models.OutcomeCancelledSystem
		_ = f.appts.Update(ctx, appointment)

		body, sig := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "approved", AmountMinor: 30000})
		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("webhook işlenemedi: %v", err)
		}
		credits, _ := f.credits.ListByClient(ctx, testClientID)
		if len(credits) != 1 {
			t.Fatalf("kredi sayısı = %d, beklenen 1", len(credits))
		}
		if credits[0].Source != models.CreditSourceLatePayment || credits[0].RemainingMinor != 30000 {
			t.Errorf("kredi = %s/%d, beklenen LATE_PAYMENT/30000", credits[0].Source, credits[0].RemainingMinor)
		}
		if !f.audits.hasEvent(models.AuditLatePaymentCredit) {
			t.Error("geç ödeme denetim kaydı yazılmadı")
		}
	})

	t.Run("bahşiş onayından komisyon kesilmez", func(t *testing.T) {
		f := newPayFixture(t)
		appointment, _ := f.seedAdvance(t)
		tip := &models.Payment{
			AppointmentID: &appointment.ID,
			ClientID:      testClientID,
			Type:          models.PaymentTypeTip,
			AmountMinor:   5000,
			Currency:      "TRY",
			Status:        models.PaymentPending,
			ExternalRef:   "tip-ref-1",
		}
		_ = f.payments.Create(ctx, tip)

		body, sig := signedBody(t, WebhookPayload{Reference: tip.ExternalRef, Status: "approved", AmountMinor: 5000})
		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("webhook işlenemedi: %v", err)
		}
		if _, err := f.commissions.FindByPaymentID(ctx, tip.ID); !errors.Is(err, repositories.ErrNotFound) {
			t.Error("bahşişten komisyon tahakkuk etmemeli")
		}
		tipped, _ := f.appts.FindByID(ctx, appointment.ID)
		if tipped.TipMinor != 5000 {
			t.Errorf("bahşiş = %d, beklenen 5000", tipped.TipMinor)
		}
	})

	t.Run("reddedilen ödemedeki kısmi kredi iade edilir", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		credit := &models.ClientCredit{
			ClientID:       testClientID,
			Source:         models.CreditSourceCancel,
			OriginalMinor:  10000,
			RemainingMinor: 10000,
			Status:         models.CreditAvailable,
			ExpiresAt:      f.now.Add(30 * 24 * time.Hour),
		}
		_ = f.credits.Create(ctx, credit)
		applied, err := f.svc.ApplyCredit(ctx, payment.ID, testClientID)
		if err != nil {
			t.Fatal(err)
		}
		if applied.CreditAppliedMinor != 10000 || applied.Status != models.PaymentPending {
			t.Fatalf("ön koşul bozuk: %d/%s", applied.CreditAppliedMinor, applied.Status)
		}

		body, sig := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "declined"})
		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("webhook işlenemedi: %v", err)
		}
		declined, _ := f.payments.FindByID(ctx, payment.ID)
		if declined.Status != models.PaymentDeclined || declined.CreditAppliedMinor != 0 {
			t.Errorf("ödeme = %s/%d, beklenen DECLINED/0", declined.Status, declined.CreditAppliedMinor)
		}
		restored, _ := f.credits.FindByID(ctx, credit.ID)
		if restored.RemainingMinor != 10000 || restored.Status != models.CreditAvailable {
			t.Errorf("kredi = %d/%s, beklenen 10000/AVAILABLE", restored.RemainingMinor, restored.Status)
		}
		// Düşüm ve iade ayrı hareketler olarak izlenir.
		if len(f.credits.transactions) != 2 || f.credits.transactions[1].AppliedMinor != -10000 {
			t.Errorf("kredi hareketleri hatalı: %+v", f.credits.transactions)
		}
	})

	t.Run("tutar uyuşmazlığında kredi payı iade edilir", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		credit := &models.ClientCredit{
			ClientID:       testClientID,
			Source:         models.CreditSourceCancel,
			OriginalMinor:  10000,
			RemainingMinor: 10000,
			Status:         models.CreditAvailable,
			ExpiresAt:      f.now.Add(30 * 24 * time.Hour),
		}
		_ = f.credits.Create(ctx, credit)
		if _, err := f.svc.ApplyCredit(ctx, payment.ID, testClientID); err != nil {
			t.Fatal(err)
		}

		// Kalan 20000 iken farklı tutar bildirilir.
		body, sig := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "approved", AmountMinor: 19999})
		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("uyuşmazlık kabul edilip denetime yazılmalı: %v", err)
		}
		flagged, _ := f.payments.FindByID(ctx, payment.ID)
		if flagged.Status != models.PaymentError || flagged.CreditAppliedMinor != 0 {
			t.Errorf("ödeme = %s/%d, beklenen ERROR/0", flagged.Status, flagged.CreditAppliedMinor)
		}
		restored, _ := f.credits.FindByID(ctx, credit.ID)
		if restored.RemainingMinor != 10000 || restored.Status != models.CreditAvailable {
			t.Errorf("kredi = %d/%s, beklenen 10000/AVAILABLE", restored.RemainingMinor, restored.Status)
		}
	})

	t.Run("reddedilen ödemedeki kupon payı iade edilir", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		voucher := &models.Voucher{
			BaseModel:   models.BaseModel{ID: 1},
			Code:        "IADE10",
			ServiceID:   1,
			AmountMinor: 10000,
			MaxUses:     1,
			ExpiresAt:   f.now.Add(30 * 24 * time.Hour),
			IsActive:    true,
		}
		_ = f.vouchers.Update(ctx, voucher)
		if _, err := f.svc.ApplyVoucher(ctx, payment.ID, testClientID, "IADE10"); err != nil {
			t.Fatal(err)
		}

		body, sig := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "declined"})
		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("webhook işlenemedi: %v", err)
		}
		declined, _ := f.payments.FindByID(ctx, payment.ID)
		if declined.CreditAppliedMinor != 0 {
			t.Errorf("uygulanan = %d, beklenen 0", declined.CreditAppliedMinor)
		}
		unused, _ := f.vouchers.FindByCode(ctx, "IADE10")
		if unused.UsedCount != 0 {
			t.Errorf("kullanım sayısı = %d, beklenen 0", unused.UsedCount)
		}
		if len(f.vouchers.redemptions) != 0 {
			t.Errorf("redemption kaydı silinmeli: %+v", f.vouchers.redemptions)
		}
	})

	t.Run("onay bildirimi commit sonrası bir kez gönderilir", func(t *testing.T) {
		f := newPayFixture(t)
		notifier := &fakeNotifier{}
		f.svc.notifier = notifier
		_, payment := f.seedAdvance(t)

		body, sig := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "approved", AmountMinor: 30000})
		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatal(err)
		}
		if got := notifier.count(EventAppointmentConfirmed); got != 1 {
			t.Errorf("onay bildirimi sayısı = %d, beklenen 1", got)
		}
	})

	t.Run("tahakkuk başarısız olursa onay bildirimi gönderilmez", func(t *testing.T) {
		f := newPayFixture(t)
		notifier := &fakeNotifier{}
		f.svc.notifier = notifier
		f.svc.commissionRepo = failingCommissionRepo{f.commissions}
		_, payment := f.seedAdvance(t)

		body, sig := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "approved", AmountMinor: 30000})
		if err := f.svc.HandleWebhook(ctx, body, sig); err == nil {
			t.Fatal("tahakkuk hatası yukarı taşınmalı")
		}
		if got := notifier.count(EventAppointmentConfirmed); got != 0 {
			t.Errorf("başarısız işlemde %d bildirim gönderildi", got)
		}
	})
}

// failingCommissionRepo tahakkuk adımında hata üreterek işlemin yarıda
// kesilmesini taklit eder.
type failingCommissionRepo struct{ *fakeCommissionRepo }

func (r failingCommissionRepo) Create(ctx context.Context, ledger *models.CommissionLedger) error {
	return errors.New("komisyon kaydı yazılamadı")
}

func TestApplyCredit(t *testing.T) {
	ctx := context.Background()

	grantCredit := func(f *payFixture, amount int64, expiresIn time.Duration) *models.ClientCredit {
		credit := &models.ClientCredit{
			ClientID:       testClientID,
			Source:         models.CreditSourceCancel,
			OriginalMinor:  amount,
			RemainingMinor: amount,
			Status:         models.CreditAvailable,
			ExpiresAt:      f.now.Add(expiresIn),
		}
		_ = f.credits.Create(ctx, credit)
		return credit
	}

	t.Run("krediler son kullanma sırasıyla düşülür", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		late := grantCredit(f, 25000, 60*24*time.Hour)
		early := grantCredit(f, 10000, 10*24*time.Hour)

		result, err := f.svc.ApplyCredit(ctx, payment.ID, testClientID)
		if err != nil {
			t.Fatalf("kredi uygulanamadı: %v", err)
		}
		if result.Status != models.PaymentPaidWithCredit {
			t.Errorf("ödeme durumu = %s, beklenen PAID_WITH_CREDIT", result.Status)
		}
		if result.CreditAppliedMinor != 30000 {
			t.Errorf("uygulanan = %d, beklenen 30000", result.CreditAppliedMinor)
		}
		// Önce erken biten kredi tükenir, geç bitenden 20000 düşülür.
		earlyAfter, _ := f.credits.FindByID(ctx, early.ID)
		if earlyAfter.RemainingMinor != 0 || earlyAfter.Status != models.CreditExhausted {
			t.Errorf("erken kredi = %d/%s, beklenen 0/EXHAUSTED", earlyAfter.RemainingMinor, earlyAfter.Status)
		}
		lateAfter, _ := f.credits.FindByID(ctx, late.ID)
		if lateAfter.RemainingMinor != 5000 {
			t.Errorf("geç kredi = %d, beklenen 5000", lateAfter.RemainingMinor)
		}
		if len(f.credits.transactions) != 2 {
			t.Errorf("kredi hareketi = %d, beklenen 2", len(f.credits.transactions))
		}
	})

	t.Run("tam kapanan avans randevuyu onaylar ama komisyon yazmaz", func(t *testing.T) {
		f := newPayFixture(t)
		appointment, payment := f.seedAdvance(t)
		grantCredit(f, 30000, 30*24*time.Hour)

		if _, err := f.svc.ApplyCredit(ctx, payment.ID, testClientID); err != nil {
			t.Fatal(err)
		}
		confirmed, _ := f.appts.FindByID(ctx, appointment.ID)
		if confirmed.Status != models.AppointmentConfirmed {
			t.Errorf("randevu durumu = %s, beklenen CONFIRMED", confirmed.Status)
		}
		if _, err := f.commissions.FindByPaymentID(ctx, payment.ID); !errors.Is(err, repositories.ErrNotFound) {
			t.Error("krediyle kapanan ödemeden komisyon tahakkuk etmemeli")
		}
	})

	t.Run("kısmi kredi ödemeyi PENDING bırakır", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		grantCredit(f, 12000, 30*24*time.Hour)

		result, err := f.svc.ApplyCredit(ctx, payment.ID, testClientID)
		if err != nil {
			t.Fatal(err)
		}
		if result.Status != models.PaymentPending {
			t.Errorf("ödeme durumu = %s, beklenen PENDING", result.Status)
		}
		if result.RemainingMinor() != 18000 {
			t.Errorf("kalan = %d, beklenen 18000", result.RemainingMinor())
		}
	})

	t.Run("süresi geçmiş kredi uygulanmaz", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		grantCredit(f, 30000, -time.Hour)

		result, err := f.svc.ApplyCredit(ctx, payment.ID, testClientID)
		if err != nil {
			t.Fatal(err)
		}
		if result.CreditAppliedMinor != 0 {
			t.Errorf("uygulanan = %d, beklenen 0", result.CreditAppliedMinor)
		}
	})

	t.Run("başkasının ödemesine kredi uygulanamaz", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		_, err := f.svc.ApplyCredit(ctx, payment.ID, testStaffID)
		if !errors.Is(err, ErrPaymentForbidden) {
			t.Errorf("hata = %v, beklenen ErrPaymentForbidden", err)
		}
	})
}

func TestApplyVoucher(t *testing.T) {
	ctx := context.Background()

	newVoucher := func(f *payFixture, code string, serviceID uint, amount int64, clientID *uint) *models.Voucher {
		v := &models.Voucher{
			BaseModel:   models.BaseModel{ID: uint(len(f.vouchers.vouchers) + 1)},
			Code:        code,
			ServiceID:   serviceID,
			ClientID:    clientID,
			AmountMinor: amount,
			MaxUses:     1,
			ExpiresAt:   f.now.Add(30 * 24 * time.Hour),
			IsActive:    true,
		}
		_ = f.vouchers.Update(ctx, v)
		return v
	}

	t.Run("kupon kalan tutarla sınırlanarak uygulanır", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		newVoucher(f, "SPA50", 1, 50000, nil)

		result, err := f.svc.ApplyVoucher(ctx, payment.ID, testClientID, "SPA50")
		if err != nil {
			t.Fatalf("kupon uygulanamadı: %v", err)
		}
		// 50000'lik kupon 30000'lik ödemede kalana kırpılır.
		if result.CreditAppliedMinor != 30000 {
			t.Errorf("uygulanan = %d, beklenen 30000", result.CreditAppliedMinor)
		}
		if result.Status != models.PaymentPaidWithCredit {
			t.Errorf("ödeme durumu = %s, beklenen PAID_WITH_CREDIT", result.Status)
		}
		used, _ := f.vouchers.FindByCode(ctx, "SPA50")
		if used.UsedCount != 1 {
			t.Errorf("kullanım sayısı = %d, beklenen 1", used.UsedCount)
		}
		if len(f.vouchers.redemptions) != 1 || f.vouchers.redemptions[0].AmountMinor != 30000 {
			t.Errorf("redemption kaydı hatalı: %+v", f.vouchers.redemptions)
		}
	})

	t.Run("kupon randevudaki hizmetle eşleşmeli", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		newVoucher(f, "SAUNA10", 3, 10000, nil)

		_, err := f.svc.ApplyVoucher(ctx, payment.ID, testClientID, "SAUNA10")
		if !errors.Is(err, ErrVoucherWrongService) {
			t.Errorf("hata = %v, beklenen ErrVoucherWrongService", err)
		}
	})

	t.Run("tahsisli kupon başka müşteride çalışmaz", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		otherID := testStaffID
		newVoucher(f, "OZEL", 1, 10000, &otherID)

		_, err := f.svc.ApplyVoucher(ctx, payment.ID, testClientID, "OZEL")
		if !errors.Is(err, ErrVoucherWrongClient) {
			t.Errorf("hata = %v, beklenen ErrVoucherWrongClient", err)
		}
	})

	t.Run("kullanım hakkı biten kupon reddedilir", func(t *testing.T) {
		f := newPayFixture(t)
		_, payment := f.seedAdvance(t)
		v := newVoucher(f, "BITTI", 1, 10000, nil)
		v.UsedCount = v.MaxUses
		_ = f.vouchers.Update(ctx, v)

		_, err := f.svc.ApplyVoucher(ctx, payment.ID, testClientID, "BITTI")
		if !errors.Is(err, ErrVoucherNotUsable) {
			t.Errorf("hata = %v, beklenen ErrVoucherNotUsable", err)
		}
	})
}

func TestCollectBalance(t *testing.T) {
	ctx := context.Background()

	gatewayStub := func(t *testing.T) *gateway.Client {
		t.Helper()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req gateway.CheckoutRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = json.NewEncoder(w).Encode(gateway.CheckoutResponse{
				Reference:   req.Reference,
				RedirectURL: "https://gw.example/pay/" + req.Reference,
			})
		}))
		t.Cleanup(server.Close)
		return gateway.NewClient(server.URL, "test-key")
	}

	approveAdvance := func(f *payFixture, appointment *models.Appointment) {
		payments, _ := f.payments.FindByAppointment(ctx, appointment.ID)
		for i := range payments {
			payments[i].Status = models.PaymentApproved
			_ = f.payments.Update(ctx, &payments[i])
		}
		appointment.Status = models.AppointmentConfirmed
		_ = f.appts.Update(ctx, appointment)
	}

	t.Run("kalan bakiye için FINAL ödeme açılır", func(t *testing.T) {
		f := newPayFixture(t)
		f.svc.gateway = gatewayStub(t)
		appointment, _ := f.seedAdvance(t)
		approveAdvance(f, appointment)

		result, err := f.svc.CollectBalance(ctx, appointment.ID, testClientID, 0)
		if err != nil {
			t.Fatalf("bakiye tahsilatı başarısız: %v", err)
		}
		// 100000 - 30000 avans
		if result.AmountMinor != 70000 {
			t.Errorf("tutar = %d, beklenen 70000", result.AmountMinor)
		}
		if result.RedirectURL == "" {
			t.Error("yönlendirme URL'i boş")
		}
		payment, _ := f.payments.FindByID(ctx, result.PaymentID)
		if payment.Type != models.PaymentTypeFinal {
			t.Errorf("tür = %s, beklenen FINAL", payment.Type)
		}
	})

	t.Run("açık FINAL ödeme varken yenisi açılmaz", func(t *testing.T) {
		f := newPayFixture(t)
		f.svc.gateway = gatewayStub(t)
		appointment, _ := f.seedAdvance(t)
		approveAdvance(f, appointment)

		first, err := f.svc.CollectBalance(ctx, appointment.ID, testClientID, 0)
		if err != nil {
			t.Fatal(err)
		}
		second, err := f.svc.CollectBalance(ctx, appointment.ID, testClientID, 0)
		if err != nil {
			t.Fatal(err)
		}
		if first.PaymentID != second.PaymentID {
			t.Errorf("ödeme ID'leri farklı: %d / %d", first.PaymentID, second.PaymentID)
		}
	})

	t.Run("açık FINAL ödemeye bahşiş eklenemez", func(t *testing.T) {
		f := newPayFixture(t)
		f.svc.gateway = gatewayStub(t)
		appointment, _ := f.seedAdvance(t)
		approveAdvance(f, appointment)

		if _, err := f.svc.CollectBalance(ctx, appointment.ID, testClientID, 0); err != nil {
			t.Fatal(err)
		}
		_, err := f.svc.CollectBalance(ctx, appointment.ID, testClientID, 5000)
		if !errors.Is(err, ErrTipOnOpenPayment) {
			t.Errorf("hata = %v, beklenen ErrTipOnOpenPayment", err)
		}
	})

	t.Run("bahşişli tahsilatta komisyon bahşiş hariç hesaplanır", func(t *testing.T) {
		f := newPayFixture(t)
		f.svc.gateway = gatewayStub(t)
		appointment, _ := f.seedAdvance(t)
		approveAdvance(f, appointment)

		result, err := f.svc.CollectBalance(ctx, appointment.ID, testClientID, 5000)
		if err != nil {
			t.Fatal(err)
		}
		// 70000 bakiye + 5000 bahşiş tek ödemede tahsil edilir.
		if result.AmountMinor != 75000 {
			t.Fatalf("tutar = %d, beklenen 75000", result.AmountMinor)
		}
		payment, _ := f.payments.FindByID(ctx, result.PaymentID)
		if payment.TipMinor != 5000 {
			t.Fatalf("bahşiş payı = %d, beklenen 5000", payment.TipMinor)
		}

		body, sig := signedBody(t, WebhookPayload{Reference: payment.ExternalRef, Status: "approved", AmountMinor: 75000})
		if err := f.svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("webhook işlenemedi: %v", err)
		}
		ledger, err := f.commissions.FindByPaymentID(ctx, payment.ID)
		if err != nil {
			t.Fatal("komisyon kaydı bekleniyordu")
		}
		// 70000 * %10; bahşiş matraha girmez.
		if ledger.OwedMinor != 7000 {
			t.Errorf("komisyon = %d, beklenen 7000", ledger.OwedMinor)
		}
		tipped, _ := f.appts.FindByID(ctx, appointment.ID)
		if tipped.TipMinor != 5000 {
			t.Errorf("randevu bahşişi = %d, beklenen 5000", tipped.TipMinor)
		}
	})

	t.Run("bakiye kapalıyken bahşiş TIP ödemesi açar", func(t *testing.T) {
		f := newPayFixture(t)
		f.svc.gateway = gatewayStub(t)
		appointment, _ := f.seedAdvance(t)
		approveAdvance(f, appointment)
		_ = f.payments.Create(ctx, &models.Payment{
			AppointmentID: &appointment.ID,
			ClientID:      testClientID,
			Type:          models.PaymentTypeFinal,
			AmountMinor:   70000,
			Currency:      "TRY",
			Status:        models.PaymentApproved,
			ExternalRef:   "final-kapandi",
		})

		result, err := f.svc.CollectBalance(ctx, appointment.ID, testClientID, 5000)
		if err != nil {
			t.Fatalf("bahşiş tahsilatı başarısız: %v", err)
		}
		payment, _ := f.payments.FindByID(ctx, result.PaymentID)
		if payment.Type != models.PaymentTypeTip || payment.AmountMinor != 5000 {
			t.Errorf("ödeme = %s/%d, beklenen TIP/5000", payment.Type, payment.AmountMinor)
		}
	})

	t.Run("bakiye ve bahşiş yoksa reddedilir", func(t *testing.T) {
		f := newPayFixture(t)
		f.svc.gateway = gatewayStub(t)
		appointment, _ := f.seedAdvance(t)
		approveAdvance(f, appointment)
		_ = f.payments.Create(ctx, &models.Payment{
			AppointmentID: &appointment.ID,
			ClientID:      testClientID,
			Type:          models.PaymentTypeFinal,
			AmountMinor:   70000,
			Currency:      "TRY",
			Status:        models.PaymentApproved,
			ExternalRef:   "final-kapandi-2",
		})

		_, err := f.svc.CollectBalance(ctx, appointment.ID, testClientID, 0)
		if !errors.Is(err, ErrNoBalanceDue) {
			t.Errorf("hata = %v, beklenen ErrNoBalanceDue", err)
		}
	})

	t.Run("ağ geçidi hatası ödemeyi PENDING bırakır", func(t *testing.T) {
		f := newPayFixture(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(server.Close)
		f.svc.gateway = gateway.NewClient(server.URL, "test-key")

		appointment, _ := f.seedAdvance(t)
		approveAdvance(f, appointment)

		_, err := f.svc.CollectBalance(ctx, appointment.ID, testClientID, 0)
		if !errors.Is(err, gateway.ErrGatewayUnavailable) {
			t.Fatalf("hata = %v, beklenen ErrGatewayUnavailable", err)
		}
		payments, _ := f.payments.FindByAppointment(ctx, appointment.ID)
		for _, p := range payments {
			if p.Type == models.PaymentTypeFinal && p.Status != models.PaymentPending {
				t.Errorf("FINAL ödeme durumu = %s, beklenen PENDING", p.Status)
			}
		}
	})
}

func TestMarkCommissionPaid(t *testing.T) {
	ctx := context.Background()

	seedLedger := func(f *payFixture) *models.CommissionLedger {
		ledger := &models.CommissionLedger{PaymentID: 1, OwedMinor: 3000, Status: models.CommissionPending}
		_ = f.commissions.Create(ctx, ledger)
		return ledger
	}

	t.Run("ödeme referansıyla PAID olur", func(t *testing.T) {
		f := newPayFixture(t)
		seedLedger(f)

		ledger, err := f.svc.MarkCommissionPaid(ctx, 1, "payout-42", false)
		if err != nil {
			t.Fatal(err)
		}
		if ledger.Status != models.CommissionPaid || ledger.PaidMinor != 3000 || ledger.PayoutRef != "payout-42" {
			t.Errorf("komisyon = %+v, beklenen PAID/3000/payout-42", ledger)
		}
	})

	t.Run("NSF işaretlenen komisyon sonradan tahsil edilebilir", func(t *testing.T) {
		f := newPayFixture(t)
		seedLedger(f)

		ledger, err := f.svc.MarkCommissionPaid(ctx, 1, "", true)
		if err != nil {
			t.Fatal(err)
		}
		if ledger.Status != models.CommissionFailedNSF {
			t.Errorf("durum = %s, beklenen FAILED_NSF", ledger.Status)
		}
		retried, err := f.svc.MarkCommissionPaid(ctx, 1, "payout-43", false)
		if err != nil {
			t.Fatalf("NSF sonrası tahsilat başarısız: %v", err)
		}
		if retried.Status != models.CommissionPaid {
			t.Errorf("durum = %s, beklenen PAID", retried.Status)
		}
	})

	t.Run("PAID komisyon tekrar işaretlenemez", func(t *testing.T) {
		f := newPayFixture(t)
		seedLedger(f)
		if _, err := f.svc.MarkCommissionPaid(ctx, 1, "payout-44", false); err != nil {
			t.Fatal(err)
		}
		_, err := f.svc.MarkCommissionPaid(ctx, 1, "payout-45", false)
		var invalid *models.ErrInvalidTransition
		if !errors.As(err, &invalid) {
			t.Errorf("hata = %v, beklenen ErrInvalidTransition", err)
		}
	})
}

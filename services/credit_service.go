package services

import (
	"context"
	"time"

	"zenzspa.app/configs/configsapp"
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"
	"zenzspa.app/pkg/metrics"
	"zenzspa.app/repositories"

	"go.uber.org/zap"
)

// CreditServiceError özel servis hataları.
type CreditServiceError string

func (e CreditServiceError) Error() string { return string(e) }

const (
	ErrCreditInvalidInput CreditServiceError = "geçersiz kredi verisi"
	ErrCreditForbidden    CreditServiceError = "bu işlem için admin yetkisi gerekir"
)

// VoucherInfo kupon doğrulama yanıtı; kod geçerliyse kuponun koşulları döner.
type VoucherInfo struct {
	Code        string    `json:"code"`
	ServiceID   uint      `json:"service_id"`
	AmountMinor int64     `json:"amount_minor"`
	ExpiresAt   time.Time `json:"expires_at"`
	UsesLeft    int       `json:"uses_left"`
}

// ICreditService kredi bakiyesi ve kupon sorguları için arayüz.
type ICreditService interface {
	ListByClient(ctx context.Context, clientID uint) ([]models.ClientCredit, error)
	BalanceMinor(ctx context.Context, clientID uint) (int64, error)
	ValidateVoucher(ctx context.Context, code string, clientID uint) (*VoucherInfo, error)
	GrantCredit(ctx context.Context, actorID, clientID uint, amountMinor int64) (*models.ClientCredit, error)

	// ExpireCredits süresi geçen kredileri EXPIRED durumuna çeker.
	ExpireCredits(ctx context.Context) error
}

// CreditService ICreditService arayüzünü uygular.
type CreditService struct {
	creditRepo  repositories.ICreditRepository
	voucherRepo repositories.IVoucherRepository
	userRepo    repositories.IUserRepository
	settings    configsapp.ISettingsProvider
	tx          ITxManager
	notifier    INotificationService
	now         func() time.Time
}

// NewCreditService yeni bir CreditService örneği oluşturur.
func NewCreditService(settings configsapp.ISettingsProvider, tx ITxManager, notifier INotificationService) ICreditService {
	return &CreditService{
		creditRepo:  repositories.NewCreditRepository(),
		voucherRepo: repositories.NewVoucherRepository(),
		userRepo:    repositories.NewUserRepository(),
		settings:    settings,
		tx:          tx,
		notifier:    notifier,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *CreditService) ListByClient(ctx context.Context, clientID uint) ([]models.ClientCredit, error) {
	return s.creditRepo.ListByClient(ctx, clientID)
}

// BalanceMinor müşterinin şu anda harcanabilir kredi toplamı.
func (s *CreditService) BalanceMinor(ctx context.Context, clientID uint) (int64, error) {
	credits, err := s.creditRepo.ListByClient(ctx, clientID)
	if err != nil {
		return 0, err
	}
	var total int64
	now := s.now()
	for i := range credits {
		if credits[i].Usable(now) {
			total += credits[i].RemainingMinor
		}
	}
	return total, nil
}

// ValidateVoucher kuponu değiştirmeden doğrular; ödeme akışına girmeden önce
// istemciye koşulları göstermek içindir.
func (s *CreditService) ValidateVoucher(ctx context.Context, code string, clientID uint) (*VoucherInfo, error) {
	voucher, err := s.voucherRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, ErrVoucherNotFound
	}
	if !voucher.Redeemable(s.now()) {
		return nil, ErrVoucherNotUsable
	}
	if voucher.ClientID != nil && *voucher.ClientID != clientID {
		return nil, ErrVoucherWrongClient
	}
	return &VoucherInfo{
		Code:        voucher.Code,
		ServiceID:   voucher.ServiceID,
		AmountMinor: voucher.AmountMinor,
		ExpiresAt:   voucher.ExpiresAt,
		UsesLeft:    voucher.MaxUses - voucher.UsedCount,
	}, nil
}

// GrantCredit admin eliyle kredi tanımlar (şikayet çözümü, jest vb.).
func (s *CreditService) GrantCredit(ctx context.Context, actorID, clientID uint, amountMinor int64) (*models.ClientCredit, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil || actor.Role != models.RoleAdmin {
		return nil, ErrCreditForbidden
	}
	if amountMinor <= 0 || clientID == 0 {
		return nil, ErrCreditInvalidInput
	}
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	credit := models.ClientCredit{
		ClientID:       clientID,
		Source:         models.CreditSourceAdmin,
		OriginalMinor:  amountMinor,
		RemainingMinor: amountMinor,
		Status:         models.CreditAvailable,
		ExpiresAt:      s.now().AddDate(0, 0, snap.CreditExpiryDays),
	}
	ctx = models.ContextWithUserID(ctx, actorID)
	if err := s.creditRepo.Create(ctx, &credit); err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, EventCreditGranted, clientID, map[string]any{
		"credit_id":    credit.ID,
		"amount_minor": amountMinor,
	})
	configslog.SLog.Infof("Kredi tanımlandı: müşteri %d, tutar %d, işlem sahibi %d", clientID, amountMinor, actorID)
	return &credit, nil
}

// ExpireCredits süresi geçen AVAILABLE kredileri kapatır. Her kredi satır
// kilidi altında tekrar kontrol edilir; eşzamanlı bir harcama ile yarışmaz.
func (s *CreditService) ExpireCredits(ctx context.Context) error {
	stale, err := s.creditRepo.FindStaleAvailable(ctx, s.now(), 100)
	if err != nil {
		return err
	}
	for _, candidate := range stale {
		candidateID := candidate.ID
		txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
			credit, err := s.creditRepo.FindByIDForUpdate(txCtx, candidateID)
			if err != nil {
				return nil
			}
			if credit.Status != models.CreditAvailable || s.now().Before(credit.ExpiresAt) {
				return nil
			}
			credit.Status = models.CreditExpired
			if err := s.creditRepo.Update(txCtx, credit); err != nil {
				return err
			}
			metrics.SweepTransitions.WithLabelValues("credit_expiry").Inc()
			return nil
		})
		if txErr != nil {
			configslog.Log.Error("Kredi süresi kapatılamadı",
				zap.Uint("creditID", candidateID), zap.Error(txErr))
		}
	}
	return nil
}

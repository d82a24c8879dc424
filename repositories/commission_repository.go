package repositories

import (
	"context"
	"errors"

	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/models"

	"gorm.io/gorm"
)

// ICommissionRepository komisyon defteri veritabanı işlemleri için arayüz.
type ICommissionRepository interface {
	Create(ctx context.Context, ledger *models.CommissionLedger) error
	FindByPaymentID(ctx context.Context, paymentID uint) (*models.CommissionLedger, error)
	Update(ctx context.Context, ledger *models.CommissionLedger) error
}

// CommissionRepository ICommissionRepository arayüzünü uygular.
type CommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository yeni bir CommissionRepository örneği oluşturur.
func NewCommissionRepository() ICommissionRepository {
	return &CommissionRepository{db: configsdatabase.GetDB()}
}

// NewCommissionRepositoryWith bağlantı enjekte eden kurucu.
func NewCommissionRepositoryWith(db *gorm.DB) ICommissionRepository {
	return &CommissionRepository{db: db}
}

func (r *CommissionRepository) Create(ctx context.Context, ledger *models.CommissionLedger) error {
	if ledger == nil || ledger.PaymentID == 0 {
		return errors.New("geçersiz komisyon kaydı")
	}
	return getDB(ctx, r.db).Create(ledger).Error
}

func (r *CommissionRepository) FindByPaymentID(ctx context.Context, paymentID uint) (*models.CommissionLedger, error) {
	var ledger models.CommissionLedger
	err := getDB(ctx, r.db).
		Where("payment_id = ?", paymentID).
		First(&ledger).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ledger, nil
}

func (r *CommissionRepository) Update(ctx context.Context, ledger *models.CommissionLedger) error {
	return getDB(ctx, r.db).Save(ledger).Error
}

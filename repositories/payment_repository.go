package repositories

import (
	"context"
	"errors"

	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IPaymentRepository ödeme veritabanı işlemleri için arayüz.
type IPaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	// FindByExternalRefForUpdate webhook işleme yolunun satır kilidi.
	// Transaction içinde çağrılmalıdır.
	FindByExternalRefForUpdate(ctx context.Context, externalRef string) (*models.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Payment, error)
	FindByAppointment(ctx context.Context, appointmentID uint) ([]models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
}

// PaymentRepository IPaymentRepository arayüzünü uygular.
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository yeni bir PaymentRepository örneği oluşturur.
func NewPaymentRepository() IPaymentRepository {
	return &PaymentRepository{db: configsdatabase.GetDB()}
}

// NewPaymentRepositoryWith bağlantı enjekte eden kurucu.
func NewPaymentRepositoryWith(db *gorm.DB) IPaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment == nil || payment.ExternalRef == "" {
		return errors.New("geçersiz ödeme kaydı: external referans zorunlu")
	}
	return getDB(ctx, r.db).Create(payment).Error
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := getDB(ctx, r.db).First(&payment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) FindByExternalRefForUpdate(ctx context.Context, externalRef string) (*models.Payment, error) {
	var payment models.Payment
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_ref = ?", externalRef).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) FindByAppointment(ctx context.Context, appointmentID uint) ([]models.Payment, error) {
	var out []models.Payment
	err := getDB(ctx, r.db).
		Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return getDB(ctx, r.db).Save(payment).Error
}

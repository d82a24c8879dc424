package repositories

import (
	"context"
	"errors"
	"strings"

	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IVoucherRepository kupon veritabanı işlemleri için arayüz.
type IVoucherRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Voucher, error)
	// FindByCodeForUpdate kullanım sayacı artırımı için satır kilidi alır.
	FindByCodeForUpdate(ctx context.Context, code string) (*models.Voucher, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Voucher, error)
	Update(ctx context.Context, voucher *models.Voucher) error
	CreateRedemption(ctx context.Context, redemption *models.VoucherRedemption) error
	// FindRedemptionsByPayment ödemeye bağlı kupon kullanımlarını döndürür;
	// DeleteRedemption ile birlikte başarısız ödemede iade için kullanılır.
	FindRedemptionsByPayment(ctx context.Context, paymentID uint) ([]models.VoucherRedemption, error)
	DeleteRedemption(ctx context.Context, id uint) error
}

// VoucherRepository IVoucherRepository arayüzünü uygular.
type VoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository yeni bir VoucherRepository örneği oluşturur.
func NewVoucherRepository() IVoucherRepository {
	return &VoucherRepository{db: configsdatabase.GetDB()}
}

// NewVoucherRepositoryWith bağlantı enjekte eden kurucu.
func NewVoucherRepositoryWith(db *gorm.DB) IVoucherRepository {
	return &VoucherRepository{db: db}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *VoucherRepository) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := getDB(ctx, r.db).
		Where("code = ?", normalizeCode(code)).
		First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &voucher, nil
}

func (r *VoucherRepository) FindByCodeForUpdate(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", normalizeCode(code)).
		First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &voucher, nil
}

func (r *VoucherRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Voucher, error) {
	var voucher models.Voucher
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&voucher, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &voucher, nil
}

func (r *VoucherRepository) Update(ctx context.Context, voucher *models.Voucher) error {
	return getDB(ctx, r.db).Save(voucher).Error
}

func (r *VoucherRepository) CreateRedemption(ctx context.Context, redemption *models.VoucherRedemption) error {
	return getDB(ctx, r.db).Create(redemption).Error
}

func (r *VoucherRepository) FindRedemptionsByPayment(ctx context.Context, paymentID uint) ([]models.VoucherRedemption, error) {
	var out []models.VoucherRedemption
	err := getDB(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *VoucherRepository) DeleteRedemption(ctx context.Context, id uint) error {
	return getDB(ctx, r.db).Delete(&models.VoucherRedemption{}, id).Error
}

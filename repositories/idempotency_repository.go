package repositories

import (
	"context"
	"errors"

	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IIdempotencyRepository istemci idempotency token kayıtları için arayüz.
type IIdempotencyRepository interface {
	// FindByKeyForUpdate token kaydını kilitleyerek getirir; eşzamanlı iki
	// retry aynı anda rezervasyon yapamaz.
	FindByKeyForUpdate(ctx context.Context, key string) (*models.IdempotencyKey, error)
	Create(ctx context.Context, record *models.IdempotencyKey) error
	Update(ctx context.Context, record *models.IdempotencyKey) error
}

// IdempotencyRepository IIdempotencyRepository arayüzünü uygular.
type IdempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository yeni bir IdempotencyRepository örneği oluşturur.
func NewIdempotencyRepository() IIdempotencyRepository {
	return &IdempotencyRepository{db: configsdatabase.GetDB()}
}

// NewIdempotencyRepositoryWith bağlantı enjekte eden kurucu.
func NewIdempotencyRepositoryWith(db *gorm.DB) IIdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) FindByKeyForUpdate(ctx context.Context, key string) (*models.IdempotencyKey, error) {
	var record models.IdempotencyKey
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("key = ?", key).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *IdempotencyRepository) Create(ctx context.Context, record *models.IdempotencyKey) error {
	if record == nil || record.Key == "" {
		return errors.New("geçersiz idempotency kaydı")
	}
	return getDB(ctx, r.db).Create(record).Error
}

func (r *IdempotencyRepository) Update(ctx context.Context, record *models.IdempotencyKey) error {
	return getDB(ctx, r.db).Save(record).Error
}

package repositories

import (
	"context"
	"errors"
	"time"

	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IUserRepository kullanıcı ve ceza (strike) veritabanı işlemleri için arayüz.
type IUserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	// FindByIDForUpdate slot rezervasyonu (personel satırı) ve strike eşiği
	// kontrolü (müşteri satırı) için satır kilidi alır.
	FindByIDForUpdate(ctx context.Context, id uint) (*models.User, error)
	Update(ctx context.Context, user *models.User) error

	CreateStrike(ctx context.Context, strike *models.Strike) error
	CountStrikesSince(ctx context.Context, clientID uint, since time.Time) (int64, error)

	ListActiveStaff(ctx context.Context) ([]models.User, error)
}

// UserRepository IUserRepository arayüzünü uygular.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository yeni bir UserRepository örneği oluşturur.
func NewUserRepository() IUserRepository {
	return &UserRepository{db: configsdatabase.GetDB()}
}

// NewUserRepositoryWith bağlantı enjekte eden kurucu.
func NewUserRepositoryWith(db *gorm.DB) IUserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := getDB(ctx, r.db).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return getDB(ctx, r.db).Save(user).Error
}

// CreateStrike ceza kaydı ekler. AppointmentID üzerindeki unique index aynı
// randevunun iki kez sayılmasını veritabanı seviyesinde de engeller.
func (r *UserRepository) CreateStrike(ctx context.Context, strike *models.Strike) error {
	return getDB(ctx, r.db).Create(strike).Error
}

func (r *UserRepository) CountStrikesSince(ctx context.Context, clientID uint, since time.Time) (int64, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&models.Strike{}).
		Where("client_id = ? AND created_at >= ?", clientID, since).
		Count(&count).Error
	return count, err
}

func (r *UserRepository) ListActiveStaff(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := getDB(ctx, r.db).
		Where("role = ? AND is_active = ?", models.RoleStaff, true).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

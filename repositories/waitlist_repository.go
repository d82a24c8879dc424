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

// IWaitlistRepository bekleme listesi veritabanı işlemleri için arayüz.
type IWaitlistRepository interface {
	Create(ctx context.Context, entry *models.WaitlistEntry) error
	FindByID(ctx context.Context, id uint) (*models.WaitlistEntry, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.WaitlistEntry, error)
	Update(ctx context.Context, entry *models.WaitlistEntry) error

	// NextQueuedForUpdate boşalan slota uyan en eski QUEUED kaydı kilitleyerek
	// getirir (FIFO).
	NextQueuedForUpdate(ctx context.Context, categoryID uint, staffID *uint, slotStart time.Time) (*models.WaitlistEntry, error)
	// FindExpiredOffers süresi geçen teklifleri süpürme için getirir.
	FindExpiredOffers(ctx context.Context, now time.Time, limit int) ([]models.WaitlistEntry, error)
	ListByClient(ctx context.Context, clientID uint) ([]models.WaitlistEntry, error)
}

// WaitlistRepository IWaitlistRepository arayüzünü uygular.
type WaitlistRepository struct {
	db *gorm.DB
}

// NewWaitlistRepository yeni bir WaitlistRepository örneği oluşturur.
func NewWaitlistRepository() IWaitlistRepository {
	return &WaitlistRepository{db: configsdatabase.GetDB()}
}

// NewWaitlistRepositoryWith bağlantı enjekte eden kurucu.
func NewWaitlistRepositoryWith(db *gorm.DB) IWaitlistRepository {
	return &WaitlistRepository{db: db}
}

func (r *WaitlistRepository) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	if entry == nil || entry.ClientID == 0 {
		return errors.New("geçersiz bekleme listesi kaydı")
	}
	return getDB(ctx, r.db).Create(entry).Error
}

func (r *WaitlistRepository) FindByID(ctx context.Context, id uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := getDB(ctx, r.db).First(&entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *WaitlistRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *WaitlistRepository) Update(ctx context.Context, entry *models.WaitlistEntry) error {
	return getDB(ctx, r.db).Save(entry).Error
}

func (r *WaitlistRepository) NextQueuedForUpdate(ctx context.Context, categoryID uint, staffID *uint, slotStart time.Time) (*models.WaitlistEntry, error) {
	q := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND category_id = ?", models.WaitlistQueued, categoryID).
		Where("preferred_from <= ? AND preferred_to >= ?", slotStart, slotStart)
	// Personel tercihli kayıtlar yalnızca o personelin slotunu kabul eder.
	if staffID != nil {
		q = q.Where("staff_id IS NULL OR staff_id = ?", *staffID)
	} else {
		q = q.Where("staff_id IS NULL")
	}

	var entry models.WaitlistEntry
	err := q.Order("created_at ASC").First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *WaitlistRepository) FindExpiredOffers(ctx context.Context, now time.Time, limit int) ([]models.WaitlistEntry, error) {
	var out []models.WaitlistEntry
	err := getDB(ctx, r.db).
		Where("status = ? AND offer_deadline <= ?", models.WaitlistOffered, now).
		Order("offer_deadline ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *WaitlistRepository) ListByClient(ctx context.Context, clientID uint) ([]models.WaitlistEntry, error) {
	var out []models.WaitlistEntry
	err := getDB(ctx, r.db).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

package repositories

import (
	"context"
	"time"

	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/models"

	"gorm.io/gorm"
)

// IAvailabilityRepository çalışma blokları ve istisnalar için salt-okunur arayüz.
// Rezervasyon akışı bu kayıtları asla değiştirmez.
type IAvailabilityRepository interface {
	FindBlocksForWeekday(ctx context.Context, weekday time.Weekday, staffIDs []uint) ([]models.StaffAvailability, error)
	FindExclusionsBetween(ctx context.Context, staffIDs []uint, from, to time.Time) ([]models.AvailabilityExclusion, error)
}

// AvailabilityRepository IAvailabilityRepository arayüzünü uygular.
type AvailabilityRepository struct {
	db *gorm.DB
}

// NewAvailabilityRepository yeni bir AvailabilityRepository örneği oluşturur.
func NewAvailabilityRepository() IAvailabilityRepository {
	return &AvailabilityRepository{db: configsdatabase.GetDB()}
}

// NewAvailabilityRepositoryWith bağlantı enjekte eden kurucu.
func NewAvailabilityRepositoryWith(db *gorm.DB) IAvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) FindBlocksForWeekday(ctx context.Context, weekday time.Weekday, staffIDs []uint) ([]models.StaffAvailability, error) {
	q := getDB(ctx, r.db).Where("weekday = ?", weekday)
	if len(staffIDs) > 0 {
		q = q.Where("staff_id IN ?", staffIDs)
	}
	var out []models.StaffAvailability
	err := q.Order("staff_id ASC, start_time ASC").Find(&out).Error
	return out, err
}

func (r *AvailabilityRepository) FindExclusionsBetween(ctx context.Context, staffIDs []uint, from, to time.Time) ([]models.AvailabilityExclusion, error) {
	q := getDB(ctx, r.db).
		Where("start_time < ? AND end_time > ?", to, from)
	if len(staffIDs) > 0 {
		q = q.Where("staff_id IN ?", staffIDs)
	}
	var out []models.AvailabilityExclusion
	err := q.Find(&out).Error
	return out, err
}

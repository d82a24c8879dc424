package repositories

import (
	"context"
	"errors"

	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IServiceRepository hizmet ve kategori veritabanı işlemleri için arayüz.
type IServiceRepository interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Service, error)
	FindCategoryByID(ctx context.Context, id uint) (*models.ServiceCategory, error)
	// FindCategoryByIDForUpdate düşük gözetimli kategorilerin kapasite
	// sayacı için satır kilidi alır; personel kilidinin muadilidir.
	FindCategoryByIDForUpdate(ctx context.Context, id uint) (*models.ServiceCategory, error)
}

// ServiceRepository IServiceRepository arayüzünü uygular.
type ServiceRepository struct {
	db *gorm.DB
}

// NewServiceRepository yeni bir ServiceRepository örneği oluşturur.
func NewServiceRepository() IServiceRepository {
	return &ServiceRepository{db: configsdatabase.GetDB()}
}

// NewServiceRepositoryWith bağlantı enjekte eden kurucu.
func NewServiceRepositoryWith(db *gorm.DB) IServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Service, error) {
	if len(ids) == 0 {
		return nil, errors.New("hizmet listesi boş olamaz")
	}
	var out []models.Service
	err := getDB(ctx, r.db).
		Preload("Category").
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&out).Error
	return out, err
}

func (r *ServiceRepository) FindCategoryByID(ctx context.Context, id uint) (*models.ServiceCategory, error) {
	var category models.ServiceCategory
	err := getDB(ctx, r.db).First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *ServiceRepository) FindCategoryByIDForUpdate(ctx context.Context, id uint) (*models.ServiceCategory, error) {
	var category models.ServiceCategory
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

package repositories

import (
	"context"

	"zenzspa.app/configs/configsdatabase"
	"zenzspa.app/models"

	"gorm.io/gorm"
)

// IAuditRepository denetim kayıtları için arayüz.
type IAuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// AuditRepository IAuditRepository arayüzünü uygular.
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository yeni bir AuditRepository örneği oluşturur.
func NewAuditRepository() IAuditRepository {
	return &AuditRepository{db: configsdatabase.GetDB()}
}

// NewAuditRepositoryWith bağlantı enjekte eden kurucu.
func NewAuditRepositoryWith(db *gorm.DB) IAuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return getDB(ctx, r.db).Create(entry).Error
}

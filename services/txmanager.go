package services

import (
	"context"

	"zenzspa.app/repositories"

	"gorm.io/gorm"
)

// ITxManager "oku, karar ver, yaz" dizilerinin tek transaction içinde
// kalmasını sağlar. Transaction context üzerinden repository'lere taşınır;
// testlerde sahte (fake) implementasyon kullanılır.
type ITxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// GormTxManager ITxManager'ın gorm implementasyonu.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager yeni bir GormTxManager oluşturur.
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// Do fn'i tek transaction içinde çalıştırır; fn hata dönerse rollback edilir.
// Context zaten bir transaction taşıyorsa ona katılır: iç içe Do çağrıları
// (ör. bekleme listesi kabulünün randevu oluşturmayı çağırması) tek
// transaction'da kalır.
func (m *GormTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if repositories.TxFromContext(ctx) != nil {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repositories.ContextWithTx(ctx, tx))
	})
}

package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound kayıt bulunamadığında tüm repository'lerin döndürdüğü ortak hata.
var ErrNotFound = errors.New("kayıt bulunamadı")

type txContextKey struct{}

// ContextWithTx devam eden transaction'ı context'e ekler. Servis katmanı
// transaction'ı başlatır, repository'ler getDB ile aynı transaction üzerinden
// çalışır.
func ContextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext context'teki transaction'ı döndürür, yoksa nil.
func TxFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// getDB context'te transaction varsa onu, yoksa verilen bağlantıyı döndürür.
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := TxFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

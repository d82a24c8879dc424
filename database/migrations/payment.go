package migrations

import (
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigratePaymentsTables(db *gorm.DB) error {
	configslog.SLog.Info("Payments, idempotency_keys ve commission_ledgers tabloları migrate ediliyor...")
	if err := db.AutoMigrate(&models.Payment{}, &models.IdempotencyKey{}, &models.CommissionLedger{}); err != nil {
		configslog.Log.Error("Payments tabloları migrate edilemedi", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Payments tabloları migrate işlemi tamamlandı.")
	return nil
}

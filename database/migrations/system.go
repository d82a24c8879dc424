package migrations

import (
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateSystemTables(db *gorm.DB) error {
	configslog.SLog.Info("Settings ve audit_logs tabloları migrate ediliyor...")
	if err := db.AutoMigrate(&models.Setting{}, &models.AuditLog{}); err != nil {
		configslog.Log.Error("Sistem tabloları migrate edilemedi", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Sistem tabloları migrate işlemi tamamlandı.")
	return nil
}

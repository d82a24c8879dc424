package migrations

import (
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateWaitlistTable(db *gorm.DB) error {
	configslog.SLog.Info("Waitlist_entries tablosu migrate ediliyor...")
	if err := db.AutoMigrate(&models.WaitlistEntry{}); err != nil {
		configslog.Log.Error("Waitlist_entries tablosu migrate edilemedi", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Waitlist_entries tablosu migrate işlemi tamamlandı.")
	return nil
}

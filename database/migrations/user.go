package migrations

import (
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateUsersTables(db *gorm.DB) error {
	configslog.SLog.Info("Users ve strikes tabloları migrate ediliyor...")
	if err := db.AutoMigrate(&models.User{}, &models.Strike{}); err != nil {
		configslog.Log.Error("Users ve strikes tabloları migrate edilemedi", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Users ve strikes tabloları migrate işlemi tamamlandı.")
	return nil
}

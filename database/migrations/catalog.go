package migrations

import (
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateCatalogTables(db *gorm.DB) error {
	configslog.SLog.Info("Service_categories ve services tabloları migrate ediliyor...")
	if err := db.AutoMigrate(&models.ServiceCategory{}, &models.Service{}); err != nil {
		configslog.Log.Error("Katalog tabloları migrate edilemedi", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Katalog tabloları migrate işlemi tamamlandı.")
	return nil
}

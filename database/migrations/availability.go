package migrations

import (
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateAvailabilityTables(db *gorm.DB) error {
	configslog.SLog.Info("Staff_availabilities ve availability_exclusions tabloları migrate ediliyor...")
	if err := db.AutoMigrate(&models.StaffAvailability{}, &models.AvailabilityExclusion{}); err != nil {
		configslog.Log.Error("Müsaitlik tabloları migrate edilemedi", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Müsaitlik tabloları migrate işlemi tamamlandı.")
	return nil
}

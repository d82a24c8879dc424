package migrations

import (
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateAppointmentsTables(db *gorm.DB) error {
	configslog.SLog.Info("Appointments ve appointment_items tabloları migrate ediliyor...")
	if err := db.AutoMigrate(&models.Appointment{}, &models.AppointmentItem{}); err != nil {
		configslog.Log.Error("Appointments tabloları migrate edilemedi", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Appointments tabloları migrate işlemi tamamlandı.")
	return nil
}

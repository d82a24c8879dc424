package seeders

import (
	"errors"

	"zenzspa.app/configs/configsapp"
	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedSettings varsayılan iş ayarlarını tabloya yazar. Mevcut anahtarlara
// dokunulmaz; operasyon ekibinin değiştirdiği değerler seed ile ezilmez.
func SeedSettings(db *gorm.DB) error {
	configslog.SLog.Info("İş ayarları seed işlemi başlıyor...")

	var errorOccurred bool
	for _, setting := range configsapp.DefaultSettings() {
		var existing models.Setting
		result := db.Where("key = ?", setting.Key).First(&existing)

		if result.Error == nil {
			configslog.SLog.Debugf("Ayar '%s' zaten mevcut, oluşturma atlanıyor.", setting.Key)
			continue
		} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			configslog.Log.Error("Ayar kontrol edilirken veritabanı hatası",
				zap.String("key", setting.Key), zap.Error(result.Error))
			errorOccurred = true
			continue
		}

		if err := db.Create(&setting).Error; err != nil {
			configslog.Log.Error("Ayar oluşturulamadı",
				zap.String("key", setting.Key), zap.Error(err))
			errorOccurred = true
			continue
		}
		configslog.SLog.Infof("Ayar '%s' = '%s' oluşturuldu.", setting.Key, setting.Value)
	}

	if errorOccurred {
		return errors.New("iş ayarları seed işlemi sırasında hatalar oluştu")
	}
	configslog.SLog.Info("İş ayarları seed işlemi tamamlandı.")
	return nil
}

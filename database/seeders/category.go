package seeders

import (
	"errors"

	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedServiceCategories başlangıç kategori kataloğunu oluşturur.
func SeedServiceCategories(db *gorm.DB) error {
	categories := []models.ServiceCategory{
		{Name: "Masaj", LowSupervision: false, ConcurrentCapacity: 1},
		{Name: "Cilt Bakımı", LowSupervision: false, ConcurrentCapacity: 1},
		{Name: "Sauna", LowSupervision: true, ConcurrentCapacity: 8},
		{Name: "Tuz Odası", LowSupervision: true, ConcurrentCapacity: 6},
	}

	configslog.SLog.Info("Hizmet kategorileri seed işlemi başlıyor...")

	var errorOccurred bool
	for _, category := range categories {
		var existing models.ServiceCategory
		result := db.Where("name = ?", category.Name).First(&existing)

		if result.Error == nil {
			configslog.SLog.Debugf("Kategori '%s' zaten mevcut, oluşturma atlanıyor.", category.Name)
			continue
		} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			configslog.Log.Error("Kategori kontrol edilirken veritabanı hatası",
				zap.String("name", category.Name), zap.Error(result.Error))
			errorOccurred = true
			continue
		}

		if err := db.Create(&category).Error; err != nil {
			configslog.Log.Error("Kategori oluşturulamadı",
				zap.String("name", category.Name), zap.Error(err))
			errorOccurred = true
			continue
		}
		configslog.SLog.Infof("Kategori '%s' oluşturuldu (ID: %d).", category.Name, category.ID)
	}

	if errorOccurred {
		return errors.New("hizmet kategorileri seed işlemi sırasında hatalar oluştu")
	}
	configslog.SLog.Info("Hizmet kategorileri seed işlemi tamamlandı.")
	return nil
}

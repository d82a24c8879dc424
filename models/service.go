package models

// ServiceCategory hizmet grubu. Düşük gözetimli (low-supervision) kategorilerde
// randevu belirli bir personele değil, kategori kapasitesine karşı alınır;
// eşzamanlılık kontrolü bu satır kilitlenerek yapılır.
type ServiceCategory struct {
	BaseModel
	Name           string `gorm:"type:varchar(100);uniqueIndex;not null"`
	LowSupervision bool   `gorm:"default:false"`
	// LowSupervision=true iken aynı anda alınabilecek randevu sayısı.
	ConcurrentCapacity int `gorm:"not null;default:1"`
}

// Service sunulan tekil hizmet. Fiyat minor unit (kuruş) cinsindendir.
type Service struct {
	BaseModel
	CategoryID      uint   `gorm:"index;not null"`
	Name            string `gorm:"type:varchar(150);not null"`
	Description     string `gorm:"type:text"`
	DurationMinutes int    `gorm:"not null"`
	PriceMinor      int64  `gorm:"not null"`
	IsActive        bool   `gorm:"default:true;index"`

	Category ServiceCategory `gorm:"foreignKey:CategoryID"`
}

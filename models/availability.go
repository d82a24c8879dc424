package models

import "time"

// StaffAvailability personelin haftalık tekrar eden çalışma bloğu.
// Saatler "15:04" formatında yerel saat olarak tutulur.
type StaffAvailability struct {
	BaseModel
	StaffID   uint         `gorm:"index;not null"`
	Weekday   time.Weekday `gorm:"not null"`
	StartTime string       `gorm:"type:varchar(5);not null"`
	EndTime   string       `gorm:"type:varchar(5);not null"`
}

// AvailabilityExclusion belirli bir zaman aralığındaki istisna
// (mola, izin, tatil). Rezervasyon akışı bu kayıtları asla mutasyona uğratmaz.
type AvailabilityExclusion struct {
	BaseModel
	StaffID   uint      `gorm:"index;not null"`
	StartTime time.Time `gorm:"type:timestamptz;not null;index"`
	EndTime   time.Time `gorm:"type:timestamptz;not null"`
	Reason    string    `gorm:"type:varchar(100)"`
}

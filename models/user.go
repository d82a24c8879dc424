package models

import "time"

// UserRole kullanıcının sistemdeki rolü.
type UserRole string

const (
	RoleClient UserRole = "CLIENT"
	RoleStaff  UserRole = "STAFF"
	RoleAdmin  UserRole = "ADMIN"
)

// User müşteri, personel ve admin kayıtlarının ortak tablosu.
// Kayıt/OTP akışları bu servisin dışındadır; burada sadece rezervasyon
// motorunun ihtiyaç duyduğu alanlar tutulur.
type User struct {
	BaseModel
	Email     string   `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName  string   `gorm:"type:varchar(200);not null"`
	Phone     string   `gorm:"type:varchar(30)"`
	Role      UserRole `gorm:"type:varchar(20);not null;default:'CLIENT';index"`
	IsActive  bool     `gorm:"default:true;index"`

	// Ceza takibi. IsBlocked yalnızca strike eşiği aşıldığında, müşteri satırı
	// kilitliyken set edilir.
	IsBlocked bool       `gorm:"default:false;index"`
	BlockedAt *time.Time `gorm:"type:timestamptz"`

	// Tahsil edilememiş bakiye; sıfırdan büyükse yeni randevu engellenir.
	OutstandingDebt int64 `gorm:"not null;default:0"`
}

// IsStaffOrAdmin personel yetkisi gerektiren işlemler için.
func (u *User) IsStaffOrAdmin() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}

// Strike geç iptal veya gelmeme (no-show) kaydı. AppointmentID üzerindeki
// unique index aynı randevunun iki kez sayılmasını engeller.
type Strike struct {
	BaseModel
	ClientID      uint   `gorm:"index;not null"`
	AppointmentID uint   `gorm:"uniqueIndex;not null"`
	Reason        string `gorm:"type:varchar(30);not null"`
}

const (
	StrikeReasonNoShow     = "NO_SHOW"
	StrikeReasonLateCancel = "LATE_CANCEL"
)

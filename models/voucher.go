package models

import "time"

// Voucher tek bir hizmete bağlı, kullanım sayısı sınırlı hediye/indirim kodu.
type Voucher struct {
	BaseModel
	Code      string `gorm:"type:varchar(40);uniqueIndex;not null"`
	ServiceID uint   `gorm:"index;not null"`
	// Kupon belirli bir müşteriye tahsis edilmişse dolu olur.
	ClientID *uint `gorm:"index"`

	AmountMinor int64     `gorm:"not null"`
	MaxUses     int       `gorm:"not null;default:1"`
	UsedCount   int       `gorm:"not null;default:0"`
	ExpiresAt   time.Time `gorm:"type:timestamptz;not null;index"`
	IsActive    bool      `gorm:"default:true;index"`
}

// Redeemable kuponun şu anda kullanılabilir olup olmadığı.
func (v *Voucher) Redeemable(now time.Time) bool {
	return v.IsActive && v.UsedCount < v.MaxUses && now.Before(v.ExpiresAt)
}

// VoucherRedemption kullanım denetim kaydı; aynı randevuya aynı kuponun iki
// kez işlenmesini unique index engeller.
type VoucherRedemption struct {
	BaseModel
	VoucherID     uint  `gorm:"index:ux_voucher_appointment,unique,priority:1;not null"`
	AppointmentID uint  `gorm:"index:ux_voucher_appointment,unique,priority:2;not null"`
	PaymentID     uint  `gorm:"index;not null"`
	AmountMinor   int64 `gorm:"not null"`
}

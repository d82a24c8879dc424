package models

import "time"

// CreditStatus müşteri kredisinin durumu.
type CreditStatus string

const (
	CreditAvailable CreditStatus = "AVAILABLE"
	CreditExhausted CreditStatus = "EXHAUSTED"
	CreditExpired   CreditStatus = "EXPIRED"
)

// CreditSource kredinin kaynağı.
type CreditSource string

const (
	CreditSourceRefund      CreditSource = "REFUND"
	CreditSourceNoShow      CreditSource = "NO_SHOW_POLICY"
	CreditSourceCancel      CreditSource = "CANCELLATION_POLICY"
	CreditSourceLatePayment CreditSource = "LATE_PAYMENT"
	CreditSourceAdmin       CreditSource = "ADMIN_ADJUSTMENT"
	CreditSourceLoyalty     CreditSource = "LOYALTY"
)

// ClientCredit müşteriye ait harcanabilir bakiye. RemainingMinor yalnızca
// satır kilidi altında azaltılır; iki eşzamanlı uygulama aynı bakiyeyi
// asla iki kez harcayamaz.
type ClientCredit struct {
	BaseModel
	ClientID uint         `gorm:"index;not null"`
	Source   CreditSource `gorm:"type:varchar(30);not null"`
	// Kredinin doğduğu ödeme (varsa), denetim izi için.
	OriginPaymentID *uint `gorm:"index"`

	OriginalMinor  int64        `gorm:"not null"`
	RemainingMinor int64        `gorm:"not null"`
	Status         CreditStatus `gorm:"type:varchar(20);not null;default:'AVAILABLE';index"`
	ExpiresAt      time.Time    `gorm:"type:timestamptz;not null;index"`
}

// Usable kredinin şu anda harcanabilir olup olmadığı.
func (c *ClientCredit) Usable(now time.Time) bool {
	return c.Status == CreditAvailable && c.RemainingMinor > 0 && now.Before(c.ExpiresAt)
}

// CreditTransaction bir kredinin bir ödemeye uygulanmasının denetim kaydı.
// Kredi koruması (conservation) bu kayıtların toplamı üzerinden doğrulanır.
type CreditTransaction struct {
	BaseModel
	CreditID     uint  `gorm:"index;not null"`
	PaymentID    uint  `gorm:"index;not null"`
	AppliedMinor int64 `gorm:"not null"`
}

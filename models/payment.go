package models

import (
	"gorm.io/datatypes"
)

// PaymentStatus ödeme durum makinesinin kapalı durum kümesi.
type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "PENDING"
	PaymentApproved       PaymentStatus = "APPROVED"
	PaymentDeclined       PaymentStatus = "DECLINED"
	PaymentPaidWithCredit PaymentStatus = "PAID_WITH_CREDIT"
	PaymentError          PaymentStatus = "ERROR"
)

// PaymentType ödemeyi tetikleyen olay.
type PaymentType string

const (
	PaymentTypeAdvance PaymentType = "ADVANCE"
	PaymentTypeFinal   PaymentType = "FINAL"
	PaymentTypeTip     PaymentType = "TIP"
)

// paymentTransitions izin verilen durum geçişleri. PENDING dışındaki tüm
// durumlar terminaldir; webhook replay'leri terminal durumda no-op olur.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:        {PaymentApproved, PaymentDeclined, PaymentPaidWithCredit, PaymentError},
	PaymentApproved:       {},
	PaymentDeclined:       {},
	PaymentPaidWithCredit: {},
	PaymentError:          {},
}

// Payment tek bir parasal işlem. ExternalRef ağ geçidindeki benzersiz
// referanstır ve webhook işleme için idempotency anahtarıdır: bir webhook
// ancak önceden açılmış bir Payment satırını mutasyona uğratabilir.
type Payment struct {
	BaseModel
	AppointmentID *uint       `gorm:"index"`
	ClientID      uint        `gorm:"index;not null"`
	Type          PaymentType `gorm:"type:varchar(20);not null;default:'ADVANCE'"`

	AmountMinor int64  `gorm:"not null"`
	Currency    string `gorm:"type:varchar(3);not null;default:'TRY'"`

	// AmountMinor içindeki bahşiş payı. Bahşişten komisyon kesilmez; onayda
	// bu pay randevunun bahşiş toplamına aktarılır.
	TipMinor int64 `gorm:"not null;default:0"`

	Status      PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ExternalRef string        `gorm:"type:varchar(64);uniqueIndex;not null"`

	// Kredi ile kapatılan kısım; AmountMinor'un tamamı krediyle karşılanırsa
	// durum PAID_WITH_CREDIT olur.
	CreditAppliedMinor int64 `gorm:"not null;default:0"`

	// Ağ geçidinden gelen ham payload, denetim için saklanır.
	RawPayload datatypes.JSON `gorm:"type:jsonb"`
}

// IsTerminal ödeme durumunun değişmez olup olmadığı.
func (p *Payment) IsTerminal() bool {
	return p.Status != PaymentPending
}

// Transition durumu geçiş tablosuna göre değiştirir.
func (p *Payment) Transition(to PaymentStatus) error {
	for _, allowed := range paymentTransitions[p.Status] {
		if allowed == to {
			p.Status = to
			return nil
		}
	}
	return &ErrInvalidTransition{Entity: "Payment", From: string(p.Status), To: string(to)}
}

// RemainingMinor krediler düşüldükten sonra ağ geçidinden beklenen tutar.
func (p *Payment) RemainingMinor() int64 {
	return p.AmountMinor - p.CreditAppliedMinor
}

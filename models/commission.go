package models

// CommissionStatus komisyon kaydının tahsilat durumu.
type CommissionStatus string

const (
	CommissionPending   CommissionStatus = "PENDING"
	CommissionPaid      CommissionStatus = "PAID"
	CommissionFailedNSF CommissionStatus = "FAILED_NSF"
)

// commissionTransitions izin verilen durum geçişleri.
var commissionTransitions = map[CommissionStatus][]CommissionStatus{
	CommissionPending:   {CommissionPaid, CommissionFailedNSF},
	CommissionPaid:      {},
	CommissionFailedNSF: {CommissionPaid},
}

// CommissionLedger onaylanan her ödeme için platform komisyon kaydı.
// PaymentID üzerindeki unique index bir ödemenin en fazla bir komisyon
// satırı üretmesini garanti eder.
type CommissionLedger struct {
	BaseModel
	PaymentID uint `gorm:"uniqueIndex;not null"`

	OwedMinor int64            `gorm:"not null"`
	PaidMinor int64            `gorm:"not null;default:0"`
	Status    CommissionStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	// Tahsilat işleminin ağ geçidi referansı.
	PayoutRef string `gorm:"type:varchar(64)"`
}

// Transition durumu geçiş tablosuna göre değiştirir.
func (c *CommissionLedger) Transition(to CommissionStatus) error {
	for _, allowed := range commissionTransitions[c.Status] {
		if allowed == to {
			c.Status = to
			return nil
		}
	}
	return &ErrInvalidTransition{Entity: "CommissionLedger", From: string(c.Status), To: string(to)}
}

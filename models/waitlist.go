package models

import "time"

// WaitlistStatus bekleme listesi kaydının durumu.
type WaitlistStatus string

const (
	WaitlistQueued    WaitlistStatus = "QUEUED"
	WaitlistOffered   WaitlistStatus = "OFFERED"
	WaitlistConfirmed WaitlistStatus = "CONFIRMED"
	WaitlistExpired   WaitlistStatus = "EXPIRED"
	WaitlistCancelled WaitlistStatus = "CANCELLED"
)

// waitlistTransitions izin verilen durum geçişleri. EXPIRED kaydı yeniden
// kuyruğa alınmaz; sıradaki QUEUED kayda teklif yapılır.
var waitlistTransitions = map[WaitlistStatus][]WaitlistStatus{
	WaitlistQueued:    {WaitlistOffered, WaitlistCancelled},
	WaitlistOffered:   {WaitlistConfirmed, WaitlistExpired},
	WaitlistConfirmed: {},
	WaitlistExpired:   {},
	WaitlistCancelled: {},
}

// WaitlistEntry bir müşterinin belirli hizmetler için tarih aralığı
// tercihli bekleme talebi. Teklifler varış sırasına göre (FIFO) yapılır.
type WaitlistEntry struct {
	BaseModel
	ClientID   uint  `gorm:"index;not null"`
	CategoryID uint  `gorm:"index;not null"`
	StaffID    *uint `gorm:"index"`
	// Virgülle ayrılmış hizmet ID listesi.
	ServiceIDs string `gorm:"type:varchar(255);not null"`

	PreferredFrom time.Time `gorm:"type:timestamptz;not null"`
	PreferredTo   time.Time `gorm:"type:timestamptz;not null"`

	Status WaitlistStatus `gorm:"type:varchar(20);not null;default:'QUEUED';index"`

	// OFFERED durumunda teklif edilen slot ve son kabul zamanı.
	OfferedStart  *time.Time `gorm:"type:timestamptz"`
	OfferedEnd    *time.Time `gorm:"type:timestamptz"`
	OfferedStaff  *uint
	OfferDeadline *time.Time `gorm:"type:timestamptz;index"`
	// Teklif kabulünde oluşan randevu.
	AppointmentID *uint `gorm:"index"`
}

// Transition durumu geçiş tablosuna göre değiştirir.
func (w *WaitlistEntry) Transition(to WaitlistStatus) error {
	for _, allowed := range waitlistTransitions[w.Status] {
		if allowed == to {
			w.Status = to
			return nil
		}
	}
	return &ErrInvalidTransition{Entity: "WaitlistEntry", From: string(w.Status), To: string(to)}
}

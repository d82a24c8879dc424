package models

import (
	"fmt"
	"time"
)

// AppointmentStatus randevu durum makinesinin kapalı durum kümesi.
type AppointmentStatus string

const (
	AppointmentPendingPayment AppointmentStatus = "PENDING_PAYMENT"
	AppointmentConfirmed      AppointmentStatus = "CONFIRMED"
	AppointmentRescheduled    AppointmentStatus = "RESCHEDULED"
	AppointmentCompleted      AppointmentStatus = "COMPLETED"
	AppointmentCancelled      AppointmentStatus = "CANCELLED"
)

// AppointmentOutcome terminal duruma geçiş sebebi.
type AppointmentOutcome string

const (
	OutcomeNone            AppointmentOutcome = ""
	OutcomeCancelledClient AppointmentOutcome = "CANCELLED_BY_CLIENT"
	OutcomeCancelledAdmin  AppointmentOutcome = "CANCELLED_BY_ADMIN"
	OutcomeCancelledSystem AppointmentOutcome = "CANCELLED_BY_SYSTEM_TIMEOUT"
	OutcomeNoShow          AppointmentOutcome = "NO_SHOW"
	OutcomeCompleted       AppointmentOutcome = "COMPLETED"
)

// appointmentTransitions izin verilen durum geçişleri. Tabloda olmayan her
// geçiş reddedilir; tüm mutasyonlar Transition üzerinden akmak zorundadır.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPendingPayment: {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed:      {AppointmentRescheduled, AppointmentCompleted, AppointmentCancelled},
	AppointmentRescheduled:    {AppointmentRescheduled, AppointmentCompleted, AppointmentCancelled},
	AppointmentCompleted:      {},
	AppointmentCancelled:      {},
}

// ErrInvalidTransition tabloda olmayan bir durum geçişi denendiğinde döner.
type ErrInvalidTransition struct {
	Entity string
	From   string
	To     string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("%s için geçersiz durum geçişi: %s -> %s", e.Entity, e.From, e.To)
}

// Appointment bir rezervasyon kaydı. Fiyat ve süre alanları rezervasyon
// anında kopyalanır ("price at purchase"), sonradan hizmet tablosundan
// yeniden hesaplanmaz.
type Appointment struct {
	BaseModel
	ClientID uint `gorm:"index;not null"`
	// Düşük gözetimli kategorilerde personel atanmaz.
	StaffID    *uint     `gorm:"index"`
	CategoryID uint      `gorm:"index;not null"`
	StartTime  time.Time `gorm:"type:timestamptz;not null;index"`
	EndTime    time.Time `gorm:"type:timestamptz;not null;index"`

	Status  AppointmentStatus  `gorm:"type:varchar(20);not null;default:'PENDING_PAYMENT';index"`
	Outcome AppointmentOutcome `gorm:"type:varchar(30);not null;default:''"`

	TotalPriceMinor int64 `gorm:"not null"`
	RescheduleCount int   `gorm:"not null;default:0"`
	// COMPLETED sonrasında eklenebilen tek mutasyon.
	TipMinor int64 `gorm:"not null;default:0"`

	Client User              `gorm:"foreignKey:ClientID"`
	Items  []AppointmentItem `gorm:"foreignKey:AppointmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// AppointmentItem randevuya dahil tek hizmet kalemi; fiyat ve süre
// rezervasyon anındaki değerdir.
type AppointmentItem struct {
	BaseModel
	AppointmentID   uint   `gorm:"index;not null"`
	ServiceID       uint   `gorm:"index;not null"`
	Name            string `gorm:"type:varchar(150);not null"`
	DurationMinutes int    `gorm:"not null"`
	PriceMinor      int64  `gorm:"not null"`
}

// IsTerminal randevunun değişmez bir duruma ulaşıp ulaşmadığı.
func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentCompleted || a.Status == AppointmentCancelled
}

// NonTerminalAppointmentStatuses müsaitlik ve çakışma sorgularında kullanılan
// "slotu işgal eden" durumlar.
var NonTerminalAppointmentStatuses = []AppointmentStatus{
	AppointmentPendingPayment,
	AppointmentConfirmed,
	AppointmentRescheduled,
}

// Transition durumu geçiş tablosuna göre değiştirir. Terminal geçişlerde
// outcome da set edilir.
func (a *Appointment) Transition(to AppointmentStatus, outcome AppointmentOutcome) error {
	for _, allowed := range appointmentTransitions[a.Status] {
		if allowed == to {
			a.Status = to
			if to == AppointmentCancelled || to == AppointmentCompleted {
				a.Outcome = outcome
			}
			return nil
		}
	}
	return &ErrInvalidTransition{Entity: "Appointment", From: string(a.Status), To: string(to)}
}

// TotalDurationMinutes kalemlerin toplam süresi. EndTime = StartTime + bu süre.
func (a *Appointment) TotalDurationMinutes() int {
	total := 0
	for _, item := range a.Items {
		total += item.DurationMinutes
	}
	return total
}

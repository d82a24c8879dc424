package models

import "gorm.io/datatypes"

// AuditEvent denetim kaydının türü.
type AuditEvent string

const (
	AuditRescheduleOverride AuditEvent = "RESCHEDULE_LIMIT_OVERRIDE"
	AuditAmountMismatch     AuditEvent = "WEBHOOK_AMOUNT_MISMATCH"
	AuditLatePaymentCredit  AuditEvent = "LATE_PAYMENT_CREDITED"
	AuditClientBlocked      AuditEvent = "CLIENT_BLOCKED"
	AuditUnexpectedWebhook  AuditEvent = "WEBHOOK_UNEXPECTED_STATE"
)

// AuditLog manuel inceleme gerektiren veya yetki istisnası içeren olayların
// kalıcı kaydı. Bütünlük hataları sessizce düzeltilmez, buraya yazılır.
type AuditLog struct {
	BaseModel
	Event   AuditEvent     `gorm:"type:varchar(40);not null;index"`
	ActorID uint           `gorm:"index"`
	// İlgili kayıt (randevu, ödeme...) serbest biçimli referans.
	EntityType string         `gorm:"type:varchar(30);not null"`
	EntityID   uint           `gorm:"index;not null"`
	Detail     datatypes.JSON `gorm:"type:jsonb"`
}

package models

// Setting anahtar/değer iş ayarı. Değerler string saklanır, snapshot
// yüklenirken parse edilir (configs/configsapp).
type Setting struct {
	BaseModel
	Key   string `gorm:"type:varchar(60);uniqueIndex;not null"`
	Value string `gorm:"type:varchar(100);not null"`
}

// Ayar anahtarları.
const (
	SettingAdvancePercent       = "advance_percent"
	SettingCommissionPercent    = "commission_percent"
	SettingBufferMinutes        = "buffer_minutes"
	SettingRescheduleLimit      = "reschedule_limit"
	SettingRescheduleMinHours   = "reschedule_min_hours"
	SettingCreditExpiryDays     = "credit_expiry_days"
	SettingNoShowPolicy         = "no_show_policy"
	SettingNoShowPartialPercent = "no_show_partial_percent"
	SettingStrikeLimit          = "strike_limit"
	SettingStrikeWindowDays     = "strike_window_days"
	SettingUnpaidTTLMinutes     = "unpaid_ttl_minutes"
	SettingWaitlistOfferMinutes = "waitlist_offer_minutes"
	SettingActiveAppointmentCap = "active_appointment_cap"
)

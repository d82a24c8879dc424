package configsapp

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Snapshot tek bir operasyon boyunca kullanılan, değişmez iş kuralı seti.
// Setting tablosundan yüklenir; her bileşen aynı snapshot'ı görür.
type Snapshot struct {
	AdvancePercent       int64  // Avans yüzdesi (ör. 30)
	CommissionPercent    int64  // Platform komisyon yüzdesi
	BufferMinutes        int    // Randevu öncesi/sonrası tampon
	RescheduleLimit      int    // Müşteri başına erteleme hakkı
	RescheduleMinHours   int    // Başlangıca en az bu kadar saat kala ertelenebilir
	CreditExpiryDays     int    // ClientCredit geçerlilik süresi
	NoShowPolicy         string // NONE | PARTIAL | FULL
	NoShowPartialPercent int64  // PARTIAL politikasında iade yüzdesi
	StrikeLimit          int    // Bu sayıda ihlalde müşteri bloklanır
	StrikeWindowDays     int    // İhlal sayma penceresi (gün)
	UnpaidTTLMinutes     int    // Ödenmemiş randevunun iptal süresi
	WaitlistOfferMinutes int    // Bekleme listesi teklifinin kabul penceresi
	ActiveAppointmentCap int    // Müşteri başına aktif randevu limiti
	LoadedAt             time.Time
}

// defaultSnapshot Setting tablosu boşken kullanılan değerler.
// Seeder aynı değerleri tabloya yazar.
func defaultSnapshot() Snapshot {
	return Snapshot{
		AdvancePercent:       30,
		CommissionPercent:    10,
		BufferMinutes:        10,
		RescheduleLimit:      2,
		RescheduleMinHours:   24,
		CreditExpiryDays:     90,
		NoShowPolicy:         "PARTIAL",
		NoShowPartialPercent: 50,
		StrikeLimit:          3,
		StrikeWindowDays:     90,
		UnpaidTTLMinutes:     30,
		WaitlistOfferMinutes: 120,
		ActiveAppointmentCap: 3,
	}
}

// DefaultSettings seeder'ın tabloya yazdığı varsayılan satırlar.
// defaultSnapshot ile aynı değerleri taşır.
func DefaultSettings() []models.Setting {
	d := defaultSnapshot()
	return []models.Setting{
		{Key: models.SettingAdvancePercent, Value: strconv.FormatInt(d.AdvancePercent, 10)},
		{Key: models.SettingCommissionPercent, Value: strconv.FormatInt(d.CommissionPercent, 10)},
		{Key: models.SettingBufferMinutes, Value: strconv.Itoa(d.BufferMinutes)},
		{Key: models.SettingRescheduleLimit, Value: strconv.Itoa(d.RescheduleLimit)},
		{Key: models.SettingRescheduleMinHours, Value: strconv.Itoa(d.RescheduleMinHours)},
		{Key: models.SettingCreditExpiryDays, Value: strconv.Itoa(d.CreditExpiryDays)},
		{Key: models.SettingNoShowPolicy, Value: d.NoShowPolicy},
		{Key: models.SettingNoShowPartialPercent, Value: strconv.FormatInt(d.NoShowPartialPercent, 10)},
		{Key: models.SettingStrikeLimit, Value: strconv.Itoa(d.StrikeLimit)},
		{Key: models.SettingStrikeWindowDays, Value: strconv.Itoa(d.StrikeWindowDays)},
		{Key: models.SettingUnpaidTTLMinutes, Value: strconv.Itoa(d.UnpaidTTLMinutes)},
		{Key: models.SettingWaitlistOfferMinutes, Value: strconv.Itoa(d.WaitlistOfferMinutes)},
		{Key: models.SettingActiveAppointmentCap, Value: strconv.Itoa(d.ActiveAppointmentCap)},
	}
}

// ISettingsProvider operasyon başına snapshot sağlar. Servisler bu arayüze bağımlıdır.
type ISettingsProvider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	Invalidate()
}

// SettingsProvider Setting tablosunu kısa TTL ile cache'leyen sağlayıcı.
// Yeni snapshot atomik olarak yayınlanır; okuyucular asla yarım state görmez.
type SettingsProvider struct {
	db      *gorm.DB
	ttl     time.Duration
	current atomic.Pointer[Snapshot]
}

// NewSettingsProvider yeni bir sağlayıcı oluşturur.
func NewSettingsProvider(db *gorm.DB, ttl time.Duration) *SettingsProvider {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SettingsProvider{db: db, ttl: ttl}
}

// Snapshot cache tazeyse onu, değilse tablodan yeniden yüklenen snapshot'ı döndürür.
func (p *SettingsProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s := p.current.Load(); s != nil && time.Since(s.LoadedAt) < p.ttl {
		return s, nil
	}
	return p.reload(ctx)
}

// Invalidate admin tarafında bir ayar değiştiğinde cache'i düşürür.
func (p *SettingsProvider) Invalidate() {
	p.current.Store(nil)
}

func (p *SettingsProvider) reload(ctx context.Context) (*Snapshot, error) {
	var rows []models.Setting
	if err := p.db.WithContext(ctx).Find(&rows).Error; err != nil {
		configslog.Log.Error("Ayarlar yüklenemedi", zap.Error(err))
		return nil, err
	}

	s := defaultSnapshot()
	for _, row := range rows {
		applySetting(&s, row.Key, row.Value)
	}
	s.LoadedAt = time.Now().UTC()

	p.current.Store(&s)
	return &s, nil
}

func applySetting(s *Snapshot, key, value string) {
	switch key {
	case models.SettingAdvancePercent:
		s.AdvancePercent = parseInt64(value, s.AdvancePercent)
	case models.SettingCommissionPercent:
		s.CommissionPercent = parseInt64(value, s.CommissionPercent)
	case models.SettingBufferMinutes:
		s.BufferMinutes = parseInt(value, s.BufferMinutes)
	case models.SettingRescheduleLimit:
		s.RescheduleLimit = parseInt(value, s.RescheduleLimit)
	case models.SettingRescheduleMinHours:
		s.RescheduleMinHours = parseInt(value, s.RescheduleMinHours)
	case models.SettingCreditExpiryDays:
		s.CreditExpiryDays = parseInt(value, s.CreditExpiryDays)
	case models.SettingNoShowPolicy:
		if value == "NONE" || value == "PARTIAL" || value == "FULL" {
			s.NoShowPolicy = value
		}
	case models.SettingNoShowPartialPercent:
		s.NoShowPartialPercent = parseInt64(value, s.NoShowPartialPercent)
	case models.SettingStrikeLimit:
		s.StrikeLimit = parseInt(value, s.StrikeLimit)
	case models.SettingStrikeWindowDays:
		s.StrikeWindowDays = parseInt(value, s.StrikeWindowDays)
	case models.SettingUnpaidTTLMinutes:
		s.UnpaidTTLMinutes = parseInt(value, s.UnpaidTTLMinutes)
	case models.SettingWaitlistOfferMinutes:
		s.WaitlistOfferMinutes = parseInt(value, s.WaitlistOfferMinutes)
	case models.SettingActiveAppointmentCap:
		s.ActiveAppointmentCap = parseInt(value, s.ActiveAppointmentCap)
	default:
		configslog.SLog.Warnf("Bilinmeyen ayar anahtarı: %s", key)
	}
}

func parseInt(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseInt64(v string, fallback int64) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rezervasyon ve mutabakat motorunun temel sayaçları.
var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zenzspa_bookings_created_total",
		Help: "Başarıyla oluşturulan randevu sayısı",
	})
	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zenzspa_booking_conflicts_total",
		Help: "Kilit altında yeniden kontrolde kaybedilen rezervasyon yarışları",
	})
	WebhooksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zenzspa_webhooks_processed_total",
		Help: "İşlenen ödeme webhook'ları, sonuca göre",
	}, []string{"result"}) // approved, declined, duplicate, mismatch, rejected
	SweepTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zenzspa_sweep_transitions_total",
		Help: "Zamanlanmış süpürmelerin yaptığı durum geçişleri",
	}, []string{"sweep"})
)

package scheduler

import (
	"context"
	"time"

	"zenzspa.app/configs/configslog"

	"go.uber.org/zap"
)

// Job sabit aralıkla çalıştırılan idempotent süpürme fonksiyonu.
// Her çalıştırma kilitli geçiş yollarını kullandığı için eşzamanlı
// kullanıcı işlemleriyle ve kendi önceki çalışmasıyla güvenle yarışır;
// çöken bir tur bir sonraki tick'te kaldığı yerden devam eder.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler job'ları kendi goroutine'lerinde ticker ile çalıştırır.
type Scheduler struct {
	jobs []Job
}

// New yeni bir Scheduler oluşturur.
func New(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

// Start tüm job'ları başlatır; ctx iptal edilince dururlar.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		go s.runLoop(ctx, job)
	}
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	configslog.SLog.Infof("Zamanlanmış görev başlatıldı: %s (aralık %s)", job.Name, job.Interval)
	for {
		select {
		case <-ctx.Done():
			configslog.SLog.Infof("Zamanlanmış görev durduruldu: %s", job.Name)
			return
		case <-ticker.C:
			if err := job.Run(ctx); err != nil {
				configslog.Log.Error("Zamanlanmış görev hatası",
					zap.String("job", job.Name), zap.Error(err))
			}
		}
	}
}

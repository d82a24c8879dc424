package services

import (
	"context"
	"time"

	"zenzspa.app/configs/configslog"
	"zenzspa.app/pkg/mq"

	"go.uber.org/zap"
)

// NotificationEvent yayınlanan olay türü; routing key olarak kullanılır.
type NotificationEvent string

const (
	EventAppointmentConfirmed NotificationEvent = "appointment.confirmed"
	EventAppointmentCancelled NotificationEvent = "appointment.cancelled"
	EventPaymentDeclined      NotificationEvent = "payment.declined"
	EventWaitlistOffer        NotificationEvent = "waitlist.offer"
	EventCreditGranted        NotificationEvent = "credit.granted"
)

// INotificationService olayları harici tüketiciler (e-posta, SMS worker'ları)
// için kuyruğa bırakır. Dispatch asla iş akışını bloklamaz veya bozmaz;
// yayın hatası yalnızca loglanır.
type INotificationService interface {
	Dispatch(ctx context.Context, event NotificationEvent, userID uint, payload map[string]any)
}

// NotificationService INotificationService arayüzünü uygular.
type NotificationService struct {
	publisher *mq.Publisher
}

// NewNotificationService yeni bir NotificationService örneği oluşturur.
// publisher nil olabilir (ör. testlerde veya AMQP yapılandırılmamışsa);
// bu durumda olaylar sessizce düşürülür.
func NewNotificationService(publisher *mq.Publisher) INotificationService {
	return &NotificationService{publisher: publisher}
}

func (s *NotificationService) Dispatch(ctx context.Context, event NotificationEvent, userID uint, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	body := map[string]any{
		"event":       string(event),
		"user_id":     userID,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
		"data":        payload,
	}
	if err := s.publisher.PublishJSON(ctx, string(event), body); err != nil {
		configslog.Log.Error("Bildirim olayı yayınlanamadı",
			zap.String("event", string(event)), zap.Uint("userID", userID), zap.Error(err))
	}
}

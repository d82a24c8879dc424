package handlers

import (
	"strconv"
	"time"

	"zenzspa.app/middlewares"
	"zenzspa.app/pkg/queryparams"
	"zenzspa.app/services"

	"github.com/gofiber/fiber/v2"
)

// AppointmentHandler randevu yaşam döngüsü uçları için handler.
type AppointmentHandler struct {
	service  services.IAppointmentService
	payments services.IPaymentService
}

// NewAppointmentHandler yeni bir AppointmentHandler örneği oluşturur.
func NewAppointmentHandler(service services.IAppointmentService, payments services.IPaymentService) *AppointmentHandler {
	return &AppointmentHandler{service: service, payments: payments}
}

type createAppointmentRequest struct {
	StaffID    *uint     `json:"staff_id"`
	ServiceIDs []uint    `json:"service_ids"`
	Start      time.Time `json:"start"`
}

// Create yeni randevu oluşturur. Idempotency-Key başlığı ile tekrar
// edilen istekler ilk yanıtı alır.
// POST /api/appointments
func (h *AppointmentHandler) Create(c *fiber.Ctx) error {
	var req createAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "geçersiz istek gövdesi"})
	}

	result, err := h.service.Create(c.UserContext(), services.CreateAppointmentInput{
		ClientID:       middlewares.CurrentUserID(c),
		StaffID:        req.StaffID,
		ServiceIDs:     req.ServiceIDs,
		Start:          req.Start,
		IdempotencyKey: c.Get("Idempotency-Key"),
	})
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusCreated
	if result.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(result)
}

// List randevuları sayfalı listeler.
// GET /api/appointments?page=1&per_page=20&sort_by=start_time&order_by=desc
func (h *AppointmentHandler) List(c *fiber.Ctx) error {
	var params queryparams.ListParams
	if err := c.QueryParser(&params); err != nil {
		params = queryparams.ListParams{}
	}
	result, err := h.service.List(c.UserContext(), middlewares.CurrentUserID(c), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// Get randevu detayını döndürür.
// GET /api/appointments/:id
func (h *AppointmentHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	appointment, err := h.service.GetByID(c.UserContext(), id, middlewares.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appointment)
}

type rescheduleRequest struct {
	Start    time.Time `json:"start"`
	Override bool      `json:"override"`
}

// Reschedule randevuyu yeni slota taşır.
// POST /api/appointments/:id/reschedule
func (h *AppointmentHandler) Reschedule(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	var req rescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "geçersiz istek gövdesi"})
	}
	appointment, err := h.service.Reschedule(c.UserContext(), id, middlewares.CurrentUserID(c), req.Start, req.Override)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appointment)
}

// Cancel randevuyu iptal eder.
// POST /api/appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	appointment, err := h.service.Cancel(c.UserContext(), id, middlewares.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appointment)
}

// Complete randevuyu tamamlar (personel).
// POST /api/appointments/:id/complete
func (h *AppointmentHandler) Complete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	appointment, err := h.service.Complete(c.UserContext(), id, middlewares.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appointment)
}

// NoShow müşteri gelmedi kaydı açar (personel).
// POST /api/appointments/:id/no-show
func (h *AppointmentHandler) NoShow(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	appointment, err := h.service.NoShow(c.UserContext(), id, middlewares.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appointment)
}

type collectRequest struct {
	TipMinor int64 `json:"tip_minor"`
}

// CollectBalance kalan bakiye (+ bahşiş) için ödeme oturumu açar.
// POST /api/appointments/:id/collect
func (h *AppointmentHandler) CollectBalance(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	var req collectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "geçersiz istek gövdesi"})
	}
	result, err := h.payments.CollectBalance(c.UserContext(), id, middlewares.CurrentUserID(c), req.TipMinor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// paramID :id path parametresini çözer; geçersizse 400 yanıtını yazar.
func paramID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "geçersiz kayıt ID"})
		return 0, false
	}
	return uint(id), true
}

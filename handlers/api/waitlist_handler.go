package handlers

import (
	"time"

	"zenzspa.app/middlewares"
	"zenzspa.app/services"

	"github.com/gofiber/fiber/v2"
)

// WaitlistHandler bekleme listesi uçları için handler.
type WaitlistHandler struct {
	service services.IWaitlistService
}

// NewWaitlistHandler yeni bir WaitlistHandler örneği oluşturur.
func NewWaitlistHandler(service services.IWaitlistService) *WaitlistHandler {
	return &WaitlistHandler{service: service}
}

type joinWaitlistRequest struct {
	ServiceIDs    []uint    `json:"service_ids"`
	StaffID       *uint     `json:"staff_id"`
	PreferredFrom time.Time `json:"preferred_from"`
	PreferredTo   time.Time `json:"preferred_to"`
}

// Join müşteriyi bekleme listesine ekler.
// POST /api/waitlist
func (h *WaitlistHandler) Join(c *fiber.Ctx) error {
	var req joinWaitlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "geçersiz istek gövdesi"})
	}
	entry, err := h.service.Join(c.UserContext(), services.JoinWaitlistInput{
		ClientID:      middlewares.CurrentUserID(c),
		ServiceIDs:    req.ServiceIDs,
		StaffID:       req.StaffID,
		PreferredFrom: req.PreferredFrom,
		PreferredTo:   req.PreferredTo,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// List müşterinin bekleme listesi kayıtlarını döndürür.
// GET /api/waitlist
func (h *WaitlistHandler) List(c *fiber.Ctx) error {
	entries, err := h.service.ListByClient(c.UserContext(), middlewares.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}

// Accept aktif teklifi kabul eder ve randevu oluşturur.
// POST /api/waitlist/:id/accept
func (h *WaitlistHandler) Accept(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	result, err := h.service.AcceptOffer(c.UserContext(), id, middlewares.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Decline teklifi reddeder veya kuyruktaki kaydı iptal eder.
// POST /api/waitlist/:id/decline
func (h *WaitlistHandler) Decline(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	if err := h.service.DeclineOffer(c.UserContext(), id, middlewares.CurrentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

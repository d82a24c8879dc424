package handlers

import (
	"strconv"
	"strings"
	"time"

	"zenzspa.app/services"

	"github.com/gofiber/fiber/v2"
)

// AvailabilityHandler müsaitlik sorguları için handler.
type AvailabilityHandler struct {
	service services.IAvailabilityService
}

// NewAvailabilityHandler yeni bir AvailabilityHandler örneği oluşturur.
func NewAvailabilityHandler(service services.IAvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// GetSlots belirtilen gün ve hizmetler için müsait slotları döndürür.
// GET /api/availability?date=2026-09-01&service_ids=1,2&staff_id=5
func (h *AvailabilityHandler) GetSlots(c *fiber.Ctx) error {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date parametresi YYYY-MM-DD biçiminde olmalıdır"})
	}
	serviceIDs, err := parseUintList(c.Query("service_ids"))
	if err != nil || len(serviceIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "service_ids parametresi zorunludur"})
	}

	var staffFilter *uint
	if raw := c.Query("staff_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "staff_id geçersiz"})
		}
		staffID := uint(id)
		staffFilter = &staffID
	}

	slots, err := h.service.ComputeSlots(c.UserContext(), serviceIDs, date, staffFilter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"date": c.Query("date"), "slots": slots})
}

func parseUintList(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

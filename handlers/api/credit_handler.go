package handlers

import (
	"zenzspa.app/middlewares"
	"zenzspa.app/services"

	"github.com/gofiber/fiber/v2"
)

// CreditHandler kredi ve kupon sorgu uçları için handler.
type CreditHandler struct {
	service services.ICreditService
}

// NewCreditHandler yeni bir CreditHandler örneği oluşturur.
func NewCreditHandler(service services.ICreditService) *CreditHandler {
	return &CreditHandler{service: service}
}

// List müşterinin kredilerini döndürür.
// GET /api/credits
func (h *CreditHandler) List(c *fiber.Ctx) error {
	credits, err := h.service.ListByClient(c.UserContext(), middlewares.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	balance, err := h.service.BalanceMinor(c.UserContext(), middlewares.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"balance_minor": balance, "credits": credits})
}

// ValidateVoucher kupon kodunu doğrular, koşulları döndürür.
// GET /api/vouchers/:code
func (h *CreditHandler) ValidateVoucher(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "kupon kodu zorunludur"})
	}
	info, err := h.service.ValidateVoucher(c.UserContext(), code, middlewares.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

type grantCreditRequest struct {
	ClientID    uint  `json:"client_id"`
	AmountMinor int64 `json:"amount_minor"`
}

// GrantCredit admin eliyle kredi tanımlar.
// POST /api/admin/credits
func (h *CreditHandler) GrantCredit(c *fiber.Ctx) error {
	var req grantCreditRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "geçersiz istek gövdesi"})
	}
	credit, err := h.service.GrantCredit(c.UserContext(), middlewares.CurrentUserID(c), req.ClientID, req.AmountMinor)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(credit)
}

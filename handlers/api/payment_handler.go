package handlers

import (
	"zenzspa.app/middlewares"
	"zenzspa.app/services"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler ödeme uçları ve ağ geçidi webhook'u için handler.
type PaymentHandler struct {
	service services.IPaymentService
}

// NewPaymentHandler yeni bir PaymentHandler örneği oluşturur.
func NewPaymentHandler(service services.IPaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Webhook ağ geçidi bildirimini işler. İmza HAM gövde üzerinden doğrulanır;
// bu uç kimlik doğrulama middleware'inin arkasında DEĞİLDİR.
// POST /webhooks/gateway
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	signature := c.Get("X-Gateway-Signature")
	if signature == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "imza başlığı eksik"})
	}

	// c.Body() fiber'ın iç buffer'ına işaret eder; servis kopyasını saklar.
	raw := make([]byte, len(c.Body()))
	copy(raw, c.Body())

	if err := h.service.HandleWebhook(c.UserContext(), raw, signature); err != nil {
		switch err {
		case services.ErrWebhookBadSignature:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		case services.ErrWebhookBadPayload, services.ErrWebhookUnknownRef:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			// Geçici hata: ağ geçidi 5xx görür ve tekrar dener.
			return respondError(c, err)
		}
	}
	return c.SendStatus(fiber.StatusOK)
}

// StartCheckout bekleyen ödeme için ağ geçidi oturumu açar.
// POST /api/payments/:id/checkout
func (h *PaymentHandler) StartCheckout(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	result, err := h.service.StartCheckout(c.UserContext(), id, middlewares.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ApplyCredit kullanılabilir kredileri bekleyen ödemeye uygular.
// POST /api/payments/:id/apply-credit
func (h *PaymentHandler) ApplyCredit(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	payment, err := h.service.ApplyCredit(c.UserContext(), id, middlewares.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payment)
}

type applyVoucherRequest struct {
	Code string `json:"code"`
}

// ApplyVoucher kuponu bekleyen ödemeye uygular.
// POST /api/payments/:id/apply-voucher
func (h *PaymentHandler) ApplyVoucher(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	var req applyVoucherRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "kupon kodu zorunludur"})
	}
	payment, err := h.service.ApplyVoucher(c.UserContext(), id, middlewares.CurrentUserID(c), req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payment)
}

type payCommissionRequest struct {
	PayoutRef string `json:"payout_ref"`
	NSF       bool   `json:"nsf"`
}

// PayCommission komisyon satırını kapatır (admin).
// POST /api/admin/commissions/:id/pay  (:id ödeme ID'sidir)
func (h *PaymentHandler) PayCommission(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	var req payCommissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "geçersiz istek gövdesi"})
	}
	ledger, err := h.service.MarkCommissionPaid(c.UserContext(), id, req.PayoutRef, req.NSF)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ledger)
}

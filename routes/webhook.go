package routes

import (
	api_handlers "zenzspa.app/handlers/api"

	"github.com/gofiber/fiber/v2"
)

// registerWebhookRoutes /webhooks altındaki rotaları tanımlar. Bu uçlar
// kimlik doğrulama middleware'inin ARKASINDA DEĞİLDİR; doğrulama ham gövde
// üzerindeki HMAC imzasıyla yapılır.
func registerWebhookRoutes(app *fiber.App, deps Deps) {
	paymentHandler := api_handlers.NewPaymentHandler(deps.Payments)

	app.Post("/webhooks/gateway", paymentHandler.Webhook) // POST /webhooks/gateway
}

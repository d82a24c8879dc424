package routes

import (
	api_handlers "zenzspa.app/handlers/api"
	"zenzspa.app/middlewares"

	"github.com/gofiber/fiber/v2"
)

// registerAPIRoutes /api altındaki rotaları ve middleware'leri tanımlar.
func registerAPIRoutes(app *fiber.App, deps Deps) {
	// Handler instance'larını başta oluştur
	availabilityHandler := api_handlers.NewAvailabilityHandler(deps.Availability)
	appointmentHandler := api_handlers.NewAppointmentHandler(deps.Appointments, deps.Payments)
	paymentHandler := api_handlers.NewPaymentHandler(deps.Payments)
	waitlistHandler := api_handlers.NewWaitlistHandler(deps.Waitlist)
	creditHandler := api_handlers.NewCreditHandler(deps.Credits)

	// /api grubu oluştur ve kimlik doğrulamayı uygula
	apiGroup := app.Group("/api")
	apiGroup.Use(middlewares.AuthMiddleware)

	// --- Müsaitlik ---
	apiGroup.Get("/availability", availabilityHandler.GetSlots) // GET /api/availability

	// --- Randevular ---
	apiGroup.Post("/appointments", appointmentHandler.Create)                     // POST /api/appointments
	apiGroup.Get("/appointments", appointmentHandler.List)                        // GET /api/appointments
	apiGroup.Get("/appointments/:id", appointmentHandler.Get)                     // GET /api/appointments/{id}
	apiGroup.Post("/appointments/:id/reschedule", appointmentHandler.Reschedule)  // POST /api/appointments/{id}/reschedule
	apiGroup.Post("/appointments/:id/cancel", appointmentHandler.Cancel)          // POST /api/appointments/{id}/cancel
	apiGroup.Post("/appointments/:id/collect", appointmentHandler.CollectBalance) // POST /api/appointments/{id}/collect

	// --- Randevular (personel) ---
	staffGroup := apiGroup.Group("", middlewares.RequireStaff())
	staffGroup.Post("/appointments/:id/complete", appointmentHandler.Complete) // POST /api/appointments/{id}/complete
	staffGroup.Post("/appointments/:id/no-show", appointmentHandler.NoShow)    // POST /api/appointments/{id}/no-show

	// --- Ödemeler ---
	apiGroup.Post("/payments/:id/checkout", paymentHandler.StartCheckout)    // POST /api/payments/{id}/checkout
	apiGroup.Post("/payments/:id/apply-credit", paymentHandler.ApplyCredit)  // POST /api/payments/{id}/apply-credit
	apiGroup.Post("/payments/:id/apply-voucher", paymentHandler.ApplyVoucher) // POST /api/payments/{id}/apply-voucher

	// --- Bekleme Listesi ---
	apiGroup.Post("/waitlist", waitlistHandler.Join)                // POST /api/waitlist
	apiGroup.Get("/waitlist", waitlistHandler.List)                 // GET /api/waitlist
	apiGroup.Post("/waitlist/:id/accept", waitlistHandler.Accept)   // POST /api/waitlist/{id}/accept
	apiGroup.Post("/waitlist/:id/decline", waitlistHandler.Decline) // POST /api/waitlist/{id}/decline

	// --- Krediler ve Kuponlar ---
	apiGroup.Get("/credits", creditHandler.List)                    // GET /api/credits
	apiGroup.Get("/vouchers/:code", creditHandler.ValidateVoucher)  // GET /api/vouchers/{code}

	// --- Admin ---
	adminGroup := apiGroup.Group("/admin", middlewares.RequireAdmin())
	adminGroup.Post("/credits", creditHandler.GrantCredit)              // POST /api/admin/credits
	adminGroup.Post("/commissions/:id/pay", paymentHandler.PayCommission) // POST /api/admin/commissions/{id}/pay
}

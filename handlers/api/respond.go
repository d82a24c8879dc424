package handlers // handlers/api paketi

import (
	"errors"

	"zenzspa.app/configs/configslog"
	"zenzspa.app/models"
	"zenzspa.app/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusForError servis hatalarını HTTP durum kodlarına eşler. Eşleşmeyen
// her hata 500 olarak loglanır; iç detay istemciye sızdırılmaz.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrApptNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrWaitlistNotFound),
		errors.Is(err, services.ErrVoucherNotFound),
		errors.Is(err, services.ErrCommissionNotFound):
		return fiber.StatusNotFound

	case errors.Is(err, services.ErrApptForbidden),
		errors.Is(err, services.ErrPaymentForbidden),
		errors.Is(err, services.ErrWaitlistForbidden),
		errors.Is(err, services.ErrCreditForbidden):
		return fiber.StatusForbidden

	case errors.Is(err, services.ErrApptSlotConflict),
		errors.Is(err, services.ErrApptCapacityFull),
		errors.Is(err, services.ErrWaitlistSlotTaken),
		errors.Is(err, services.ErrIdemInProgress):
		return fiber.StatusConflict

	case errors.Is(err, services.ErrIdemMismatch):
		return fiber.StatusUnprocessableEntity

	case errors.Is(err, services.ErrApptClientBlocked),
		errors.Is(err, services.ErrApptClientDebt),
		errors.Is(err, services.ErrApptActiveCap),
		errors.Is(err, services.ErrApptRescheduleWindow),
		errors.Is(err, services.ErrApptRescheduleLimit),
		errors.Is(err, services.ErrApptNotCancellable),
		errors.Is(err, services.ErrApptTerminal),
		errors.Is(err, services.ErrApptBalanceDue),
		errors.Is(err, services.ErrApptNotStarted),
		errors.Is(err, services.ErrPaymentNotPending),
		errors.Is(err, services.ErrVoucherNotUsable),
		errors.Is(err, services.ErrVoucherWrongService),
		errors.Is(err, services.ErrVoucherWrongClient),
		errors.Is(err, services.ErrWaitlistNoOffer),
		errors.Is(err, services.ErrWaitlistOfferExpired),
		errors.Is(err, services.ErrNoBalanceDue):
		return fiber.StatusUnprocessableEntity

	case errors.Is(err, services.ErrApptInvalidInput),
		errors.Is(err, services.ErrApptPastStart),
		errors.Is(err, services.ErrApptStaffRequired),
		errors.Is(err, services.ErrApptStaffInvalid),
		errors.Is(err, services.ErrWaitlistInvalidInput),
		errors.Is(err, services.ErrCreditInvalidInput),
		errors.Is(err, services.ErrAvailInvalidInput),
		errors.Is(err, services.ErrAvailUnknownServices),
		errors.Is(err, services.ErrAvailMixedCategories):
		return fiber.StatusBadRequest
	}

	var transition *models.ErrInvalidTransition
	if errors.As(err, &transition) {
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

// respondError hatayı JSON gövdesiyle döndürür.
func respondError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		configslog.Log.Error("İşlenmeyen servis hatası",
			zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"error": "beklenmeyen bir hata oluştu"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

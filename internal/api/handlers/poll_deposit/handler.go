package poll_deposit

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
	"github.com/m04kA/SMC-RentalService/internal/worker/depositpoller"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgNotFound         = "бронирование не найдено"
	msgForbidden        = "доступ запрещен"
)

type Handler struct {
	service BookingService
	poller  DepositPoller
	logger  Logger
}

func NewHandler(service BookingService, poller DepositPoller, logger Logger) *Handler {
	return &Handler{
		service: service,
		poller:  poller,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/deposit/poll
// 200 - депозит получил окончательный статус, 202 - провайдер еще не ответил окончательно.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w)
		return
	}

	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/deposit/poll - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	// Проверяем доступ к бронированию
	if _, err := h.service.GetByID(r.Context(), actor, bookingID); err != nil {
		h.respondServiceError(w, bookingID, err)
		return
	}

	booking, err := h.poller.Poll(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, depositpoller.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, depositpoller.ErrPaymentTimeout), errors.Is(err, depositpoller.ErrAlreadyPolling):
			h.logger.Info("POST /bookings/{id}/deposit/poll - Deposit still pending: booking_id=%d, reason=%v", bookingID, err)
			current, err := h.service.GetByID(r.Context(), actor, bookingID)
			if err != nil {
				h.respondServiceError(w, bookingID, err)
				return
			}
			handlers.RespondJSON(w, http.StatusAccepted, current)

		default:
			h.logger.Error("POST /bookings/{id}/deposit/poll - Failed: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/deposit/poll - Deposit status %s: booking_id=%d", booking.DepositStatus, bookingID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBooking(booking))
}

func (h *Handler) respondServiceError(w http.ResponseWriter, bookingID int64, err error) {
	switch {
	case errors.Is(err, bookings.ErrBookingNotFound):
		h.logger.Warn("POST /bookings/{id}/deposit/poll - Booking not found: booking_id=%d", bookingID)
		handlers.RespondNotFound(w, msgNotFound)

	case errors.Is(err, bookings.ErrAccessDenied):
		h.logger.Warn("POST /bookings/{id}/deposit/poll - Access denied: booking_id=%d", bookingID)
		handlers.RespondForbidden(w, msgForbidden)

	default:
		h.logger.Error("POST /bookings/{id}/deposit/poll - Failed to load booking: booking_id=%d, error=%v", bookingID, err)
		handlers.RespondInternalError(w)
	}
}

package confirm_deposit

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
	confirmDeposit "github.com/m04kA/SMC-RentalService/internal/usecase/confirm_deposit"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidStatus      = "статус должен быть PAID или FAILED"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "доступ запрещен"
	msgPaymentMismatch    = "платеж не относится к этому бронированию"
	msgInvalidTransition  = "депозит бронирования уже обработан"
	msgTimeout            = "подтверждение не успело завершиться, статус будет сверен автоматически"
)

type Handler struct {
	useCase ConfirmDepositUseCase
	logger  Logger
}

func NewHandler(useCase ConfirmDepositUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/deposit
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w)
		return
	}

	if !actor.IsStaff() {
		h.logger.Warn("POST /bookings/{id}/deposit - Access denied for renter: actor=%d", actor.ID)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/deposit - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req ConfirmDepositRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/deposit - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	ucReq := req.ToUseCaseRequest(bookingID, actor, time.Now())
	if !ucReq.Outcome.Status.IsTerminal() {
		h.logger.Warn("POST /bookings/{id}/deposit - Non-terminal status %q: booking_id=%d", req.Status, bookingID)
		handlers.RespondBadRequest(w, msgInvalidStatus)
		return
	}

	result, err := h.useCase.Execute(r.Context(), ucReq)
	if err != nil {
		switch {
		case errors.Is(err, confirmDeposit.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/deposit - Invalid input: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidStatus)

		case errors.Is(err, confirmDeposit.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/deposit - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, confirmDeposit.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/deposit - Access denied: booking_id=%d, actor=%d", bookingID, actor.ID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, confirmDeposit.ErrPaymentMismatch):
			h.logger.Warn("POST /bookings/{id}/deposit - Payment mismatch: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgPaymentMismatch)

		case errors.Is(err, confirmDeposit.ErrInvalidTransition):
			h.logger.Warn("POST /bookings/{id}/deposit - Invalid transition: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondConflict(w, msgInvalidTransition)

		case errors.Is(err, confirmDeposit.ErrPaymentTimeout):
			h.logger.Warn("POST /bookings/{id}/deposit - Timeout: booking_id=%d", bookingID)
			handlers.RespondError(w, http.StatusGatewayTimeout, msgTimeout)

		default:
			h.logger.Error("POST /bookings/{id}/deposit - Failed: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/deposit - Deposit %s by staff: booking_id=%d, actor=%d, applied=%t",
		ucReq.Outcome.Status, bookingID, actor.ID, result.Applied)
	handlers.RespondJSON(w, http.StatusOK, ConfirmDepositResponse{
		Applied: result.Applied,
		Booking: models.FromDomainBooking(result.Booking),
	})
}

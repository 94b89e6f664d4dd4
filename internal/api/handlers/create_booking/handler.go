package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidInput        = "некорректные данные бронирования"
	msgInvalidWindow       = "некорректное окно аренды"
	msgIncompleteRateCard  = "для машины не задан полный тариф"
	msgInvalidPromotion    = "промокод недействителен"
	msgVehicleNotFound     = "машина не найдена"
	msgVehicleNotAtStation = "машина не приписана к выбранной станции"
	msgRenterNotFound      = "арендатор не найден"
	msgVehicleUnavailable  = "машина недоступна в выбранное время, выберите другое окно"
	msgForbidden           = "доступ запрещен"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(actor))
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrVehicleUnavailable):
			h.logger.Warn("POST /bookings - Vehicle unavailable: vehicle_id=%d, actor=%d", req.VehicleID, actor.ID)
			handlers.RespondConflict(w, msgVehicleUnavailable)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: actor=%d, error=%v", actor.ID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, createBooking.ErrInvalidWindow):
			h.logger.Warn("POST /bookings - Invalid window: actor=%d, error=%v", actor.ID, err)
			handlers.RespondBadRequest(w, msgInvalidWindow)

		case errors.Is(err, createBooking.ErrIncompleteRateCard):
			h.logger.Warn("POST /bookings - Incomplete rate card: vehicle_id=%d", req.VehicleID)
			handlers.RespondBadRequest(w, msgIncompleteRateCard)

		case errors.Is(err, createBooking.ErrInvalidPromotion):
			h.logger.Warn("POST /bookings - Invalid promotion: actor=%d, error=%v", actor.ID, err)
			handlers.RespondBadRequest(w, msgInvalidPromotion)

		case errors.Is(err, createBooking.ErrVehicleNotAtStation):
			h.logger.Warn("POST /bookings - Vehicle not at station: vehicle_id=%d", req.VehicleID)
			handlers.RespondBadRequest(w, msgVehicleNotAtStation)

		case errors.Is(err, createBooking.ErrVehicleNotFound):
			h.logger.Warn("POST /bookings - Vehicle not found: vehicle_id=%d", req.VehicleID)
			handlers.RespondNotFound(w, msgVehicleNotFound)

		case errors.Is(err, createBooking.ErrRenterNotFound):
			h.logger.Warn("POST /bookings - Renter not found: actor=%d", actor.ID)
			handlers.RespondNotFound(w, msgRenterNotFound)

		case errors.Is(err, createBooking.ErrAccessDenied):
			h.logger.Warn("POST /bookings - Access denied: actor=%d, vehicle_id=%d", actor.ID, req.VehicleID)
			handlers.RespondForbidden(w, msgForbidden)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: actor=%d, vehicle_id=%d, error=%v",
				actor.ID, req.VehicleID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, vehicle_id=%d, actor=%d",
		result.Booking.ID, result.Booking.VehicleID, actor.ID)
	handlers.RespondJSON(w, http.StatusCreated, models.FromDomainBooking(result.Booking))
}

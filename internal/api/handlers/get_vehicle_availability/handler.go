package get_vehicle_availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	getAvailability "github.com/m04kA/SMC-RentalService/internal/usecase/get_vehicle_availability"
)

const (
	msgInvalidVehicleID = "некорректный ID машины"
	msgInvalidWindow    = "некорректное окно поиска, ожидаются start и end в формате RFC3339"
	msgVehicleNotFound  = "машина не найдена"
)

type Handler struct {
	useCase GetVehicleAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetVehicleAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/vehicles/{vehicleId}/availability?start=&end=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := handlers.PathInt64(r, "vehicleId")
	if err != nil {
		h.logger.Warn("GET /vehicles/{id}/availability - Invalid vehicle ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidVehicleID)
		return
	}

	start, errStart := handlers.QueryTime(r, "start")
	end, errEnd := handlers.QueryTime(r, "end")
	if errStart != nil || errEnd != nil || start == nil || end == nil {
		h.logger.Warn("GET /vehicles/{id}/availability - Invalid window: vehicle_id=%d", vehicleID)
		handlers.RespondBadRequest(w, msgInvalidWindow)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailability.Request{
		VehicleID: vehicleID,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrInvalidWindow), errors.Is(err, getAvailability.ErrInvalidInput):
			h.logger.Warn("GET /vehicles/{id}/availability - Invalid window: vehicle_id=%d, error=%v", vehicleID, err)
			handlers.RespondBadRequest(w, msgInvalidWindow)

		case errors.Is(err, getAvailability.ErrVehicleNotFound):
			h.logger.Warn("GET /vehicles/{id}/availability - Vehicle not found: vehicle_id=%d", vehicleID)
			handlers.RespondNotFound(w, msgVehicleNotFound)

		default:
			h.logger.Error("GET /vehicles/{id}/availability - Failed: vehicle_id=%d, error=%v", vehicleID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /vehicles/{id}/availability - vehicle_id=%d, window=[%s, %s), available=%t",
		vehicleID, start.Format(time.RFC3339), end.Format(time.RFC3339), result.Available)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

package list_bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
)

const (
	msgInvalidFilter = "некорректные параметры фильтра"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings?renterId=&vehicleId=&stationId=&status=&from=&to=&limit=&offset=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w)
		return
	}

	req, err := parseFilter(r)
	if err != nil {
		h.logger.Warn("GET /bookings - Invalid filter: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFilter)
		return
	}

	result, err := h.service.List(r.Context(), actor, req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /bookings - Invalid filter: actor=%d, error=%v", actor.ID, err)
			handlers.RespondBadRequest(w, msgInvalidFilter)

		default:
			h.logger.Error("GET /bookings - Failed to list bookings: actor=%d, error=%v", actor.ID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func parseFilter(r *http.Request) (*models.ListBookingsRequest, error) {
	var (
		req models.ListBookingsRequest
		err error
	)

	if req.RenterID, err = handlers.QueryInt64(r, "renterId"); err != nil {
		return nil, err
	}
	if req.VehicleID, err = handlers.QueryInt64(r, "vehicleId"); err != nil {
		return nil, err
	}
	if req.StationID, err = handlers.QueryInt64(r, "stationId"); err != nil {
		return nil, err
	}
	if req.From, err = handlers.QueryTime(r, "from"); err != nil {
		return nil, err
	}
	if req.To, err = handlers.QueryTime(r, "to"); err != nil {
		return nil, err
	}

	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		req.Status = &status
	}
	if raw := q.Get("limit"); raw != "" {
		if req.Limit, err = strconv.Atoi(raw); err != nil {
			return nil, err
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if req.Offset, err = strconv.Atoi(raw); err != nil {
			return nil, err
		}
	}

	return &req, nil
}

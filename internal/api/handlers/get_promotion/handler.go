package get_promotion

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/service/promotions"
)

const (
	msgNotFound = "промо-акция не найдена"
)

type Handler struct {
	service PromotionService
	logger  Logger
}

func NewHandler(service PromotionService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/promotions/{code}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w)
		return
	}

	code := mux.Vars(r)["code"]

	promo, err := h.service.GetByCode(r.Context(), actor, code)
	if err != nil {
		switch {
		case errors.Is(err, promotions.ErrPromotionNotFound):
			h.logger.Warn("GET /promotions/{code} - Promotion not found: code=%q", code)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /promotions/{code} - Failed: code=%q, error=%v", code, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, promo)
}

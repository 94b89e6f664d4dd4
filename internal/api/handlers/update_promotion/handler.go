package update_promotion

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/service/promotions"
)

const (
	msgInvalidPromotionID = "некорректный ID промо-акции"
	msgInvalidRequestBody = "некорректное тело запроса, ожидается {\"isActive\": bool}"
	msgNotFound           = "промо-акция не найдена"
	msgForbidden          = "доступ запрещен"
)

// UpdatePromotionRequest включение или выключение промо-акции
type UpdatePromotionRequest struct {
	IsActive *bool `json:"isActive"`
}

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

// Handle PATCH /api/v1/promotions/{promotionId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w)
		return
	}

	id, err := handlers.PathInt64(r, "promotionId")
	if err != nil {
		h.logger.Warn("PATCH /promotions/{id} - Invalid promotion ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPromotionID)
		return
	}

	var req UpdatePromotionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil || req.IsActive == nil {
		h.logger.Warn("PATCH /promotions/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	promo, err := h.service.SetActive(r.Context(), actor, id, *req.IsActive)
	if err != nil {
		switch {
		case errors.Is(err, promotions.ErrAccessDenied):
			h.logger.Warn("PATCH /promotions/{id} - Access denied: actor=%d", actor.ID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, promotions.ErrPromotionNotFound):
			h.logger.Warn("PATCH /promotions/{id} - Promotion not found: id=%d", id)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("PATCH /promotions/{id} - Failed: id=%d, error=%v", id, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /promotions/{id} - Promotion id=%d active=%t", id, promo.IsActive)
	handlers.RespondJSON(w, http.StatusOK, promo)
}

package create_promotion

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/service/promotions"
	"github.com/m04kA/SMC-RentalService/internal/service/promotions/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidPromotion   = "некорректные параметры промо-акции"
	msgAlreadyExists      = "промо-акция с таким кодом уже существует"
	msgForbidden          = "доступ запрещен"
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

// Handle POST /api/v1/promotions
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w)
		return
	}

	var req models.CreatePromotionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /promotions - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	promo, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, promotions.ErrAccessDenied):
			h.logger.Warn("POST /promotions - Access denied: actor=%d", actor.ID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, promotions.ErrInvalidInput):
			h.logger.Warn("POST /promotions - Invalid promotion: %v", err)
			handlers.RespondBadRequest(w, msgInvalidPromotion)

		case errors.Is(err, promotions.ErrPromotionExists):
			h.logger.Warn("POST /promotions - Code already exists: code=%q", req.Code)
			handlers.RespondConflict(w, msgAlreadyExists)

		default:
			h.logger.Error("POST /promotions - Failed to create promotion: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /promotions - Promotion created: id=%d, code=%s", promo.ID, promo.Code)
	handlers.RespondJSON(w, http.StatusCreated, promo)
}

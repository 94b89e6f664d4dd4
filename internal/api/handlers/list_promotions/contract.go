package list_promotions

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/promotions/models"
)

type PromotionService interface {
	List(ctx context.Context, actor *domain.Actor, activeOnly bool) (*models.PromotionListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

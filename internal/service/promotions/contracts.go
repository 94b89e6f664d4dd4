package promotions

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// PromotionRepository интерфейс репозитория промо-акций
type PromotionRepository interface {
	Create(ctx context.Context, p *domain.Promotion) (*domain.Promotion, error)
	GetByCode(ctx context.Context, code string) (*domain.Promotion, error)
	GetByID(ctx context.Context, id int64) (*domain.Promotion, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Promotion, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// ReservationStore хранилище резервов
// Reserve должен атомарно проверять пересечение и вставлять резерв.
type ReservationStore interface {
	Reserve(ctx context.Context, vehicleID int64, start, end time.Time) (*domain.Reservation, error)
	Release(ctx context.Context, token uuid.UUID) error
	FindOverlapping(ctx context.Context, vehicleID int64, start, end time.Time) ([]domain.Reservation, error)
}

// Metrics счётчики конфликтов резервирования
type Metrics interface {
	IncReservationConflict()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

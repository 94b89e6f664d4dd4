package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateState(ctx context.Context, id int64, upd domain.StateUpdate) error
}

// ReservationReleaser освобождает резерв машины
type ReservationReleaser interface {
	Release(ctx context.Context, token uuid.UUID) error
}

// Refunder возвращает депозит через платёжного провайдера
// Повторный вызов для того же бронирования не должен создавать второй возврат.
type Refunder interface {
	RefundDeposit(ctx context.Context, bookingID int64, paymentRef string, amount int64) error
	// CancelDeposit отменяет ещё не оплаченный платёж
	CancelDeposit(ctx context.Context, bookingID int64, paymentRef string) error
}

// TransactionManager интерфейс для управления транзакциями
// Переходу достаточно READ COMMITTED: гонку разрешает compare-and-swap в UpdateState.
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

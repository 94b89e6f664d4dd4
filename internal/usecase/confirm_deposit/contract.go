package confirm_deposit

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifier"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

// DepositStateMachine переходы бронирования по результату оплаты депозита
type DepositStateMachine interface {
	ApplyDeposit(ctx context.Context, b *domain.Booking, outcome domain.PaymentOutcome) (*domain.Booking, error)
}

// Notifier отправка уведомлений арендатору (best-effort)
type Notifier interface {
	Notify(ctx context.Context, eventType notifier.EventType, b *domain.Booking)
}

// Metrics счетчики результатов оплаты
type Metrics interface {
	IncDepositOutcome(status string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

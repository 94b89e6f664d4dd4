package bookings

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifier"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)
}

// StateMachine переходы бронирования, инициируемые пользователями
type StateMachine interface {
	Cancel(ctx context.Context, b *domain.Booking, reason string) (*domain.Booking, error)
	CheckOut(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	Complete(ctx context.Context, b *domain.Booking, data domain.CompletionData) (*domain.Booking, error)
}

// Notifier отправка уведомлений арендатору (best-effort)
type Notifier interface {
	Notify(ctx context.Context, eventType notifier.EventType, b *domain.Booking)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

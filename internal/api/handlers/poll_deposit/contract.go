package poll_deposit

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
)

// BookingService чтение бронирования с проверкой доступа
type BookingService interface {
	GetByID(ctx context.Context, actor *domain.Actor, id int64) (*models.BookingResponse, error)
}

// DepositPoller сверка депозита с провайдером
type DepositPoller interface {
	Poll(ctx context.Context, bookingID int64) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

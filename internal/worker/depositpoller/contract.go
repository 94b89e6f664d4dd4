package depositpoller

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/usecase/confirm_deposit"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListPendingDeposits(ctx context.Context, limit int) ([]*domain.Booking, error)
	SetPaymentRef(ctx context.Context, id int64, paymentRef string) error
}

// PaymentProvider интерфейс платежного провайдера
type PaymentProvider interface {
	InitiateDeposit(ctx context.Context, bookingID int64, amount int64) (string, error)
	GetPaymentStatus(ctx context.Context, paymentRef string) (domain.PaymentStatus, error)
}

// DepositConfirmer применение результата оплаты (confirm_deposit use case)
type DepositConfirmer interface {
	Execute(ctx context.Context, req *confirm_deposit.Request) (*confirm_deposit.Response, error)
}

// Metrics счетчики попыток опроса
type Metrics interface {
	IncPollAttempt(result string)
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

package create_booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifier"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	SetPaymentRef(ctx context.Context, id int64, paymentRef string) error
}

// PromotionRepository интерфейс репозитория промокодов
type PromotionRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Promotion, error)
}

// AvailabilityGuard резервирование машины на окно
type AvailabilityGuard interface {
	IsAvailable(ctx context.Context, vehicleID int64, start, end time.Time) (bool, error)
	Reserve(ctx context.Context, vehicleID int64, start, end time.Time) (uuid.UUID, error)
}

// VehicleDirectory справочник машин
type VehicleDirectory interface {
	GetVehicle(ctx context.Context, vehicleID int64) (*domain.Vehicle, error)
}

// RateCardProvider источник тарифов машин
type RateCardProvider interface {
	GetRateCard(ctx context.Context, vehicleID int64) (*domain.RateCard, error)
}

// RenterDirectory справочник арендаторов
type RenterDirectory interface {
	GetRenter(ctx context.Context, renterID int64) (*domain.Renter, error)
}

// DepositInitiator создание платежа депозита у провайдера
type DepositInitiator interface {
	InitiateDeposit(ctx context.Context, bookingID int64, amount int64) (string, error)
}

// DepositConfirmer применяет результат оплаты депозита
// Используется для машин без депозита: такое бронирование подтверждается сразу.
type DepositConfirmer interface {
	ApplyDeposit(ctx context.Context, b *domain.Booking, outcome domain.PaymentOutcome) (*domain.Booking, error)
}

// Notifier отправка уведомлений арендатору (best-effort)
type Notifier interface {
	Notify(ctx context.Context, eventType notifier.EventType, b *domain.Booking)
}

// Metrics счетчики бронирований
type Metrics interface {
	IncBookingCreated()
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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

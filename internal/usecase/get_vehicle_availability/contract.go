package get_vehicle_availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// AvailabilityGuard чтение активных резервов машины
type AvailabilityGuard interface {
	Busy(ctx context.Context, vehicleID int64, from, to time.Time) ([]domain.Reservation, error)
}

// VehicleDirectory справочник машин
type VehicleDirectory interface {
	GetVehicle(ctx context.Context, vehicleID int64) (*domain.Vehicle, error)
}

// RateCardProvider источник тарифов машин
type RateCardProvider interface {
	GetRateCard(ctx context.Context, vehicleID int64) (*domain.RateCard, error)
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

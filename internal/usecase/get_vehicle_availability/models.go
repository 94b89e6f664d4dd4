package get_vehicle_availability

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Request модель запроса на поиск свободных окон машины
type Request struct {
	VehicleID int64
	StartTime time.Time
	EndTime   time.Time
}

// Response модель ответа
type Response struct {
	VehicleID int64
	StationID int64
	Status    domain.VehicleStatus
	StartTime time.Time
	EndTime   time.Time

	// Available true, если всё окно свободно и машина принимает бронирования
	Available bool
	Busy      []Window // Занятые интервалы внутри окна
	Free      []Window // Свободные интервалы внутри окна

	// Quote предварительная цена всего окна без промокода, nil если тариф не позволяет посчитать
	Quote *domain.PriceBreakdown
}

// Window полуоткрытый интервал [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

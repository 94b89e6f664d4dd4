package get_vehicle_availability

import (
	"context"

	getAvailability "github.com/m04kA/SMC-RentalService/internal/usecase/get_vehicle_availability"
)

type GetVehicleAvailabilityUseCase interface {
	Execute(ctx context.Context, req *getAvailability.Request) (*getAvailability.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

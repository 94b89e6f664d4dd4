package get_vehicle_availability

import (
	"fmt"
	"time"
)

// maxSearchRange ограничение длины окна поиска
const maxSearchRange = 90 * 24 * time.Hour

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.VehicleID <= 0 {
		return fmt.Errorf("%w: vehicleId must be positive", ErrInvalidInput)
	}

	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidWindow)
	}

	if !req.EndTime.After(req.StartTime) {
		return fmt.Errorf("%w: end must be after start", ErrInvalidWindow)
	}

	if req.EndTime.Sub(req.StartTime) > maxSearchRange {
		return fmt.Errorf("%w: window longer than %s", ErrInvalidWindow, maxSearchRange)
	}

	return nil
}

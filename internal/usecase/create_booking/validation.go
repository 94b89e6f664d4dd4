package create_booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// validateRequest проверяет входные данные без обращения к внешним сервисам
func validateRequest(req *Request, now time.Time) error {
	if req.Actor == nil {
		return fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	if req.VehicleID <= 0 {
		return fmt.Errorf("%w: vehicleId must be positive", ErrInvalidInput)
	}
	if req.StationID != nil && *req.StationID <= 0 {
		return fmt.Errorf("%w: stationId must be positive", ErrInvalidInput)
	}
	if req.PromotionCode != nil {
		code := strings.TrimSpace(*req.PromotionCode)
		if code == "" || len(code) > domain.MaxPromotionCodeLength {
			return fmt.Errorf("%w: malformed promotion code", ErrInvalidPromotion)
		}
	}

	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return fmt.Errorf("%w: startTime and endTime are required", ErrInvalidWindow)
	}
	if !req.EndTime.After(req.StartTime) {
		return fmt.Errorf("%w: endTime must be after startTime", ErrInvalidWindow)
	}
	if req.StartTime.Before(now) {
		return fmt.Errorf("%w: startTime is in the past", ErrInvalidWindow)
	}

	return nil
}

// resolveRenter определяет арендатора с учетом роли пользователя
// Арендатор бронирует только на себя, сотрудник обязан указать арендатора.
func resolveRenter(actor *domain.Actor, renterID *int64) (int64, error) {
	if !actor.IsStaff() {
		if renterID != nil && *renterID != actor.ID {
			return 0, fmt.Errorf("%w: renter can only book for themselves", ErrAccessDenied)
		}
		return actor.ID, nil
	}

	if renterID == nil || *renterID <= 0 {
		return 0, fmt.Errorf("%w: renterId is required for staff bookings", ErrInvalidInput)
	}
	return *renterID, nil
}

// resolveStation проверяет, что машина выдается на запрошенной станции
func resolveStation(vehicle *domain.Vehicle, stationID *int64) (int64, error) {
	if stationID == nil {
		return vehicle.StationID, nil
	}
	if *stationID != vehicle.StationID {
		return 0, ErrVehicleNotAtStation
	}
	return *stationID, nil
}

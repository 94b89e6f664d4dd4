package create_booking

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	createBooking "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	RenterID      *int64    `json:"renterId,omitempty"` // обязателен для сотрудников
	VehicleID     int64     `json:"vehicleId"`
	StationID     *int64    `json:"stationId,omitempty"` // по умолчанию станция машины
	StartTime     time.Time `json:"startTime"`           // RFC3339
	EndTime       time.Time `json:"endTime"`             // RFC3339
	PromotionCode *string   `json:"promotionCode,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(actor *domain.Actor) *createBooking.Request {
	return &createBooking.Request{
		Actor:         actor,
		RenterID:      r.RenterID,
		VehicleID:     r.VehicleID,
		StationID:     r.StationID,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		PromotionCode: r.PromotionCode,
	}
}

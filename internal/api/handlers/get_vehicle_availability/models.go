package get_vehicle_availability

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
	getAvailability "github.com/m04kA/SMC-RentalService/internal/usecase/get_vehicle_availability"
)

// WindowResponse полуоткрытый интервал [start, end)
type WindowResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	VehicleID int64                 `json:"vehicleId"`
	StationID int64                 `json:"stationId"`
	Status    string                `json:"vehicleStatus"`
	StartTime time.Time             `json:"startTime"`
	EndTime   time.Time             `json:"endTime"`
	Available bool                  `json:"available"`
	Busy      []WindowResponse      `json:"busy"`
	Free      []WindowResponse      `json:"free"`
	Quote     *models.PriceResponse `json:"quote,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	out := &AvailabilityResponse{
		VehicleID: resp.VehicleID,
		StationID: resp.StationID,
		Status:    string(resp.Status),
		StartTime: resp.StartTime,
		EndTime:   resp.EndTime,
		Available: resp.Available,
		Busy:      toWindows(resp.Busy),
		Free:      toWindows(resp.Free),
	}

	if resp.Quote != nil {
		q := *resp.Quote
		out.Quote = &models.PriceResponse{
			BilledHours:     q.BilledHours,
			WeeklyQuantity:  q.WeeklyQuantity,
			DailyQuantity:   q.DailyQuantity,
			HourlyQuantity:  q.HourlyQuantity,
			WeeklyCost:      q.WeeklyCost,
			DailyCost:       q.DailyCost,
			HourlyCost:      q.HourlyCost,
			BasePrice:       q.BasePrice,
			InsuranceAmount: q.InsuranceAmount,
			TaxAmount:       q.TaxAmount,
			DiscountAmount:  q.DiscountAmount,
			Subtotal:        q.Subtotal,
			TotalAmount:     q.TotalAmount,
			DepositAmount:   q.DepositAmount,
		}
	}

	return out
}

func toWindows(in []getAvailability.Window) []WindowResponse {
	out := make([]WindowResponse, 0, len(in))
	for _, w := range in {
		out = append(out, WindowResponse{Start: w.Start, End: w.End})
	}
	return out
}

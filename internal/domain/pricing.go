package domain

import "time"

// RateCard vehicle tariffs in whole currency units, owned by the vehicle directory
type RateCard struct {
	VehicleID     int64    `json:"vehicleId"`
	HourlyRate    int64    `json:"hourlyRate"`
	DailyRate     int64    `json:"dailyRate"`
	WeeklyRate    int64    `json:"weeklyRate"`  // 0 - tier not offered
	MonthlyRate   int64    `json:"monthlyRate"` // 0 - tier not offered
	DepositAmount int64    `json:"depositAmount"`
	InsuranceRate *float64 `json:"insuranceRate,omitempty"` // nil - DefaultInsuranceRate
}

// DiscountType kind of promotion discount
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

// Promotion discount applied once at booking creation
type Promotion struct {
	ID            int64
	Code          string
	DiscountType  DiscountType
	DiscountValue float64 // percent for PERCENTAGE, currency units for FIXED
	ValidFrom     *time.Time
	ValidTo       *time.Time
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsValidAt returns true if the promotion can be applied at moment t
func (p *Promotion) IsValidAt(t time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ValidFrom != nil && t.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidTo != nil && !t.Before(*p.ValidTo) {
		return false
	}
	return true
}

// PriceBreakdown line items of a booking price
type PriceBreakdown struct {
	BilledHours int64

	WeeklyQuantity int64
	DailyQuantity  int64
	HourlyQuantity int64

	WeeklyCost int64
	DailyCost  int64
	HourlyCost int64

	BasePrice       int64
	InsuranceAmount int64
	TaxAmount       int64
	DiscountAmount  int64
	Subtotal        int64
	TotalAmount     int64
	DepositAmount   int64
}

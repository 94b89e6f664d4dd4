package domain

// Pricing policy
const (
	HoursPerDay  = 24
	HoursPerWeek = 168

	// TaxRateBasisPoints fixed tax of 8% on base price plus insurance
	TaxRateBasisPoints int64 = 800

	// DefaultInsuranceRate applied when the rate card has no insurance rate
	DefaultInsuranceRate = 0.10
)

// Business validation constants
const (
	MaxBookingDurationHours = 24 * 365
	MaxCancelReasonLength   = 500
	MaxDamageReportLength   = 2000
	MinCustomerRating       = 1
	MaxCustomerRating       = 5
	MaxBatteryLevel         = 100
	MaxPromotionCodeLength  = 64
	DefaultListLimit        = 50
	MaxListLimit            = 200
)

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses statuses that keep the vehicle reserved
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
}

// AllStatuses every booking status
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

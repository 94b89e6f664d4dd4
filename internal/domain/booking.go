package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	StatusPending    BookingStatus = "PENDING"
	StatusConfirmed  BookingStatus = "CONFIRMED"
	StatusInProgress BookingStatus = "IN_PROGRESS"
	StatusCompleted  BookingStatus = "COMPLETED"
	StatusCancelled  BookingStatus = "CANCELLED"
)

// DepositStatus represents the state of the upfront deposit payment
type DepositStatus string

const (
	DepositPending  DepositStatus = "PENDING"
	DepositPaid     DepositStatus = "PAID"
	DepositFailed   DepositStatus = "FAILED"
	DepositRefunded DepositStatus = "REFUNDED"
)

// Booking represents a vehicle rental booking
type Booking struct {
	ID          int64
	RenterID    int64
	VehicleID   int64
	StationID   int64
	PromotionID *int64

	StartTime     time.Time
	EndTime       time.Time
	ActualEndTime *time.Time

	Status        BookingStatus
	DepositStatus DepositStatus

	// ReservationToken identifies the vehicle hold created by the availability guard
	ReservationToken uuid.UUID

	// Price snapshot, computed once at creation
	Price PriceBreakdown

	// Payment provider reference of the deposit and the last applied outcome
	PaymentRef         *string
	DepositOutcomeID   *string
	DepositProcessedAt *time.Time

	// Completion data, set only on the COMPLETED transition
	ReturnOdometer       *int64
	BatteryLevelAtReturn *int
	DamageReport         *string
	CustomerRating       *int

	CancelReason *string
	CancelledAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking still holds its vehicle reservation
func (b *Booking) IsActive() bool {
	return IsActiveStatus(b.Status)
}

// IsTerminal returns true if no further transitions are possible
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

// CanBeCancelled returns true if the booking may be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// AwaitsDeposit returns true if the deposit is still waiting for a provider outcome
func (b *Booking) AwaitsDeposit() bool {
	return b.Status == StatusPending && b.DepositStatus == DepositPending
}

// Overlaps reports whether the booking window intersects [start, end)
func (b *Booking) Overlaps(start, end time.Time) bool {
	return WindowsOverlap(b.StartTime, b.EndTime, start, end)
}

// IsActiveStatus returns true for statuses that keep the vehicle reserved
func IsActiveStatus(s BookingStatus) bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}

// WindowsOverlap reports whether two half-open windows [aStart, aEnd) and [bStart, bEnd) intersect.
// Windows that only touch at a boundary do not overlap.
func WindowsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// BookingFilter filter for listing bookings
type BookingFilter struct {
	RenterID   *int64         // Only bookings of this renter
	VehicleID  *int64         // Only bookings of this vehicle
	StationIDs []int64        // Only bookings at these stations (nil - any station)
	Status     *BookingStatus // Only bookings in this status
	From       *time.Time     // Windows ending after From
	To         *time.Time     // Windows starting before To
	Limit      int
	Offset     int
}

// StateUpdate describes a state change applied through a compare-and-swap on (Status, DepositStatus)
type StateUpdate struct {
	ExpectedStatus  BookingStatus
	ExpectedDeposit DepositStatus

	Status        BookingStatus
	DepositStatus DepositStatus

	DepositOutcomeID   *string
	DepositProcessedAt *time.Time

	ActualEndTime        *time.Time
	ReturnOdometer       *int64
	BatteryLevelAtReturn *int
	DamageReport         *string
	CustomerRating       *int

	CancelReason *string
	CancelledAt  *time.Time

	UpdatedAt time.Time
}

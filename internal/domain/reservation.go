package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reservation exclusive hold of a vehicle for the half-open window [StartTime, EndTime)
type Reservation struct {
	Token      uuid.UUID
	VehicleID  int64
	StartTime  time.Time
	EndTime    time.Time
	CreatedAt  time.Time
	ReleasedAt *time.Time
}

// IsReleased returns true if the hold no longer blocks the window
func (r *Reservation) IsReleased() bool {
	return r.ReleasedAt != nil
}

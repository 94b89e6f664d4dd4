package domain

import "time"

// PaymentStatus status of a deposit reported by the payment provider
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
	PaymentPending PaymentStatus = "PENDING"
)

// IsTerminal returns true for definitive provider signals
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentPaid || s == PaymentFailed
}

// PaymentOutcome a deposit outcome delivered by a provider callback, the poller or staff
type PaymentOutcome struct {
	// OutcomeID identifies the delivery; the same ID is applied at most once per booking
	OutcomeID  string
	PaymentRef string
	Status     PaymentStatus
	ReceivedAt time.Time
}

package notifier

import "time"

// EventType тип уведомления арендатору
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventDepositFailed    EventType = "booking.deposit_failed"
	EventDepositRefunded  EventType = "booking.deposit_refunded"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingStarted   EventType = "booking.started"
	EventBookingCompleted EventType = "booking.completed"
)

// Event сообщение, которое сервис доставки уведомлений читает из топика
type Event struct {
	Type      EventType `json:"type"`
	RenterID  int64     `json:"renter_id"`
	BookingID int64     `json:"booking_id"`
	VehicleID int64     `json:"vehicle_id"`
	Status    string    `json:"status"`
	Deposit   string    `json:"deposit_status"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Total     int64     `json:"total_amount"`
	SentAt    time.Time `json:"sent_at"`
}

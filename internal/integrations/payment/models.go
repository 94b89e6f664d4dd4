package payment

import "github.com/m04kA/SMC-RentalService/internal/domain"

// metadataBookingID ключ метаданных платежа с ID бронирования
const metadataBookingID = "booking_id"

// WebhookEvent событие провайдера, относящееся к депозиту бронирования
type WebhookEvent struct {
	EventID    string
	BookingID  int64
	PaymentRef string
	Status     domain.PaymentStatus
}

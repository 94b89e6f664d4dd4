package confirm_deposit

import "github.com/m04kA/SMC-RentalService/internal/domain"

// Request модель запроса на применение результата оплаты депозита
type Request struct {
	BookingID int64
	Outcome   domain.PaymentOutcome
	// Actor сотрудник при ручном подтверждении, nil для провайдера и поллера
	Actor *domain.Actor
}

// Response модель ответа
type Response struct {
	Booking *domain.Booking
	// Applied false, если результат уже был применен или не является окончательным
	Applied bool
}

package create_booking

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Request модель запроса на создание бронирования
type Request struct {
	Actor         *domain.Actor // Кто создает бронирование
	RenterID      *int64        // Арендатор (для сотрудников обязателен, арендатор бронирует на себя)
	VehicleID     int64         // ID машины
	StationID     *int64        // Станция выдачи (по умолчанию станция машины)
	StartTime     time.Time     // Начало окна аренды
	EndTime       time.Time     // Конец окна аренды (не включается)
	PromotionCode *string       // Промокод (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking *domain.Booking
}

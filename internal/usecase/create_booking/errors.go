package create_booking

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInvalidWindow возвращается, когда окно аренды пустое, перевёрнутое, в прошлом или слишком длинное
	ErrInvalidWindow = errors.New("create_booking: invalid booking window")

	// ErrIncompleteRateCard возвращается, когда у машины нет полного тарифа
	ErrIncompleteRateCard = errors.New("create_booking: vehicle rate card is incomplete")

	// ErrInvalidPromotion возвращается для несуществующего, неактивного или истекшего промокода
	ErrInvalidPromotion = errors.New("create_booking: invalid promotion")

	// ErrVehicleNotFound возвращается, когда машина не найдена
	ErrVehicleNotFound = errors.New("create_booking: vehicle not found")

	// ErrVehicleNotAtStation возвращается, когда машина приписана к другой станции
	ErrVehicleNotAtStation = errors.New("create_booking: vehicle is not available at this station")

	// ErrRenterNotFound возвращается, когда арендатор не найден
	ErrRenterNotFound = errors.New("create_booking: renter not found")

	// ErrVehicleUnavailable возвращается, когда окно уже занято или машина выведена из эксплуатации
	ErrVehicleUnavailable = errors.New("create_booking: vehicle is unavailable for this window")

	// ErrAccessDenied возвращается, когда у пользователя нет прав на создание бронирования
	ErrAccessDenied = errors.New("create_booking: access denied")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)

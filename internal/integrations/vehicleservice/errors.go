package vehicleservice

import "errors"

var (
	// ErrVehicleNotFound возвращается, когда машина не найдена
	ErrVehicleNotFound = errors.New("vehicleservice client: vehicle not found")

	// ErrRateCardNotFound возвращается, когда у машины нет тарифа
	ErrRateCardNotFound = errors.New("vehicleservice client: rate card not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("vehicleservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("vehicleservice client: invalid response")
)

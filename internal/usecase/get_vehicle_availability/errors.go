package get_vehicle_availability

import "errors"

var (
	// ErrVehicleNotFound возвращается, когда машина не найдена
	ErrVehicleNotFound = errors.New("get_vehicle_availability: vehicle not found")

	// ErrInvalidWindow возвращается при пустом, перевёрнутом или слишком длинном окне поиска
	ErrInvalidWindow = errors.New("get_vehicle_availability: invalid search window")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_vehicle_availability: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_vehicle_availability: internal error")
)

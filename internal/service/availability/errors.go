package availability

import "errors"

var (
	// ErrConflict окно пересекается с активным резервом машины
	ErrConflict = errors.New("availability: vehicle already reserved for an overlapping window")

	// ErrInvalidWindow окно пустое или перевёрнутое
	ErrInvalidWindow = errors.New("availability: invalid window")

	// ErrStorage ошибка хранилища резервов
	ErrStorage = errors.New("availability: storage error")
)

package promotions

import "errors"

var (
	// ErrPromotionNotFound возвращается, когда промо-акция не найдена
	ErrPromotionNotFound = errors.New("promotions: promotion not found")

	// ErrPromotionExists возвращается, когда промо-акция с таким кодом уже есть
	ErrPromotionExists = errors.New("promotions: promotion code already exists")

	// ErrAccessDenied возвращается при отсутствии прав доступа
	ErrAccessDenied = errors.New("promotions: access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("promotions: invalid input")

	// ErrInternal возвращается при внутренних ошибках
	ErrInternal = errors.New("promotions: internal error")
)

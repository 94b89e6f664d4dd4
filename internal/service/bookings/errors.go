package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("bookings: booking not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("bookings: access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("bookings: invalid input data")

	// ErrInvalidTransition возвращается, когда переход недопустим из текущего состояния
	ErrInvalidTransition = errors.New("bookings: invalid transition")

	// ErrInvalidCompletion возвращается при некорректных данных приёма машины
	ErrInvalidCompletion = errors.New("bookings: invalid completion data")

	// ErrRefundFailed возвращается, когда провайдер не вернул депозит; бронирование не отменено
	ErrRefundFailed = errors.New("bookings: deposit refund failed")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings: internal error")
)

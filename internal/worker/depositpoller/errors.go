package depositpoller

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("depositpoller: booking not found")

	// ErrAlreadyPolling возвращается, когда бронирование уже опрашивается
	ErrAlreadyPolling = errors.New("depositpoller: booking is already being polled")

	// ErrPaymentTimeout возвращается, когда попытки исчерпаны, а депозит все еще в ожидании
	ErrPaymentTimeout = errors.New("depositpoller: payment status still pending after retry budget")

	// ErrInvalidSchedule возвращается при некорректном cron выражении
	ErrInvalidSchedule = errors.New("depositpoller: invalid schedule")

	// ErrInternal возвращается при внутренних ошибках
	ErrInternal = errors.New("depositpoller: internal error")
)

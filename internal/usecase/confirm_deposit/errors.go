package confirm_deposit

import "errors"

var (
	// ErrInvalidInput возвращается при некорректном результате оплаты
	ErrInvalidInput = errors.New("confirm_deposit: invalid input data")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("confirm_deposit: booking not found")

	// ErrAccessDenied возвращается, когда сотрудник не обслуживает станцию бронирования
	ErrAccessDenied = errors.New("confirm_deposit: access denied")

	// ErrPaymentMismatch возвращается, когда результат относится к другому платежу
	ErrPaymentMismatch = errors.New("confirm_deposit: payment reference does not match booking")

	// ErrInvalidTransition возвращается, когда бронирование уже ушло из состояния ожидания депозита
	ErrInvalidTransition = errors.New("confirm_deposit: invalid transition")

	// ErrPaymentTimeout возвращается, когда подтверждение не уложилось в отведенное время
	// Бронирование остается в ожидании депозита, результат подхватит поллер.
	ErrPaymentTimeout = errors.New("confirm_deposit: payment confirmation timed out")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("confirm_deposit: internal error")
)

package payment

import "errors"

var (
	// ErrProvider возвращается при ошибке платежного провайдера
	ErrProvider = errors.New("payment: provider error")

	// ErrTimeout возвращается, когда провайдер не ответил в отведенное время
	ErrTimeout = errors.New("payment: provider timeout")

	// ErrInvalidSignature возвращается при неверной подписи вебхука
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")

	// ErrIgnoredEvent возвращается для событий вебхука, не влияющих на депозит
	ErrIgnoredEvent = errors.New("payment: ignored webhook event")

	// ErrInvalidEvent возвращается, когда событие не удалось разобрать
	ErrInvalidEvent = errors.New("payment: invalid webhook event")
)

package identityservice

import "errors"

var (
	// ErrUserNotFound возвращается, когда пользователь не найден
	ErrUserNotFound = errors.New("identityservice client: user not found")

	// ErrUnknownRole возвращается, когда сервис вернул неизвестную роль
	ErrUnknownRole = errors.New("identityservice client: unknown role")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("identityservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("identityservice client: invalid response")
)

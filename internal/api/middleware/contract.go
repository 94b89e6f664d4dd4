package middleware

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// ActorResolver получает роль и станции пользователя
type ActorResolver interface {
	GetActor(ctx context.Context, userID int64) (*domain.Actor, error)
}

// Metrics HTTP метрики
type Metrics interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// RateCardProvider источник тарифов (справочник машин)
type RateCardProvider interface {
	GetRateCard(ctx context.Context, vehicleID int64) (*domain.RateCard, error)
}

// RedisClient подмножество команд redis, которое использует кэш
// *redis.Client реализует этот интерфейс
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

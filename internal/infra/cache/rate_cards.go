package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// RateCards кэш тарифов поверх справочника машин
// Ошибки redis не ломают бронирование: при недоступности кэша тариф читается из справочника.
type RateCards struct {
	client RedisClient
	source RateCardProvider
	ttl    time.Duration
	logger Logger
}

// NewRateCards создает кэш тарифов
func NewRateCards(client RedisClient, source RateCardProvider, ttl time.Duration, logger Logger) *RateCards {
	return &RateCards{
		client: client,
		source: source,
		ttl:    ttl,
		logger: logger,
	}
}

// NewRedisClient создает клиента redis
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// GetRateCard возвращает тариф из кэша или из справочника
func (c *RateCards) GetRateCard(ctx context.Context, vehicleID int64) (*domain.RateCard, error) {
	key := rateCardKey(vehicleID)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var card domain.RateCard
		if err := json.Unmarshal(data, &card); err == nil {
			return &card, nil
		}
		c.logger.Warn("RateCards: corrupted cache entry %s, reloading", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("RateCards: redis get %s failed: %v", key, err)
	}

	card, err := c.source.GetRateCard(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(card)
	if err != nil {
		return card, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("RateCards: redis set %s failed: %v", key, err)
	}

	return card, nil
}

// Invalidate удаляет тариф машины из кэша
func (c *RateCards) Invalidate(ctx context.Context, vehicleID int64) error {
	return c.client.Del(ctx, rateCardKey(vehicleID)).Err()
}

func rateCardKey(vehicleID int64) string {
	return fmt.Sprintf("rental:ratecard:%d", vehicleID)
}

package depositpoller

import "time"

// Config параметры поллера
type Config struct {
	// Schedule cron выражение с секундами, например "0 */1 * * * *"
	Schedule string
	// BatchSize сколько бронирований берется за один обход
	BatchSize int
	// Workers сколько бронирований опрашивается параллельно
	Workers int
	// MaxAttempts бюджет попыток на одно бронирование
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// SweepTimeout ограничение одного обхода
	SweepTimeout time.Duration
	// RateLimit запросов к провайдеру в секунду, Burst размер пачки
	RateLimit float64
	Burst     int
}

// withDefaults заполняет незаданные значения
func (c Config) withDefaults() Config {
	if c.Schedule == "" {
		c.Schedule = "0 */1 * * * *"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Second
	}
	if c.MaxBackoff < c.BaseBackoff {
		c.MaxBackoff = 30 * time.Second
		if c.MaxBackoff < c.BaseBackoff {
			c.MaxBackoff = c.BaseBackoff
		}
	}
	if c.SweepTimeout <= 0 {
		c.SweepTimeout = 5 * time.Minute
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 10
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return c
}

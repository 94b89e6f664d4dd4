package depositpoller

import (
	"context"
	"time"
)

// backoff задержка перед попыткой attempt (нумерация с 1): base * 2^(attempt-1), не больше max
func backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := base
	for i := 1; i < attempt; i++ {
		if d >= max/2 {
			return max
		}
		d *= 2
	}

	if d > max {
		return max
	}
	return d
}

// sleepContext ждет d или отмены контекста
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

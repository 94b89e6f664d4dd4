package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/reservation"
)

// Guard гарантирует, что у машины нет двух активных бронирований с пересекающимися окнами
// Окна полуоткрытые: [start, end), касание границами пересечением не считается.
type Guard struct {
	store   ReservationStore
	metrics Metrics
	logger  Logger
}

// NewGuard создает новый Guard
// metrics может быть nil
func NewGuard(store ReservationStore, metrics Metrics, logger Logger) *Guard {
	return &Guard{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Reserve занимает машину на окно и возвращает токен резерва
// Из N параллельных вызовов с пересекающимися окнами успешен ровно один,
// остальные получают ErrConflict.
func (g *Guard) Reserve(ctx context.Context, vehicleID int64, start, end time.Time) (uuid.UUID, error) {
	if !end.After(start) {
		return uuid.Nil, ErrInvalidWindow
	}

	res, err := g.store.Reserve(ctx, vehicleID, start, end)
	if err != nil {
		if errors.Is(err, reservation.ErrConflict) {
			if g.metrics != nil {
				g.metrics.IncReservationConflict()
			}
			g.logger.Info("Reservation conflict: vehicle_id=%d, window=[%s, %s)", vehicleID, start.Format(time.RFC3339), end.Format(time.RFC3339))
			return uuid.Nil, ErrConflict
		}
		return uuid.Nil, fmt.Errorf("%w: Reserve: %v", ErrStorage, err)
	}

	return res.Token, nil
}

// Release освобождает резерв, повторный вызов безопасен
func (g *Guard) Release(ctx context.Context, token uuid.UUID) error {
	if token == uuid.Nil {
		return nil
	}

	if err := g.store.Release(ctx, token); err != nil {
		return fmt.Errorf("%w: Release: %v", ErrStorage, err)
	}

	return nil
}

// IsAvailable сообщает, свободна ли машина на всё окно
// Результат носит информационный характер, занимать машину нужно через Reserve.
func (g *Guard) IsAvailable(ctx context.Context, vehicleID int64, start, end time.Time) (bool, error) {
	busy, err := g.Busy(ctx, vehicleID, start, end)
	if err != nil {
		return false, err
	}
	return len(busy) == 0, nil
}

// Busy возвращает активные резервы машины внутри периода
func (g *Guard) Busy(ctx context.Context, vehicleID int64, from, to time.Time) ([]domain.Reservation, error) {
	if !to.After(from) {
		return nil, ErrInvalidWindow
	}

	busy, err := g.store.FindOverlapping(ctx, vehicleID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: Busy: %v", ErrStorage, err)
	}

	return busy, nil
}

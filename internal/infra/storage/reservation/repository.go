package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

const tableName = "vehicle_reservations"

// pgExclusionViolation код ошибки PostgreSQL при нарушении EXCLUDE ограничения
const (
	pgExclusionViolation   = pq.ErrorCode("23P01")
	pgSerializationFailure = pq.ErrorCode("40001")
)

// Repository хранилище резервов машин
//
// Непересечение окон гарантирует сама БД: на таблице стоит
// EXCLUDE USING gist (vehicle_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&)
// WHERE (released_at IS NULL). Проверка и вставка - одна операция, гонки между
// параллельными запросами разрешает PostgreSQL.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр хранилища резервов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Reserve атомарно занимает машину на окно [start, end)
// Возвращает ErrConflict, если окно пересекается с активным резервом.
func (r *Repository) Reserve(ctx context.Context, vehicleID int64, start, end time.Time) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	res := &domain.Reservation{
		Token:     uuid.New(),
		VehicleID: vehicleID,
		StartTime: start,
		EndTime:   end,
	}

	query, args, err := psqlbuilder.Insert(tableName).
		Columns("token", "vehicle_id", "start_time", "end_time").
		Values(res.Token, res.VehicleID, res.StartTime, res.EndTime).
		Suffix("RETURNING created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Reserve - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&res.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		// 40001 в SERIALIZABLE: конкурентная транзакция заняла то же окно раньше
		if errors.As(err, &pqErr) && (pqErr.Code == pgExclusionViolation || pqErr.Code == pgSerializationFailure) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: Reserve - execute insert: %v", ErrExecQuery, err)
	}

	return res, nil
}

// Release освобождает резерв по токену
// Повторный вызов и неизвестный токен не являются ошибкой.
func (r *Repository) Release(ctx context.Context, token uuid.UUID) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("released_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"token": token}).
		Where(squirrel.Eq{"released_at": nil}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Release - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Release - execute update: %v", ErrExecQuery, err)
	}

	return nil
}

// FindOverlapping возвращает активные резервы машины, пересекающие окно [start, end)
func (r *Repository) FindOverlapping(ctx context.Context, vehicleID int64, start, end time.Time) ([]domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("token", "vehicle_id", "start_time", "end_time", "created_at", "released_at").
		From(tableName).
		Where(squirrel.Eq{"vehicle_id": vehicleID}).
		Where(squirrel.Eq{"released_at": nil}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start}).
		OrderBy("start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		var res domain.Reservation
		var releasedAt sql.NullTime

		if err := rows.Scan(&res.Token, &res.VehicleID, &res.StartTime, &res.EndTime, &res.CreatedAt, &releasedAt); err != nil {
			return nil, fmt.Errorf("%w: FindOverlapping - scan row: %v", ErrScanRow, err)
		}
		if releasedAt.Valid {
			res.ReleasedAt = &releasedAt.Time
		}

		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - rows error: %v", ErrScanRow, err)
	}

	return reservations, nil
}

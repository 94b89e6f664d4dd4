package promotion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

const tableName = "promotions"

const pgUniqueViolation = pq.ErrorCode("23505")

var columns = []string{
	"id",
	"code",
	"discount_type",
	"discount_value",
	"valid_from",
	"valid_to",
	"is_active",
	"created_at",
	"updated_at",
}

// Repository репозиторий промо-акций
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория промо-акций
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую промо-акцию
// Код хранится в верхнем регистре, поиск по коду регистронезависимый
func (r *Repository) Create(ctx context.Context, promo *domain.Promotion) (*domain.Promotion, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	promo.Code = normalizeCode(promo.Code)

	query, args, err := psqlbuilder.Insert(tableName).
		Columns(
			"code",
			"discount_type",
			"discount_value",
			"valid_from",
			"valid_to",
			"is_active",
		).
		Values(
			promo.Code,
			promo.DiscountType,
			promo.DiscountValue,
			promo.ValidFrom,
			promo.ValidTo,
			promo.IsActive,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&promo.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	promo.CreatedAt = createdAt.Time
	promo.UpdatedAt = updatedAt.Time

	return promo, nil
}

// GetByCode получает промо-акцию по коду
func (r *Repository) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	return r.getOne(ctx, "GetByCode", squirrel.Eq{"code": normalizeCode(code)})
}

// GetByID получает промо-акцию по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Promotion, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id})
}

// List получает промо-акции, при activeOnly только активные
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]*domain.Promotion, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(tableName).
		OrderBy("created_at DESC")

	if activeOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"is_active": true})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	promos := make([]*domain.Promotion, 0)
	for rows.Next() {
		promo, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan row: %v", ErrScanRow, err)
		}
		promos = append(promos, promo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}

	return promos, nil
}

// SetActive включает или выключает промо-акцию
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("is_active", active).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetActive - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetActive - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetActive - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrPromotionNotFound
	}

	return nil
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Eq) (*domain.Promotion, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(tableName).
		Where(where).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	promo, err := scanPromotion(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrPromotionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan promotion: %v", ErrScanRow, op, err)
	}

	return promo, nil
}

func scanPromotion(row rowScanner) (*domain.Promotion, error) {
	var promo domain.Promotion
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&promo.ID,
		&promo.Code,
		&promo.DiscountType,
		&promo.DiscountValue,
		&promo.ValidFrom,
		&promo.ValidTo,
		&promo.IsActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	promo.CreatedAt = createdAt.Time
	promo.UpdatedAt = updatedAt.Time

	return &promo, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

const tableName = "bookings"

// pgSerializationFailure конкурентная транзакция изменила строку раньше нас
const pgSerializationFailure = pq.ErrorCode("40001")

// columns порядок колонок совпадает с порядком полей в scanBooking
var columns = []string{
	"id",
	"renter_id",
	"vehicle_id",
	"station_id",
	"promotion_id",
	"start_time",
	"end_time",
	"actual_end_time",
	"status",
	"deposit_status",
	"reservation_token",
	"billed_hours",
	"weekly_quantity",
	"daily_quantity",
	"hourly_quantity",
	"weekly_cost",
	"daily_cost",
	"hourly_cost",
	"base_price",
	"insurance_amount",
	"tax_amount",
	"discount_amount",
	"subtotal",
	"total_amount",
	"deposit_amount",
	"payment_ref",
	"deposit_outcome_id",
	"deposit_processed_at",
	"return_odometer",
	"battery_level_at_return",
	"damage_report",
	"customer_rating",
	"cancel_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция (через context.Value), использует её.
// Вызывается в одной транзакции с резервированием машины, чтобы бронирование
// не пережило откат резерва.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	p := booking.Price
	query, args, err := psqlbuilder.Insert(tableName).
		Columns(
			"renter_id",
			"vehicle_id",
			"station_id",
			"promotion_id",
			"start_time",
			"end_time",
			"status",
			"deposit_status",
			"reservation_token",
			"billed_hours",
			"weekly_quantity",
			"daily_quantity",
			"hourly_quantity",
			"weekly_cost",
			"daily_cost",
			"hourly_cost",
			"base_price",
			"insurance_amount",
			"tax_amount",
			"discount_amount",
			"subtotal",
			"total_amount",
			"deposit_amount",
			"payment_ref",
		).
		Values(
			booking.RenterID,
			booking.VehicleID,
			booking.StationID,
			booking.PromotionID,
			booking.StartTime,
			booking.EndTime,
			booking.Status,
			booking.DepositStatus,
			booking.ReservationToken,
			p.BilledHours,
			p.WeeklyQuantity,
			p.DailyQuantity,
			p.HourlyQuantity,
			p.WeeklyCost,
			p.DailyCost,
			p.HourlyCost,
			p.BasePrice,
			p.InsuranceAmount,
			p.TaxAmount,
			p.DiscountAmount,
			p.Subtotal,
			p.TotalAmount,
			p.DepositAmount,
			booking.PaymentRef,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// List получает список бронирований по фильтру
// Пустой список StationIDs (не nil) означает "ни одной станции" и даёт пустой результат.
//
// Примеры использования:
//
//  1. Бронирования арендатора:
//     filter := domain.BookingFilter{RenterID: &renterID}
//
//  2. Бронирования на станциях сотрудника за период:
//     filter := domain.BookingFilter{StationIDs: actor.StationAssignments, From: &from, To: &to}
//
//  3. Активные бронирования машины:
//     status := domain.StatusConfirmed
//     filter := domain.BookingFilter{VehicleID: &vehicleID, Status: &status}
func (r *Repository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if filter.StationIDs != nil && len(filter.StationIDs) == 0 {
		return []*domain.Booking{}, nil
	}

	selectBuilder := psqlbuilder.Select(columns...).
		From(tableName)

	if filter.RenterID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"renter_id": *filter.RenterID})
	}
	if filter.VehicleID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"vehicle_id": *filter.VehicleID})
	}
	if len(filter.StationIDs) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"station_id": filter.StationIDs})
	}
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}

	// Пересечение окна бронирования с периодом [From, To)
	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.Gt{"end_time": *filter.From})
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"start_time": *filter.To})
	}

	selectBuilder = selectBuilder.OrderBy("start_time DESC", "id DESC")

	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		selectBuilder = selectBuilder.Offset(uint64(filter.Offset))
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

	return scanBookings(rows)
}

// ListPendingDeposits получает бронирования, ожидающие подтверждения депозита
// Используется поллером платежей, старые бронирования идут первыми
func (r *Repository) ListPendingDeposits(ctx context.Context, limit int) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{
			"status":         domain.StatusPending,
			"deposit_status": domain.DepositPending,
		}).
		OrderBy("created_at ASC", "id ASC")

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(uint64(limit))
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingDeposits - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingDeposits - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateState применяет изменение состояния как compare-and-swap по (status, deposit_status)
// Если пара уже не совпадает с ожидаемой (параллельный переход), возвращает ErrStateConflict.
// Необязательные поля обновления записываются, только если заданы.
func (r *Repository) UpdateState(ctx context.Context, id int64, upd domain.StateUpdate) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update(tableName).
		Set("status", upd.Status).
		Set("deposit_status", upd.DepositStatus).
		Set("updated_at", upd.UpdatedAt)

	if upd.DepositOutcomeID != nil {
		updateBuilder = updateBuilder.Set("deposit_outcome_id", *upd.DepositOutcomeID)
	}
	if upd.DepositProcessedAt != nil {
		updateBuilder = updateBuilder.Set("deposit_processed_at", *upd.DepositProcessedAt)
	}
	if upd.ActualEndTime != nil {
		updateBuilder = updateBuilder.Set("actual_end_time", *upd.ActualEndTime)
	}
	if upd.ReturnOdometer != nil {
		updateBuilder = updateBuilder.Set("return_odometer", *upd.ReturnOdometer)
	}
	if upd.BatteryLevelAtReturn != nil {
		updateBuilder = updateBuilder.Set("battery_level_at_return", *upd.BatteryLevelAtReturn)
	}
	if upd.DamageReport != nil {
		updateBuilder = updateBuilder.Set("damage_report", *upd.DamageReport)
	}
	if upd.CustomerRating != nil {
		updateBuilder = updateBuilder.Set("customer_rating", *upd.CustomerRating)
	}
	if upd.CancelReason != nil {
		updateBuilder = updateBuilder.Set("cancel_reason", *upd.CancelReason)
	}
	if upd.CancelledAt != nil {
		updateBuilder = updateBuilder.Set("cancelled_at", *upd.CancelledAt)
	}

	query, args, err := updateBuilder.
		Where(squirrel.Eq{
			"id":             id,
			"status":         upd.ExpectedStatus,
			"deposit_status": upd.ExpectedDeposit,
		}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateState - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgSerializationFailure {
			return ErrStateConflict
		}
		return fmt.Errorf("%w: UpdateState - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateState - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrStateConflict
	}

	return nil
}

// SetPaymentRef сохраняет ссылку платёжного провайдера на депозит
func (r *Repository) SetPaymentRef(ctx context.Context, id int64, paymentRef string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("payment_ref", paymentRef).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetPaymentRef - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetPaymentRef - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetPaymentRef - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

// scanBooking сканирует одну строку в порядке columns
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.RenterID,
		&b.VehicleID,
		&b.StationID,
		&b.PromotionID,
		&b.StartTime,
		&b.EndTime,
		&b.ActualEndTime,
		&b.Status,
		&b.DepositStatus,
		&b.ReservationToken,
		&b.Price.BilledHours,
		&b.Price.WeeklyQuantity,
		&b.Price.DailyQuantity,
		&b.Price.HourlyQuantity,
		&b.Price.WeeklyCost,
		&b.Price.DailyCost,
		&b.Price.HourlyCost,
		&b.Price.BasePrice,
		&b.Price.InsuranceAmount,
		&b.Price.TaxAmount,
		&b.Price.DiscountAmount,
		&b.Price.Subtotal,
		&b.Price.TotalAmount,
		&b.Price.DepositAmount,
		&b.PaymentRef,
		&b.DepositOutcomeID,
		&b.DepositProcessedAt,
		&b.ReturnOdometer,
		&b.BatteryLevelAtReturn,
		&b.DamageReport,
		&b.CustomerRating,
		&b.CancelReason,
		&b.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}

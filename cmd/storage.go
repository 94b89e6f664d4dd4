package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/m04kA/SMC-RentalService/internal/config"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/memstore"
	promotionRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/promotion"
	reservationRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

// bookingStore общий набор методов postgres и in-memory репозиториев бронирований
type bookingStore interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)
	ListPendingDeposits(ctx context.Context, limit int) ([]*domain.Booking, error)
	UpdateState(ctx context.Context, id int64, upd domain.StateUpdate) error
	SetPaymentRef(ctx context.Context, id int64, paymentRef string) error
}

type reservationStore interface {
	Reserve(ctx context.Context, vehicleID int64, start, end time.Time) (*domain.Reservation, error)
	Release(ctx context.Context, token uuid.UUID) error
	FindOverlapping(ctx context.Context, vehicleID int64, start, end time.Time) ([]domain.Reservation, error)
}

type promotionStore interface {
	Create(ctx context.Context, promo *domain.Promotion) (*domain.Promotion, error)
	GetByCode(ctx context.Context, code string) (*domain.Promotion, error)
	GetByID(ctx context.Context, id int64) (*domain.Promotion, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Promotion, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type txManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// storage репозитории и менеджер транзакций выбранного драйвера
type storage struct {
	bookings     bookingStore
	reservations reservationStore
	promotions   promotionStore
	txManager    txManager
	close        func() error
}

// openStorage подключает хранилище по storage.driver
// Для postgres запросы оборачиваются сбором метрик, сбор статистики пула идет до закрытия stopCh.
func openStorage(cfg *config.Config, m *metrics.Metrics, stopCh <-chan struct{}, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn("Using in-memory storage, data will be lost on restart")
		store := memstore.New()
		return &storage{
			bookings:     store.Bookings(),
			reservations: store.Reservations(),
			promotions:   store.Promotions(),
			txManager:    store.TxManager(),
			close:        func() error { return nil },
		}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(config.Seconds(cfg.Database.ConnMaxLifetime))

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	var wrapped *dbmetrics.DB
	if m != nil {
		wrapped = dbmetrics.WrapWithDefault(db, m, stopCh)
		log.Info("Database metrics collection started")
	} else {
		wrapped = dbmetrics.Wrap(db, nil)
	}

	return &storage{
		bookings:     bookingRepo.NewRepository(wrapped),
		reservations: reservationRepo.NewRepository(wrapped),
		promotions:   promotionRepo.NewRepository(wrapped),
		txManager:    txmanager.NewTransactionManager(wrapped),
		close:        db.Close,
	}, nil
}

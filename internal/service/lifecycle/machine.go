package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
	"github.com/m04kA/SMC-RentalService/pkg/validation"
)

// Machine машина состояний бронирования
//
// Статус и статус депозита меняются только здесь. Каждый переход:
//  1. проверяется по таблице переходов (Decide)
//  2. записывается compare-and-swap по ожидаемой паре (status, deposit_status)
//  3. вместе с побочными эффектами (освобождение резерва, возврат депозита)
//     выполняется в одной транзакции, ошибка любого шага откатывает всё
type Machine struct {
	repo         BookingRepository
	releaser     ReservationReleaser
	refunder     Refunder
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewMachine создает новую машину состояний
func NewMachine(
	repo BookingRepository,
	releaser ReservationReleaser,
	refunder Refunder,
	txManager TransactionManager,
	logger Logger,
) *Machine {
	return &Machine{
		repo:         repo,
		releaser:     releaser,
		refunder:     refunder,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (m *Machine) WithTimeProvider(tp TimeProvider) *Machine {
	m.timeProvider = tp
	return m
}

// ApplyDeposit применяет терминальный результат оплаты депозита
// PAID: PENDING -> CONFIRMED, депозит PAID. FAILED: статус остаётся PENDING, депозит FAILED.
// PAID по уже отменённому бронированию возвращается провайдеру, депозит REFUNDED.
func (m *Machine) ApplyDeposit(ctx context.Context, b *domain.Booking, outcome domain.PaymentOutcome) (*domain.Booking, error) {
	var event Event
	switch outcome.Status {
	case domain.PaymentPaid:
		event = EventDepositPaid
	case domain.PaymentFailed:
		event = EventDepositFailed
	default:
		return nil, fmt.Errorf("%w: payment outcome %q is not terminal", ErrInvalidTransition, outcome.Status)
	}

	target, err := Decide(b.Status, b.DepositStatus, event)
	if err != nil {
		return nil, err
	}

	now := m.timeProvider.Now()
	upd := baseUpdate(b, target, now)
	outcomeID := outcome.OutcomeID
	upd.DepositOutcomeID = &outcomeID
	upd.DepositProcessedAt = &now

	// Ссылка на платёж могла не сохраниться, если намерение создано, а запись не удалась
	paymentRef := b.PaymentRef
	if paymentRef == nil && outcome.PaymentRef != "" {
		paymentRef = &outcome.PaymentRef
	}

	return m.apply(ctx, b, event, target, upd, paymentRef)
}

// Cancel отменяет бронирование в статусе PENDING или CONFIRMED
// Оплаченный депозит возвращается, резерв машины освобождается.
func (m *Machine) Cancel(ctx context.Context, b *domain.Booking, reason string) (*domain.Booking, error) {
	target, err := Decide(b.Status, b.DepositStatus, EventCancel)
	if err != nil {
		return nil, err
	}

	now := m.timeProvider.Now()
	upd := baseUpdate(b, target, now)
	upd.CancelledAt = &now
	if reason = strings.TrimSpace(reason); reason != "" {
		upd.CancelReason = &reason
	}

	updated, err := m.apply(ctx, b, EventCancel, target, upd, b.PaymentRef)
	if err != nil {
		return nil, err
	}

	// Неоплаченный платёж отменяем после фиксации; если он успеет пройти, ApplyDeposit вернёт деньги
	if !target.Refund && b.PaymentRef != nil {
		if err := m.refunder.CancelDeposit(ctx, b.ID, *b.PaymentRef); err != nil {
			m.logger.Warn("Lifecycle: booking id=%d cancelled, but payment %s was not cancelled: %v", b.ID, *b.PaymentRef, err)
		}
	}

	return updated, nil
}

// CheckOut выдача машины сотрудником: CONFIRMED -> IN_PROGRESS
func (m *Machine) CheckOut(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	target, err := Decide(b.Status, b.DepositStatus, EventCheckOut)
	if err != nil {
		return nil, err
	}

	upd := baseUpdate(b, target, m.timeProvider.Now())

	return m.apply(ctx, b, EventCheckOut, target, upd, b.PaymentRef)
}

// Complete приём машины сотрудником: IN_PROGRESS -> COMPLETED
// actualEndTime обязателен и не может быть раньше startTime бронирования.
func (m *Machine) Complete(ctx context.Context, b *domain.Booking, data domain.CompletionData) (*domain.Booking, error) {
	target, err := Decide(b.Status, b.DepositStatus, EventComplete)
	if err != nil {
		return nil, err
	}

	if err := validation.Struct(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCompletion, err)
	}
	if data.ActualEndTime.Before(b.StartTime) {
		return nil, fmt.Errorf("%w: actualEndTime precedes startTime", ErrInvalidCompletion)
	}

	upd := baseUpdate(b, target, m.timeProvider.Now())
	upd.ActualEndTime = data.ActualEndTime
	upd.ReturnOdometer = data.ReturnOdometer
	upd.BatteryLevelAtReturn = data.BatteryLevelAtReturn
	upd.DamageReport = data.DamageReport
	upd.CustomerRating = data.CustomerRating

	return m.apply(ctx, b, EventComplete, target, upd, b.PaymentRef)
}

// apply записывает переход и выполняет побочные эффекты в одной транзакции
func (m *Machine) apply(ctx context.Context, b *domain.Booking, event Event, target Target, upd domain.StateUpdate, paymentRef *string) (*domain.Booking, error) {
	err := m.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Compare-and-swap состояния
		if err := m.repo.UpdateState(txCtx, b.ID, upd); err != nil {
			if errors.Is(err, bookingRepo.ErrStateConflict) {
				return m.conflictError(txCtx, b.ID, event)
			}
			return fmt.Errorf("%w: update state: %v", ErrStorage, err)
		}

		// 2. Освобождаем резерв машины
		if target.Release {
			if err := m.releaser.Release(txCtx, b.ReservationToken); err != nil {
				return fmt.Errorf("%w: release reservation: %v", ErrStorage, err)
			}
		}

		// 3. Возвращаем депозит последним: при его ошибке откатятся шаги 1 и 2
		if target.Refund {
			if paymentRef == nil {
				m.logger.Warn("Lifecycle: booking id=%d deposit was marked paid without payment reference, refund must be issued manually", b.ID)
				return nil
			}
			if err := m.refunder.RefundDeposit(txCtx, b.ID, *paymentRef, b.Price.DepositAmount); err != nil {
				return fmt.Errorf("%w: %v", ErrRefund, err)
			}
		}

		return nil
	})

	// Транзакцию откатил postgres из-за конкурентной записи: это тот же проигранный CAS
	if errors.Is(err, txmanager.ErrSerialization) {
		err = m.conflictError(ctx, b.ID, event)
	}

	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			m.logger.Warn("Lifecycle: booking id=%d rejected: %v", b.ID, err)
		} else {
			m.logger.Error("Lifecycle: booking id=%d event=%s failed: %v", b.ID, event, err)
		}
		return nil, err
	}

	m.logger.Info("Lifecycle: booking id=%d %s/%s -> %s/%s (event %s)",
		b.ID, b.Status, b.DepositStatus, upd.Status, upd.DepositStatus, event)

	return applyUpdate(b, upd), nil
}

// conflictError перечитывает бронирование после проигранного compare-and-swap
// и описывает переход из фактического состояния
func (m *Machine) conflictError(ctx context.Context, id int64, event Event) error {
	current, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: reload after conflict: %v", ErrStorage, err)
	}

	return &TransitionError{
		Event:       event,
		From:        current.Status,
		FromDeposit: current.DepositStatus,
		To:          eventTargets[event],
	}
}

func baseUpdate(b *domain.Booking, target Target, now time.Time) domain.StateUpdate {
	return domain.StateUpdate{
		ExpectedStatus:  b.Status,
		ExpectedDeposit: b.DepositStatus,
		Status:          target.Status,
		DepositStatus:   target.DepositStatus,
		UpdatedAt:       now,
	}
}

// applyUpdate возвращает копию бронирования с применённым изменением
func applyUpdate(b *domain.Booking, upd domain.StateUpdate) *domain.Booking {
	out := *b
	out.Status = upd.Status
	out.DepositStatus = upd.DepositStatus
	out.UpdatedAt = upd.UpdatedAt

	if upd.DepositOutcomeID != nil {
		out.DepositOutcomeID = upd.DepositOutcomeID
	}
	if upd.DepositProcessedAt != nil {
		out.DepositProcessedAt = upd.DepositProcessedAt
	}
	if upd.ActualEndTime != nil {
		out.ActualEndTime = upd.ActualEndTime
	}
	if upd.ReturnOdometer != nil {
		out.ReturnOdometer = upd.ReturnOdometer
	}
	if upd.BatteryLevelAtReturn != nil {
		out.BatteryLevelAtReturn = upd.BatteryLevelAtReturn
	}
	if upd.DamageReport != nil {
		out.DamageReport = upd.DamageReport
	}
	if upd.CustomerRating != nil {
		out.CustomerRating = upd.CustomerRating
	}
	if upd.CancelReason != nil {
		out.CancelReason = upd.CancelReason
	}
	if upd.CancelledAt != nil {
		out.CancelledAt = upd.CancelledAt
	}

	return &out
}

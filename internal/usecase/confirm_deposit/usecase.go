package confirm_deposit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifier"
	"github.com/m04kA/SMC-RentalService/internal/service/lifecycle"
)

// UseCase use case применения результата оплаты депозита
// Идемпотентен: повторная доставка того же результата не меняет состояние и не повторяет побочные эффекты.
type UseCase struct {
	bookingRepo BookingRepository
	machine     DepositStateMachine
	notifier    Notifier
	metrics     Metrics
	timeout     time.Duration
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
// timeout ограничивает всю операцию, включая запись в хранилище
func NewUseCase(
	bookingRepo BookingRepository,
	machine DepositStateMachine,
	notifier Notifier,
	metrics Metrics,
	timeout time.Duration,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		machine:     machine,
		notifier:    notifier,
		metrics:     metrics,
		timeout:     timeout,
		logger:      logger,
	}
}

// Execute применяет результат оплаты к бронированию
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ConfirmDeposit: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("ConfirmDeposit: booking=%d, outcome=%s, status=%s",
		req.BookingID, req.Outcome.OutcomeID, req.Outcome.Status)

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	// 2. Получаем бронирование
	b, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("ConfirmDeposit: booking id=%d not found", req.BookingID)
			return nil, ErrBookingNotFound
		}
		return nil, uc.storageError(ctx, "failed to get booking", err)
	}

	// 3. Ручное подтверждение доступно только сотрудникам станции
	if req.Actor != nil && !req.Actor.CanOperateStation(b.StationID) {
		uc.logger.Warn("ConfirmDeposit: actor=%d cannot operate station=%d", req.Actor.ID, b.StationID)
		return nil, ErrAccessDenied
	}

	if req.Outcome.PaymentRef != "" && b.PaymentRef != nil && *b.PaymentRef != req.Outcome.PaymentRef {
		uc.logger.Warn("ConfirmDeposit: booking id=%d expects payment %s, got %s",
			b.ID, *b.PaymentRef, req.Outcome.PaymentRef)
		return nil, ErrPaymentMismatch
	}

	// 4. Повторная доставка
	if alreadyApplied(b, req.Outcome) {
		uc.logger.Info("ConfirmDeposit: outcome %s already applied to booking id=%d", req.Outcome.OutcomeID, b.ID)
		return &Response{Booking: b}, nil
	}

	// 5. PENDING не окончательный результат, бронирование не меняется
	if !req.Outcome.Status.IsTerminal() {
		uc.logger.Info("ConfirmDeposit: outcome for booking id=%d is still pending", b.ID)
		return &Response{Booking: b}, nil
	}

	// 6. Применяем переход
	updated, err := uc.machine.ApplyDeposit(ctx, b, req.Outcome)
	if err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			return uc.resolveConflict(ctx, req, err)
		}
		return nil, uc.storageError(ctx, "failed to apply outcome", err)
	}

	uc.logger.Info("ConfirmDeposit: booking id=%d is now %s, deposit %s", updated.ID, updated.Status, updated.DepositStatus)

	if uc.metrics != nil {
		uc.metrics.IncDepositOutcome(string(req.Outcome.Status))
	}

	eventType := notifier.EventBookingConfirmed
	switch updated.DepositStatus {
	case domain.DepositFailed:
		eventType = notifier.EventDepositFailed
	case domain.DepositRefunded:
		// оплата пришла по уже отменённому бронированию
		eventType = notifier.EventDepositRefunded
	}
	uc.notifier.Notify(ctx, eventType, updated)

	return &Response{Booking: updated, Applied: true}, nil
}

// resolveConflict отличает параллельную доставку того же результата от устаревшего результата
func (uc *UseCase) resolveConflict(ctx context.Context, req *Request, cause error) (*Response, error) {
	current, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, uc.storageError(ctx, "failed to reload booking", err)
	}

	if alreadyApplied(current, req.Outcome) {
		uc.logger.Info("ConfirmDeposit: outcome %s was applied concurrently to booking id=%d", req.Outcome.OutcomeID, current.ID)
		return &Response{Booking: current}, nil
	}

	uc.logger.Warn("ConfirmDeposit: stale outcome %s for booking id=%d: %v", req.Outcome.OutcomeID, current.ID, cause)
	return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, cause)
}

func (uc *UseCase) storageError(ctx context.Context, step string, err error) error {
	if ctx.Err() != nil {
		uc.logger.Warn("ConfirmDeposit: %s: timed out: %v", step, err)
		return fmt.Errorf("%w: %s: %v", ErrPaymentTimeout, step, err)
	}
	uc.logger.Error("ConfirmDeposit: %s: %v", step, err)
	return fmt.Errorf("%w: %s: %v", ErrInternal, step, err)
}

package depositpoller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/usecase/confirm_deposit"
)

// Результаты попыток для метрик
const (
	resultPaid      = "paid"
	resultFailed    = "failed"
	resultPending   = "pending"
	resultError     = "error"
	resultStopped   = "stopped"
	resultExhausted = "exhausted"
)

// noDepositOutcomeID идентификатор результата для машин без депозита
const noDepositOutcomeID = "no-deposit"

// Poller сверяет депозиты в ожидании со статусом платежного провайдера
//
// Каждое бронирование опрашивается с ограниченным числом попыток и экспоненциальной
// задержкой. Перед каждой попыткой бронирование перечитывается: если депозит уже
// не в ожидании (вебхук, ручное подтверждение, отмена), опрос прекращается.
type Poller struct {
	bookingRepo  BookingRepository
	provider     PaymentProvider
	confirmer    DepositConfirmer
	metrics      Metrics
	limiter      *rate.Limiter
	cfg          Config
	timeProvider TimeProvider
	sleep        func(ctx context.Context, d time.Duration) error
	logger       Logger

	mu       sync.Mutex
	inflight map[int64]struct{}

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPoller создает новый поллер
func NewPoller(
	bookingRepo BookingRepository,
	provider PaymentProvider,
	confirmer DepositConfirmer,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *Poller {
	cfg = cfg.withDefaults()

	return &Poller{
		bookingRepo:  bookingRepo,
		provider:     provider,
		confirmer:    confirmer,
		metrics:      metrics,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		cfg:          cfg,
		timeProvider: &RealTimeProvider{},
		sleep:        sleepContext,
		logger:       logger,
		inflight:     make(map[int64]struct{}),
	}
}

// WithTimeProvider подменяет источник времени
func (p *Poller) WithTimeProvider(tp TimeProvider) *Poller {
	p.timeProvider = tp
	return p
}

// WithSleep подменяет ожидание между попытками
func (p *Poller) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Poller {
	p.sleep = fn
	return p
}

// Start запускает обходы по расписанию
func (p *Poller) Start() error {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if _, err := p.cron.AddFunc(p.cfg.Schedule, p.runSweep); err != nil {
		p.cancel()
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, p.cfg.Schedule, err)
	}

	p.cron.Start()
	p.logger.Info("Deposit poller started, schedule=%q", p.cfg.Schedule)
	return nil
}

// Stop останавливает расписание и дожидается текущего обхода
func (p *Poller) Stop() {
	if p.cron == nil {
		return
	}

	p.logger.Info("Stopping deposit poller...")
	p.cancel()
	<-p.cron.Stop().Done()
	p.logger.Info("Deposit poller stopped")
}

func (p *Poller) runSweep() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.SweepTimeout)
	defer cancel()

	if _, err := p.Sweep(ctx); err != nil {
		p.logger.Error("Deposit poller: sweep failed: %v", err)
	}
}

// Sweep обходит бронирования с депозитом в ожидании
// Возвращает число бронирований, у которых депозит получил окончательный статус.
func (p *Poller) Sweep(ctx context.Context) (int, error) {
	pending, err := p.bookingRepo.ListPendingDeposits(ctx, p.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("%w: Sweep - list pending deposits: %v", ErrInternal, err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	p.logger.Info("Deposit poller: sweeping %d bookings", len(pending))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		resolved int
	)
	sem := make(chan struct{}, p.cfg.Workers)

	for _, b := range pending {
		select {
		case <-ctx.Done():
			wg.Wait()
			return resolved, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			defer func() { <-sem }()

			booking, err := p.Poll(ctx, id)
			switch {
			case err == nil:
				if !booking.AwaitsDeposit() {
					mu.Lock()
					resolved++
					mu.Unlock()
				}
			case errors.Is(err, ErrAlreadyPolling):
			default:
				p.logger.Warn("Deposit poller: booking id=%d: %v", id, err)
			}
		}(b.ID)
	}

	wg.Wait()
	p.logger.Info("Deposit poller: sweep finished, resolved=%d of %d", resolved, len(pending))
	return resolved, nil
}

// Poll опрашивает провайдера по одному бронированию до окончательного результата
// или исчерпания попыток (ErrPaymentTimeout). Если депозит уже не в ожидании,
// возвращает бронирование как есть.
func (p *Poller) Poll(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	if !p.claim(bookingID) {
		return nil, ErrAlreadyPolling
	}
	defer p.release(bookingID)

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, backoff(attempt-1, p.cfg.BaseBackoff, p.cfg.MaxBackoff)); err != nil {
				return nil, fmt.Errorf("%w: booking id=%d: %v", ErrPaymentTimeout, bookingID, err)
			}
		}

		// 1. Перечитываем бронирование перед каждой попыткой
		b, err := p.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return nil, ErrBookingNotFound
			}
			p.record(resultError)
			p.logger.Warn("Deposit poller: attempt %d for booking id=%d: failed to load booking: %v", attempt, bookingID, err)
			continue
		}

		// 2. Депозит уже получил статус другим путем
		if !b.AwaitsDeposit() {
			p.record(resultStopped)
			return b, nil
		}

		// 3. Одна попытка опроса
		done, err := p.attempt(ctx, b)
		if err != nil {
			p.record(resultError)
			p.logger.Warn("Deposit poller: attempt %d for booking id=%d failed: %v", attempt, bookingID, err)
			continue
		}
		if done != nil {
			return done, nil
		}
		p.record(resultPending)
	}

	p.record(resultExhausted)
	p.logger.Warn("Deposit poller: booking id=%d still pending after %d attempts", bookingID, p.cfg.MaxAttempts)
	return nil, fmt.Errorf("%w: booking id=%d", ErrPaymentTimeout, bookingID)
}

// attempt одна попытка: создает платеж при необходимости, запрашивает статус
// и применяет окончательный результат. Возвращает nil, nil, пока статус PENDING.
func (p *Poller) attempt(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	if b.Price.DepositAmount == 0 {
		return p.confirm(ctx, b, domain.PaymentOutcome{
			OutcomeID:  noDepositOutcomeID,
			Status:     domain.PaymentPaid,
			ReceivedAt: p.timeProvider.Now(),
		})
	}

	// Платеж мог не создаться при бронировании
	if b.PaymentRef == nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		ref, err := p.provider.InitiateDeposit(ctx, b.ID, b.Price.DepositAmount)
		if err != nil {
			return nil, fmt.Errorf("initiate deposit: %w", err)
		}
		if err := p.bookingRepo.SetPaymentRef(ctx, b.ID, ref); err != nil {
			return nil, fmt.Errorf("store payment ref: %w", err)
		}
		p.logger.Info("Deposit poller: initiated deposit %s for booking id=%d", ref, b.ID)
		b.PaymentRef = &ref
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	status, err := p.provider.GetPaymentStatus(ctx, *b.PaymentRef)
	if err != nil {
		return nil, fmt.Errorf("get payment status: %w", err)
	}
	if !status.IsTerminal() {
		return nil, nil
	}

	return p.confirm(ctx, b, domain.PaymentOutcome{
		OutcomeID:  fmt.Sprintf("poll:%s:%s", *b.PaymentRef, status),
		PaymentRef: *b.PaymentRef,
		Status:     status,
		ReceivedAt: p.timeProvider.Now(),
	})
}

func (p *Poller) confirm(ctx context.Context, b *domain.Booking, outcome domain.PaymentOutcome) (*domain.Booking, error) {
	resp, err := p.confirmer.Execute(ctx, &confirm_deposit.Request{
		BookingID: b.ID,
		Outcome:   outcome,
	})
	if err != nil {
		// Депозит получил статус параллельно, возвращаем актуальное состояние
		if errors.Is(err, confirm_deposit.ErrInvalidTransition) {
			p.record(resultStopped)
			return p.bookingRepo.GetByID(ctx, b.ID)
		}
		return nil, fmt.Errorf("confirm deposit: %w", err)
	}

	if outcome.Status == domain.PaymentPaid {
		p.record(resultPaid)
	} else {
		p.record(resultFailed)
	}

	p.logger.Info("Deposit poller: booking id=%d deposit resolved as %s (applied=%t)", b.ID, outcome.Status, resp.Applied)
	return resp.Booking, nil
}

func (p *Poller) claim(id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, busy := p.inflight[id]; busy {
		return false
	}
	p.inflight[id] = struct{}{}
	return true
}

func (p *Poller) release(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, id)
}

func (p *Poller) record(result string) {
	if p.metrics != nil {
		p.metrics.IncPollAttempt(result)
	}
}

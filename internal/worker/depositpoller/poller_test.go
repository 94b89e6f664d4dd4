package depositpoller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/memstore"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifier"
	"github.com/m04kA/SMC-RentalService/internal/service/lifecycle"
	"github.com/m04kA/SMC-RentalService/internal/usecase/confirm_deposit"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/ptr"
)

// MockPaymentProvider мок платежного провайдера
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) InitiateDeposit(ctx context.Context, bookingID int64, amount int64) (string, error) {
	args := m.Called(ctx, bookingID, amount)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) GetPaymentStatus(ctx context.Context, paymentRef string) (domain.PaymentStatus, error) {
	args := m.Called(ctx, paymentRef)
	return args.Get(0).(domain.PaymentStatus), args.Error(1)
}

type noRefunds struct{}

func (noRefunds) RefundDeposit(ctx context.Context, bookingID int64, paymentRef string, amount int64) error {
	return nil
}

func (noRefunds) CancelDeposit(ctx context.Context, bookingID int64, paymentRef string) error {
	return nil
}

type recordingMetrics struct {
	mu      sync.Mutex
	results []string
}

func (m *recordingMetrics) IncPollAttempt(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

var start = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memstore.Store
	machine  *lifecycle.Machine
	provider *MockPaymentProvider
	metrics  *recordingMetrics
	sleeper  *recordingSleep
	poller   *Poller
}

func newFixture() *fixture {
	log := logger.NewNop()
	store := memstore.New()
	machine := lifecycle.NewMachine(store.Bookings(), store.Reservations(), noRefunds{}, store.TxManager(), log)
	confirmer := confirm_deposit.NewUseCase(store.Bookings(), machine, notifier.New(nil, time.Second, log), nil, time.Second, log)
	provider := &MockPaymentProvider{}
	metrics := &recordingMetrics{}
	sleeper := &recordingSleep{}

	poller := NewPoller(store.Bookings(), provider, confirmer, metrics, Config{
		MaxAttempts: 4,
		BaseBackoff: time.Second,
		MaxBackoff:  3 * time.Second,
		RateLimit:   1000,
		Burst:       10,
	}, log).WithSleep(sleeper.sleep)

	return &fixture{
		store:    store,
		machine:  machine,
		provider: provider,
		metrics:  metrics,
		sleeper:  sleeper,
		poller:   poller,
	}
}

func (f *fixture) pendingBooking(t *testing.T, vehicleID int64, paymentRef *string, deposit int64) *domain.Booking {
	ctx := context.Background()
	res, err := f.store.Reservations().Reserve(ctx, vehicleID, start, start.Add(30*time.Hour))
	require.NoError(t, err)

	b, err := f.store.Bookings().Create(ctx, &domain.Booking{
		RenterID:         3,
		VehicleID:        vehicleID,
		StationID:        1,
		StartTime:        start,
		EndTime:          start.Add(30 * time.Hour),
		Status:           domain.StatusPending,
		DepositStatus:    domain.DepositPending,
		ReservationToken: res.Token,
		PaymentRef:       paymentRef,
		Price:            domain.PriceBreakdown{Subtotal: 309, TotalAmount: 309, DepositAmount: deposit},
	})
	require.NoError(t, err)
	return b
}

func TestBackoff(t *testing.T) {
	base, max := time.Second, 10*time.Second

	assert.Equal(t, time.Second, backoff(1, base, max))
	assert.Equal(t, 2*time.Second, backoff(2, base, max))
	assert.Equal(t, 4*time.Second, backoff(3, base, max))
	assert.Equal(t, 8*time.Second, backoff(4, base, max))
	assert.Equal(t, max, backoff(5, base, max))
	assert.Equal(t, max, backoff(64, base, max))
}

func TestPoller_Poll_PaidAfterPending(t *testing.T) {
	f := newFixture()
	b := f.pendingBooking(t, 7, ptr.Ptr("pi_1"), 500)

	f.provider.On("GetPaymentStatus", mock.Anything, "pi_1").Return(domain.PaymentPending, nil).Twice()
	f.provider.On("GetPaymentStatus", mock.Anything, "pi_1").Return(domain.PaymentPaid, nil).Once()

	got, err := f.poller.Poll(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.Equal(t, domain.DepositPaid, got.DepositStatus)
	assert.Equal(t, "poll:pi_1:PAID", *got.DepositOutcomeID)

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.sleeper.delays)
	assert.Equal(t, []string{resultPending, resultPending, resultPaid}, f.metrics.results)
	f.provider.AssertExpectations(t)
}

func TestPoller_Poll_FailedOutcome(t *testing.T) {
	f := newFixture()
	b := f.pendingBooking(t, 7, ptr.Ptr("pi_1"), 500)

	f.provider.On("GetPaymentStatus", mock.Anything, "pi_1").Return(domain.PaymentFailed, nil).Once()

	got, err := f.poller.Poll(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, domain.DepositFailed, got.DepositStatus)
}

func TestPoller_Poll_BudgetExhausted(t *testing.T) {
	f := newFixture()
	b := f.pendingBooking(t, 7, ptr.Ptr("pi_1"), 500)

	f.provider.On("GetPaymentStatus", mock.Anything, "pi_1").Return(domain.PaymentPending, nil)

	_, err := f.poller.Poll(context.Background(), b.ID)
	assert.ErrorIs(t, err, ErrPaymentTimeout)

	// задержка ограничена MaxBackoff
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, f.sleeper.delays)
	f.provider.AssertNumberOfCalls(t, "GetPaymentStatus", 4)

	stored, err := f.store.Bookings().GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, stored.AwaitsDeposit())
}

func TestPoller_Poll_ProviderErrorsAreRetried(t *testing.T) {
	f := newFixture()
	b := f.pendingBooking(t, 7, ptr.Ptr("pi_1"), 500)

	f.provider.On("GetPaymentStatus", mock.Anything, "pi_1").Return(domain.PaymentPending, errors.New("timeout")).Once()
	f.provider.On("GetPaymentStatus", mock.Anything, "pi_1").Return(domain.PaymentPaid, nil).Once()

	got, err := f.poller.Poll(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositPaid, got.DepositStatus)
	assert.Equal(t, []string{resultError, resultPaid}, f.metrics.results)
}

func TestPoller_Poll_StopsWhenResolvedElsewhere(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.pendingBooking(t, 7, ptr.Ptr("pi_1"), 500)

	// пока поллер ждет, сотрудник подтверждает депозит вручную
	f.provider.On("GetPaymentStatus", mock.Anything, "pi_1").Return(domain.PaymentPending, nil).Once().
		Run(func(args mock.Arguments) {
			_, err := f.machine.ApplyDeposit(ctx, b, domain.PaymentOutcome{OutcomeID: "manual:1", Status: domain.PaymentPaid})
			require.NoError(t, err)
		})

	got, err := f.poller.Poll(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositPaid, got.DepositStatus)
	assert.Equal(t, "manual:1", *got.DepositOutcomeID)
	f.provider.AssertNumberOfCalls(t, "GetPaymentStatus", 1)
	assert.Equal(t, []string{resultPending, resultStopped}, f.metrics.results)
}

func TestPoller_Poll_StaleFailureAfterManualConfirm(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.pendingBooking(t, 7, ptr.Ptr("pi_1"), 500)

	// провайдер отвечает FAILED, но депозит уже подтвержден вручную
	f.provider.On("GetPaymentStatus", mock.Anything, "pi_1").Return(domain.PaymentFailed, nil).Once().
		Run(func(args mock.Arguments) {
			_, err := f.machine.ApplyDeposit(ctx, b, domain.PaymentOutcome{OutcomeID: "manual:1", Status: domain.PaymentPaid})
			require.NoError(t, err)
		})

	got, err := f.poller.Poll(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.Equal(t, domain.DepositPaid, got.DepositStatus)
}

func TestPoller_Poll_InitiatesMissingDeposit(t *testing.T) {
	f := newFixture()
	b := f.pendingBooking(t, 7, nil, 500)

	f.provider.On("InitiateDeposit", mock.Anything, b.ID, int64(500)).Return("pi_new", nil).Once()
	f.provider.On("GetPaymentStatus", mock.Anything, "pi_new").Return(domain.PaymentPaid, nil).Once()

	got, err := f.poller.Poll(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_new", *got.PaymentRef)
	assert.Equal(t, domain.DepositPaid, got.DepositStatus)
	f.provider.AssertExpectations(t)
}

func TestPoller_Poll_ZeroDepositConfirmsWithoutProvider(t *testing.T) {
	f := newFixture()
	b := f.pendingBooking(t, 7, nil, 0)

	got, err := f.poller.Poll(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	f.provider.AssertNotCalled(t, "InitiateDeposit", mock.Anything, mock.Anything, mock.Anything)
	f.provider.AssertNotCalled(t, "GetPaymentStatus", mock.Anything, mock.Anything)
}

func TestPoller_Poll_AlreadyResolved(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.pendingBooking(t, 7, ptr.Ptr("pi_1"), 500)
	_, err := f.machine.ApplyDeposit(ctx, b, domain.PaymentOutcome{OutcomeID: "evt_1", Status: domain.PaymentPaid})
	require.NoError(t, err)

	got, err := f.poller.Poll(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositPaid, got.DepositStatus)
	f.provider.AssertNotCalled(t, "GetPaymentStatus", mock.Anything, mock.Anything)

	_, err = f.poller.Poll(ctx, 999)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestPoller_Poll_RejectsConcurrentPollOfSameBooking(t *testing.T) {
	f := newFixture()
	b := f.pendingBooking(t, 7, ptr.Ptr("pi_1"), 500)

	require.True(t, f.poller.claim(b.ID))
	_, err := f.poller.Poll(context.Background(), b.ID)
	assert.ErrorIs(t, err, ErrAlreadyPolling)
	f.poller.release(b.ID)
}

func TestPoller_Sweep(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	paid := f.pendingBooking(t, 7, ptr.Ptr("pi_1"), 500)
	failed := f.pendingBooking(t, 8, ptr.Ptr("pi_2"), 500)
	stuck := f.pendingBooking(t, 9, ptr.Ptr("pi_3"), 500)

	f.provider.On("GetPaymentStatus", mock.Anything, "pi_1").Return(domain.PaymentPaid, nil)
	f.provider.On("GetPaymentStatus", mock.Anything, "pi_2").Return(domain.PaymentFailed, nil)
	f.provider.On("GetPaymentStatus", mock.Anything, "pi_3").Return(domain.PaymentPending, nil)

	resolved, err := f.poller.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, resolved)

	for id, want := range map[int64]domain.DepositStatus{
		paid.ID:   domain.DepositPaid,
		failed.ID: domain.DepositFailed,
		stuck.ID:  domain.DepositPending,
	} {
		got, err := f.store.Bookings().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.DepositStatus, "booking %d", id)
	}

	// второй обход видит только зависшее бронирование
	pending, err := f.store.Bookings().ListPendingDeposits(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, stuck.ID, pending[0].ID)
}

func TestPoller_StartRejectsInvalidSchedule(t *testing.T) {
	f := newFixture()
	f.poller.cfg.Schedule = "every minute"

	err := f.poller.Start()
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

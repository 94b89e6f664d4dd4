package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/memstore"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/ptr"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

// MockRefunder мок платёжного провайдера для возвратов
type MockRefunder struct {
	mock.Mock
}

func (m *MockRefunder) RefundDeposit(ctx context.Context, bookingID int64, paymentRef string, amount int64) error {
	args := m.Called(ctx, bookingID, paymentRef, amount)
	return args.Error(0)
}

func (m *MockRefunder) CancelDeposit(ctx context.Context, bookingID int64, paymentRef string) error {
	args := m.Called(ctx, bookingID, paymentRef)
	return args.Error(0)
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

var (
	start = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	end   = start.Add(30 * time.Hour)
	now   = start.Add(-48 * time.Hour)
)

type fixture struct {
	store    *memstore.Store
	refunder *MockRefunder
	machine  *Machine
}

func newFixture() *fixture {
	store := memstore.New()
	refunder := &MockRefunder{}
	m := NewMachine(store.Bookings(), store.Reservations(), refunder, store.TxManager(), logger.NewNop()).
		WithTimeProvider(fixedTime{now})

	return &fixture{store: store, refunder: refunder, machine: m}
}

// createBooking резервирует машину и создает бронирование в заданном состоянии
func (f *fixture) createBooking(t *testing.T, status domain.BookingStatus, deposit domain.DepositStatus) *domain.Booking {
	ctx := context.Background()

	res, err := f.store.Reservations().Reserve(ctx, 7, start, end)
	require.NoError(t, err)

	b, err := f.store.Bookings().Create(ctx, &domain.Booking{
		RenterID:         3,
		VehicleID:        7,
		StationID:        1,
		StartTime:        start,
		EndTime:          end,
		Status:           status,
		DepositStatus:    deposit,
		ReservationToken: res.Token,
		PaymentRef:       ptr.Ptr("pi_1"),
		Price:            domain.PriceBreakdown{TotalAmount: 309, DepositAmount: 500},
	})
	require.NoError(t, err)

	return b
}

func (f *fixture) vehicleFree(t *testing.T) bool {
	busy, err := f.store.Reservations().FindOverlapping(context.Background(), 7, start, end)
	require.NoError(t, err)
	return len(busy) == 0
}

func (f *fixture) reload(t *testing.T, id int64) *domain.Booking {
	b, err := f.store.Bookings().GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

// TestMachine_FailedDepositKeepsBookingCancellable неудачная оплата: PENDING/FAILED, отмена доступна
func TestMachine_FailedDepositKeepsBookingCancellable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.createBooking(t, domain.StatusPending, domain.DepositPending)

	updated, err := f.machine.ApplyDeposit(ctx, b, domain.PaymentOutcome{OutcomeID: "evt_1", Status: domain.PaymentFailed})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, updated.Status)
	assert.Equal(t, domain.DepositFailed, updated.DepositStatus)
	assert.Equal(t, "evt_1", *updated.DepositOutcomeID)
	assert.True(t, updated.CanBeCancelled())

	f.refunder.On("CancelDeposit", mock.Anything, b.ID, "pi_1").Return(nil).Once()

	cancelled, err := f.machine.Cancel(ctx, updated, "changed plans")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, domain.DepositFailed, cancelled.DepositStatus)
	assert.Equal(t, "changed plans", *cancelled.CancelReason)
	assert.True(t, f.vehicleFree(t))

	// возврат не запрашивался, платёж отменён
	f.refunder.AssertNotCalled(t, "RefundDeposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.refunder.AssertExpectations(t)
}

// TestMachine_CancelPaidBookingRefundsAndReleases отмена оплаченного бронирования освобождает окно
func TestMachine_CancelPaidBookingRefundsAndReleases(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.createBooking(t, domain.StatusPending, domain.DepositPending)

	confirmed, err := f.machine.ApplyDeposit(ctx, b, domain.PaymentOutcome{OutcomeID: "evt_1", Status: domain.PaymentPaid})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)
	assert.Equal(t, domain.DepositPaid, confirmed.DepositStatus)
	assert.False(t, f.vehicleFree(t))

	f.refunder.On("RefundDeposit", mock.Anything, b.ID, "pi_1", int64(500)).Return(nil).Once()

	cancelled, err := f.machine.Cancel(ctx, confirmed, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, domain.DepositRefunded, cancelled.DepositStatus)
	assert.Nil(t, cancelled.CancelReason)
	assert.Equal(t, now, *cancelled.CancelledAt)

	stored := f.reload(t, b.ID)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
	assert.Equal(t, domain.DepositRefunded, stored.DepositStatus)

	// окно снова свободно
	_, err = f.store.Reservations().Reserve(ctx, 7, start, end)
	assert.NoError(t, err)

	f.refunder.AssertExpectations(t)
}

func TestMachine_RefundFailureRollsBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.createBooking(t, domain.StatusConfirmed, domain.DepositPaid)

	f.refunder.On("RefundDeposit", mock.Anything, b.ID, "pi_1", int64(500)).Return(errors.New("provider down"))

	_, err := f.machine.Cancel(ctx, b, "")
	assert.ErrorIs(t, err, ErrRefund)

	stored := f.reload(t, b.ID)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
	assert.Equal(t, domain.DepositPaid, stored.DepositStatus)
	assert.False(t, f.vehicleFree(t))
}

func TestMachine_CancelTerminalBookingIsRejected(t *testing.T) {
	for _, tc := range []struct {
		status  domain.BookingStatus
		deposit domain.DepositStatus
	}{
		{domain.StatusCompleted, domain.DepositPaid},
		{domain.StatusCancelled, domain.DepositRefunded},
		{domain.StatusCancelled, domain.DepositPending},
		{domain.StatusInProgress, domain.DepositPaid},
	} {
		t.Run(string(tc.status)+"/"+string(tc.deposit), func(t *testing.T) {
			f := newFixture()
			b := f.createBooking(t, tc.status, tc.deposit)

			_, err := f.machine.Cancel(context.Background(), b, "")
			assert.ErrorIs(t, err, ErrInvalidTransition)

			stored := f.reload(t, b.ID)
			assert.Equal(t, tc.status, stored.Status)
			assert.Equal(t, tc.deposit, stored.DepositStatus)
		})
	}
}

func TestMachine_CheckOutAndComplete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.createBooking(t, domain.StatusConfirmed, domain.DepositPaid)

	inProgress, err := f.machine.CheckOut(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, inProgress.Status)
	assert.False(t, f.vehicleFree(t))

	actualEnd := end.Add(2 * time.Hour)
	completed, err := f.machine.Complete(ctx, inProgress, domain.CompletionData{
		ActualEndTime:        &actualEnd,
		ReturnOdometer:       ptr.Ptr(int64(12500)),
		BatteryLevelAtReturn: ptr.Ptr(64),
		DamageReport:         ptr.Ptr("scratch on rear bumper"),
		CustomerRating:       ptr.Ptr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)
	assert.Equal(t, domain.DepositPaid, completed.DepositStatus)
	assert.Equal(t, actualEnd, *completed.ActualEndTime)
	assert.True(t, f.vehicleFree(t))

	stored := f.reload(t, b.ID)
	assert.Equal(t, int64(12500), *stored.ReturnOdometer)
	assert.Equal(t, 5, *stored.CustomerRating)
}

func TestMachine_CompleteValidation(t *testing.T) {
	beforeStart := start.Add(-time.Minute)
	actualEnd := end

	tests := []struct {
		name string
		data domain.CompletionData
	}{
		{
			name: "missing actual end time",
			data: domain.CompletionData{ReturnOdometer: ptr.Ptr(int64(1)), BatteryLevelAtReturn: ptr.Ptr(50)},
		},
		{
			name: "actual end before start",
			data: domain.CompletionData{ActualEndTime: &beforeStart, ReturnOdometer: ptr.Ptr(int64(1)), BatteryLevelAtReturn: ptr.Ptr(50)},
		},
		{
			name: "rating out of range",
			data: domain.CompletionData{ActualEndTime: &actualEnd, ReturnOdometer: ptr.Ptr(int64(1)), BatteryLevelAtReturn: ptr.Ptr(50), CustomerRating: ptr.Ptr(6)},
		},
		{
			name: "battery above hundred",
			data: domain.CompletionData{ActualEndTime: &actualEnd, ReturnOdometer: ptr.Ptr(int64(1)), BatteryLevelAtReturn: ptr.Ptr(101)},
		},
		{
			name: "negative odometer",
			data: domain.CompletionData{ActualEndTime: &actualEnd, ReturnOdometer: ptr.Ptr(int64(-1)), BatteryLevelAtReturn: ptr.Ptr(50)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			b := f.createBooking(t, domain.StatusInProgress, domain.DepositPaid)

			_, err := f.machine.Complete(context.Background(), b, tt.data)
			assert.ErrorIs(t, err, ErrInvalidCompletion)

			stored := f.reload(t, b.ID)
			assert.Equal(t, domain.StatusInProgress, stored.Status)
		})
	}
}

// TestMachine_StaleBookingLosesCompareAndSwap переход по устаревшей копии отклоняется с фактическим состоянием
func TestMachine_StaleBookingLosesCompareAndSwap(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	stale := f.createBooking(t, domain.StatusPending, domain.DepositPending)

	_, err := f.machine.ApplyDeposit(ctx, stale, domain.PaymentOutcome{OutcomeID: "evt_1", Status: domain.PaymentPaid})
	require.NoError(t, err)

	_, err = f.machine.ApplyDeposit(ctx, stale, domain.PaymentOutcome{OutcomeID: "evt_2", Status: domain.PaymentFailed})
	require.ErrorIs(t, err, ErrInvalidTransition)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusConfirmed, te.From)
	assert.Equal(t, domain.DepositPaid, te.FromDeposit)

	stored := f.reload(t, stale.ID)
	assert.Equal(t, "evt_1", *stored.DepositOutcomeID)
}

func TestMachine_PendingOutcomeIsNotApplied(t *testing.T) {
	f := newFixture()
	b := f.createBooking(t, domain.StatusPending, domain.DepositPending)

	_, err := f.machine.ApplyDeposit(context.Background(), b, domain.PaymentOutcome{OutcomeID: "evt_1", Status: domain.PaymentPending})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachine_CancelPendingCancelsPayment(t *testing.T) {
	t.Run("Payment cancelled", func(t *testing.T) {
		f := newFixture()
		b := f.createBooking(t, domain.StatusPending, domain.DepositPending)

		f.refunder.On("CancelDeposit", mock.Anything, b.ID, "pi_1").Return(nil).Once()

		cancelled, err := f.machine.Cancel(context.Background(), b, "")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
		assert.Equal(t, domain.DepositPending, cancelled.DepositStatus)
		assert.True(t, f.vehicleFree(t))
		f.refunder.AssertExpectations(t)
	})

	t.Run("Provider error does not undo cancellation", func(t *testing.T) {
		f := newFixture()
		b := f.createBooking(t, domain.StatusPending, domain.DepositPending)

		f.refunder.On("CancelDeposit", mock.Anything, b.ID, "pi_1").Return(errors.New("provider down")).Once()

		cancelled, err := f.machine.Cancel(context.Background(), b, "")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)

		stored := f.reload(t, b.ID)
		assert.Equal(t, domain.StatusCancelled, stored.Status)
		assert.True(t, f.vehicleFree(t))
	})
}

// TestMachine_PaidAfterCancelIsRefunded оплата, пришедшая после отмены, возвращается
func TestMachine_PaidAfterCancelIsRefunded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.createBooking(t, domain.StatusPending, domain.DepositPending)

	f.refunder.On("CancelDeposit", mock.Anything, b.ID, "pi_1").Return(errors.New("payment_intent_unexpected_state")).Once()

	cancelled, err := f.machine.Cancel(ctx, b, "")
	require.NoError(t, err)

	// окно уже занял другой арендатор
	_, err = f.store.Reservations().Reserve(ctx, 7, start, end)
	require.NoError(t, err)

	f.refunder.On("RefundDeposit", mock.Anything, b.ID, "pi_1", int64(500)).Return(nil).Once()

	refunded, err := f.machine.ApplyDeposit(ctx, cancelled, domain.PaymentOutcome{OutcomeID: "evt_late", PaymentRef: "pi_1", Status: domain.PaymentPaid})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, refunded.Status)
	assert.Equal(t, domain.DepositRefunded, refunded.DepositStatus)

	stored := f.reload(t, b.ID)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
	assert.Equal(t, domain.DepositRefunded, stored.DepositStatus)
	assert.Equal(t, "evt_late", *stored.DepositOutcomeID)

	f.refunder.AssertExpectations(t)
}

func TestMachine_PaidAfterCancelRefundFailureRollsBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.createBooking(t, domain.StatusCancelled, domain.DepositPending)

	f.refunder.On("RefundDeposit", mock.Anything, b.ID, "pi_1", int64(500)).Return(errors.New("provider down"))

	_, err := f.machine.ApplyDeposit(ctx, b, domain.PaymentOutcome{OutcomeID: "evt_late", Status: domain.PaymentPaid})
	assert.ErrorIs(t, err, ErrRefund)

	// повторная доставка сможет вернуть деньги
	stored := f.reload(t, b.ID)
	assert.Equal(t, domain.DepositPending, stored.DepositStatus)
	assert.Nil(t, stored.DepositOutcomeID)
}

func TestMachine_RefundUsesOutcomePaymentRef(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.createBooking(t, domain.StatusCancelled, domain.DepositFailed)
	b.PaymentRef = nil

	f.refunder.On("RefundDeposit", mock.Anything, b.ID, "pi_from_event", int64(500)).Return(nil).Once()

	refunded, err := f.machine.ApplyDeposit(ctx, b, domain.PaymentOutcome{OutcomeID: "evt_late", PaymentRef: "pi_from_event", Status: domain.PaymentPaid})
	require.NoError(t, err)
	assert.Equal(t, domain.DepositRefunded, refunded.DepositStatus)
	f.refunder.AssertExpectations(t)
}

// serializationFailure транзакция, которую postgres откатил из-за конкурентной записи
type serializationFailure struct{}

func (serializationFailure) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fmt.Errorf("%w: pq: could not serialize access due to concurrent update", txmanager.ErrSerialization)
}

// TestMachine_SerializationFailureIsConflict проигравшая транзакция отклоняется как переход, а не как сбой хранилища
func TestMachine_SerializationFailureIsConflict(t *testing.T) {
	f := newFixture()
	stale := f.createBooking(t, domain.StatusPending, domain.DepositPending)

	// победитель уже подтвердил бронирование
	_, err := f.machine.ApplyDeposit(context.Background(), stale, domain.PaymentOutcome{OutcomeID: "evt_1", Status: domain.PaymentPaid})
	require.NoError(t, err)

	loser := NewMachine(f.store.Bookings(), f.store.Reservations(), f.refunder, serializationFailure{}, logger.NewNop()).
		WithTimeProvider(fixedTime{now})

	_, err = loser.ApplyDeposit(context.Background(), stale, domain.PaymentOutcome{OutcomeID: "evt_2", Status: domain.PaymentFailed})
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.NotErrorIs(t, err, ErrStorage)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusConfirmed, te.From)
	assert.Equal(t, domain.DepositPaid, te.FromDeposit)
}

package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testBooking() *domain.Booking {
	return &domain.Booking{
		ID:            10,
		RenterID:      5,
		VehicleID:     7,
		Status:        domain.StatusPending,
		DepositStatus: domain.DepositPending,
		Price:         domain.PriceBreakdown{TotalAmount: 309},
	}
}

func TestNotifier_Notify(t *testing.T) {
	w := &fakeWriter{}
	n := New(w, time.Second, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	n.Notify(ctx, EventBookingCreated, testBooking())
	cancel()

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "5", string(w.msgs[0].Key))

	var ev Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, EventBookingCreated, ev.Type)
	assert.Equal(t, int64(10), ev.BookingID)
	assert.Equal(t, int64(309), ev.Total)
}

func TestNotifier_WriteErrorIsSwallowed(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	n := New(w, time.Second, logger.NewNop())

	n.Notify(context.Background(), EventBookingCancelled, testBooking())

	require.NoError(t, n.Close())
	assert.Empty(t, w.msgs)
}

func TestNotifier_Disabled(t *testing.T) {
	n := New(nil, time.Second, logger.NewNop())

	n.Notify(context.Background(), EventBookingCreated, testBooking())
	assert.NoError(t, n.Close())
}

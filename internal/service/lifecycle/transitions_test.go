package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

type pair struct {
	status  domain.BookingStatus
	deposit domain.DepositStatus
}

var allDeposits = []domain.DepositStatus{
	domain.DepositPending,
	domain.DepositPaid,
	domain.DepositFailed,
	domain.DepositRefunded,
}

var allEvents = []Event{EventDepositPaid, EventDepositFailed, EventCancel, EventCheckOut, EventComplete}

func TestDecide_AllowedTransitions(t *testing.T) {
	tests := []struct {
		from  pair
		event Event
		want  Target
	}{
		{pair{domain.StatusPending, domain.DepositPending}, EventDepositPaid, Target{Status: domain.StatusConfirmed, DepositStatus: domain.DepositPaid}},
		{pair{domain.StatusPending, domain.DepositFailed}, EventDepositPaid, Target{Status: domain.StatusConfirmed, DepositStatus: domain.DepositPaid}},
		{pair{domain.StatusCancelled, domain.DepositPending}, EventDepositPaid, Target{Status: domain.StatusCancelled, DepositStatus: domain.DepositRefunded, Refund: true}},
		{pair{domain.StatusCancelled, domain.DepositFailed}, EventDepositPaid, Target{Status: domain.StatusCancelled, DepositStatus: domain.DepositRefunded, Refund: true}},
		{pair{domain.StatusPending, domain.DepositPending}, EventDepositFailed, Target{Status: domain.StatusPending, DepositStatus: domain.DepositFailed}},
		{pair{domain.StatusPending, domain.DepositFailed}, EventDepositFailed, Target{Status: domain.StatusPending, DepositStatus: domain.DepositFailed}},
		{pair{domain.StatusPending, domain.DepositPending}, EventCancel, Target{Status: domain.StatusCancelled, DepositStatus: domain.DepositPending, Release: true}},
		{pair{domain.StatusPending, domain.DepositFailed}, EventCancel, Target{Status: domain.StatusCancelled, DepositStatus: domain.DepositFailed, Release: true}},
		{pair{domain.StatusConfirmed, domain.DepositPaid}, EventCancel, Target{Status: domain.StatusCancelled, DepositStatus: domain.DepositRefunded, Refund: true, Release: true}},
		{pair{domain.StatusConfirmed, domain.DepositPaid}, EventCheckOut, Target{Status: domain.StatusInProgress, DepositStatus: domain.DepositPaid}},
		{pair{domain.StatusInProgress, domain.DepositPaid}, EventComplete, Target{Status: domain.StatusCompleted, DepositStatus: domain.DepositPaid, Release: true}},
	}

	for _, tt := range tests {
		t.Run(string(tt.from.status)+"/"+string(tt.from.deposit)+"/"+string(tt.event), func(t *testing.T) {
			got, err := Decide(tt.from.status, tt.from.deposit, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestDecide_Exhaustive всё, что не разрешено таблицей, отклоняется с TransitionError
func TestDecide_Exhaustive(t *testing.T) {
	allowed := map[pair]map[Event]bool{
		{domain.StatusPending, domain.DepositPending}:   {EventDepositPaid: true, EventDepositFailed: true, EventCancel: true},
		{domain.StatusPending, domain.DepositFailed}:    {EventDepositPaid: true, EventDepositFailed: true, EventCancel: true},
		{domain.StatusConfirmed, domain.DepositPaid}:    {EventCancel: true, EventCheckOut: true},
		{domain.StatusInProgress, domain.DepositPaid}:   {EventComplete: true},
		{domain.StatusCancelled, domain.DepositPending}: {EventDepositPaid: true},
		{domain.StatusCancelled, domain.DepositFailed}:  {EventDepositPaid: true},
	}

	for _, status := range domain.AllStatuses {
		for _, deposit := range allDeposits {
			for _, event := range allEvents {
				p := pair{status, deposit}
				_, err := Decide(status, deposit, event)

				if allowed[p][event] {
					assert.NoError(t, err, "%s/%s %s", status, deposit, event)
					continue
				}

				require.Error(t, err, "%s/%s %s", status, deposit, event)
				assert.ErrorIs(t, err, ErrInvalidTransition)

				var te *TransitionError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, status, te.From)
				assert.Equal(t, eventTargets[event], te.To)
			}
		}
	}
}

func TestTransitionError_Message(t *testing.T) {
	_, err := Decide(domain.StatusCompleted, domain.DepositPaid, EventCancel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMPLETED -> CANCELLED")
}

package confirm_deposit

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

func validateRequest(req *Request) error {
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingId must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Outcome.OutcomeID) == "" {
		return fmt.Errorf("%w: outcome id is required", ErrInvalidInput)
	}

	switch req.Outcome.Status {
	case domain.PaymentPaid, domain.PaymentFailed, domain.PaymentPending:
	default:
		return fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, req.Outcome.Status)
	}

	return nil
}

// alreadyApplied проверяет, что результат уже отражен в бронировании
// Тот же outcome id или PAID поверх уже оплаченного депозита не меняют состояние.
func alreadyApplied(b *domain.Booking, outcome domain.PaymentOutcome) bool {
	if b.DepositOutcomeID != nil && *b.DepositOutcomeID == outcome.OutcomeID {
		return true
	}
	if outcome.Status == domain.PaymentPaid {
		return b.DepositStatus == domain.DepositPaid || b.DepositStatus == domain.DepositRefunded
	}
	return false
}

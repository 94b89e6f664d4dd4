package confirm_deposit

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
	confirmDeposit "github.com/m04kA/SMC-RentalService/internal/usecase/confirm_deposit"
)

// ConfirmDepositRequest ручное подтверждение депозита сотрудником
type ConfirmDepositRequest struct {
	Status     string  `json:"status"`               // PAID | FAILED
	PaymentRef *string `json:"paymentRef,omitempty"` // платеж, по которому принято решение
	OutcomeID  *string `json:"outcomeId,omitempty"`  // ключ идемпотентности, по умолчанию manual:<actor>:<status>
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ConfirmDepositRequest) ToUseCaseRequest(bookingID int64, actor *domain.Actor, now time.Time) *confirmDeposit.Request {
	status := domain.PaymentStatus(strings.ToUpper(strings.TrimSpace(r.Status)))

	outcomeID := fmt.Sprintf("manual:%d:%s", actor.ID, status)
	if r.OutcomeID != nil && strings.TrimSpace(*r.OutcomeID) != "" {
		outcomeID = strings.TrimSpace(*r.OutcomeID)
	}

	var ref string
	if r.PaymentRef != nil {
		ref = *r.PaymentRef
	}

	return &confirmDeposit.Request{
		BookingID: bookingID,
		Actor:     actor,
		Outcome: domain.PaymentOutcome{
			OutcomeID:  outcomeID,
			PaymentRef: ref,
			Status:     status,
			ReceivedAt: now,
		},
	}
}

// ConfirmDepositResponse ответ с бронированием и признаком применения
type ConfirmDepositResponse struct {
	Applied bool                    `json:"applied"`
	Booking *models.BookingResponse `json:"booking"`
}

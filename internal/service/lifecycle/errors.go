package lifecycle

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrInvalidTransition переход отсутствует в таблице переходов
	ErrInvalidTransition = errors.New("lifecycle: invalid transition")

	// ErrInvalidCompletion данные завершения аренды не прошли проверку
	ErrInvalidCompletion = errors.New("lifecycle: invalid completion data")

	// ErrRefund платёжный провайдер не смог вернуть депозит
	ErrRefund = errors.New("lifecycle: deposit refund failed")

	// ErrStorage ошибка хранилища
	ErrStorage = errors.New("lifecycle: storage error")
)

// TransitionError отклонённый переход с исходным и целевым состоянием
// errors.Is(err, ErrInvalidTransition) == true
type TransitionError struct {
	Event       Event
	From        domain.BookingStatus
	FromDeposit domain.DepositStatus
	To          domain.BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s (event %s, deposit %s)", ErrInvalidTransition, e.From, e.To, e.Event, e.FromDeposit)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

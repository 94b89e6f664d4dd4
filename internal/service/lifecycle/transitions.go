package lifecycle

import (
	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Event событие, меняющее состояние бронирования
type Event string

const (
	EventDepositPaid   Event = "deposit_paid"
	EventDepositFailed Event = "deposit_failed"
	EventCancel        Event = "cancel"
	EventCheckOut      Event = "check_out"
	EventComplete      Event = "complete"
)

// Target результат разрешённого перехода
type Target struct {
	Status        domain.BookingStatus
	DepositStatus domain.DepositStatus

	// Refund депозит нужно вернуть через провайдера
	Refund bool
	// Release резерв машины нужно освободить
	Release bool
}

type rule struct {
	from     domain.BookingStatus
	deposits []domain.DepositStatus
	to       domain.BookingStatus
}

// eventTargets целевой статус каждого события
var eventTargets = map[Event]domain.BookingStatus{
	EventDepositPaid:   domain.StatusConfirmed,
	EventDepositFailed: domain.StatusPending,
	EventCancel:        domain.StatusCancelled,
	EventCheckOut:      domain.StatusInProgress,
	EventComplete:      domain.StatusCompleted,
}

// transitions таблица переходов; всё, чего здесь нет, запрещено
var transitions = map[Event][]rule{
	EventDepositPaid: {
		{from: domain.StatusPending, deposits: []domain.DepositStatus{domain.DepositPending, domain.DepositFailed}, to: domain.StatusConfirmed},
		// оплата пришла после отмены: бронирование остаётся отменённым, деньги возвращаются
		{from: domain.StatusCancelled, deposits: []domain.DepositStatus{domain.DepositPending, domain.DepositFailed}, to: domain.StatusCancelled},
	},
	EventDepositFailed: {
		{from: domain.StatusPending, deposits: []domain.DepositStatus{domain.DepositPending, domain.DepositFailed}, to: domain.StatusPending},
	},
	EventCancel: {
		{from: domain.StatusPending, deposits: []domain.DepositStatus{domain.DepositPending, domain.DepositFailed}, to: domain.StatusCancelled},
		{from: domain.StatusConfirmed, deposits: []domain.DepositStatus{domain.DepositPaid}, to: domain.StatusCancelled},
	},
	EventCheckOut: {
		{from: domain.StatusConfirmed, deposits: []domain.DepositStatus{domain.DepositPaid}, to: domain.StatusInProgress},
	},
	EventComplete: {
		{from: domain.StatusInProgress, deposits: []domain.DepositStatus{domain.DepositPaid}, to: domain.StatusCompleted},
	},
}

// Decide проверяет переход по таблице и возвращает целевое состояние
// Чистая функция, состояние не меняет.
func Decide(status domain.BookingStatus, deposit domain.DepositStatus, event Event) (Target, error) {
	for _, r := range transitions[event] {
		if r.from != status || !containsDeposit(r.deposits, deposit) {
			continue
		}

		t := Target{Status: r.to, DepositStatus: deposit}
		switch event {
		case EventDepositPaid:
			t.DepositStatus = domain.DepositPaid
			if r.to == domain.StatusCancelled {
				t.DepositStatus = domain.DepositRefunded
				t.Refund = true
			}
		case EventDepositFailed:
			t.DepositStatus = domain.DepositFailed
		case EventCancel:
			if deposit == domain.DepositPaid {
				t.DepositStatus = domain.DepositRefunded
				t.Refund = true
			}
		}

		// Уход из активного статуса в терминальный всегда освобождает машину
		t.Release = domain.IsActiveStatus(status) && (r.to == domain.StatusCancelled || r.to == domain.StatusCompleted)

		return t, nil
	}

	return Target{}, &TransitionError{
		Event:       event,
		From:        status,
		FromDeposit: deposit,
		To:          eventTargets[event],
	}
}

func containsDeposit(list []domain.DepositStatus, s domain.DepositStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

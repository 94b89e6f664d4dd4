package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifier"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
	"github.com/m04kA/SMC-RentalService/internal/service/lifecycle"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo BookingRepository
	machine     StateMachine
	notifier    Notifier
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	machine StateMachine,
	notifier Notifier,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		machine:     machine,
		notifier:    notifier,
		logger:      logger,
	}
}

// GetByID получает бронирование по ID
// Арендатор видит только свои бронирования, сотрудник - бронирования своих станций
func (s *Service) GetByID(ctx context.Context, actor *domain.Actor, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for actor=%d", id, actor.ID)

	booking, err := s.load(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if !canView(actor, booking) {
		s.logger.Warn("GetByID: access denied for actor=%d to booking id=%d", actor.ID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// List получает бронирования с фильтрацией
// Фильтр сужается по роли: арендатор получает только свои бронирования,
// сотрудник только бронирования назначенных станций (без назначений - пустой список).
func (s *Service) List(ctx context.Context, actor *domain.Actor, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("List: fetching bookings for actor=%d, role=%s", actor.ID, actor.Role)

	filter, err := scopeFilter(actor, req)
	if err != nil {
		s.logger.Warn("List: invalid filter for actor=%d: %v", actor.ID, err)
		return nil, err
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error for actor=%d: %v", actor.ID, err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: successfully fetched %d bookings for actor=%d", len(bookings), actor.ID)
	return models.FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование
// Арендатор отменяет свои бронирования, сотрудник - бронирования своих станций
func (s *Service) Cancel(ctx context.Context, actor *domain.Actor, id int64, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d by actor=%d", id, actor.ID)

	if len(req.Reason) > domain.MaxCancelReasonLength {
		return nil, fmt.Errorf("%w: reason longer than %d characters", ErrInvalidInput, domain.MaxCancelReasonLength)
	}

	booking, err := s.load(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}

	if !canView(actor, booking) {
		s.logger.Warn("Cancel: access denied for actor=%d to booking id=%d", actor.ID, id)
		return nil, ErrAccessDenied
	}

	cancelled, err := s.machine.Cancel(ctx, booking, req.Reason)
	if err != nil {
		return nil, s.transitionError("Cancel", id, err)
	}

	s.logger.Info("Cancel: successfully cancelled booking id=%d, deposit=%s", id, cancelled.DepositStatus)
	s.notifier.Notify(ctx, notifier.EventBookingCancelled, cancelled)

	return models.FromDomainBooking(cancelled), nil
}

// CheckOut выдача машины арендатору
// Доступно только сотрудникам станции бронирования
func (s *Service) CheckOut(ctx context.Context, actor *domain.Actor, id int64) (*models.BookingResponse, error) {
	s.logger.Info("CheckOut: booking id=%d by actor=%d", id, actor.ID)

	booking, err := s.load(ctx, "CheckOut", id)
	if err != nil {
		return nil, err
	}

	if !actor.CanOperateStation(booking.StationID) {
		s.logger.Warn("CheckOut: access denied for actor=%d to booking id=%d", actor.ID, id)
		return nil, ErrAccessDenied
	}

	started, err := s.machine.CheckOut(ctx, booking)
	if err != nil {
		return nil, s.transitionError("CheckOut", id, err)
	}

	s.logger.Info("CheckOut: booking id=%d is in progress", id)
	s.notifier.Notify(ctx, notifier.EventBookingStarted, started)

	return models.FromDomainBooking(started), nil
}

// Complete приём машины и завершение аренды
// Доступно только сотрудникам станции бронирования
func (s *Service) Complete(ctx context.Context, actor *domain.Actor, id int64, data *models.CompleteBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Complete: booking id=%d by actor=%d", id, actor.ID)

	booking, err := s.load(ctx, "Complete", id)
	if err != nil {
		return nil, err
	}

	if !actor.CanOperateStation(booking.StationID) {
		s.logger.Warn("Complete: access denied for actor=%d to booking id=%d", actor.ID, id)
		return nil, ErrAccessDenied
	}

	completed, err := s.machine.Complete(ctx, booking, *data)
	if err != nil {
		return nil, s.transitionError("Complete", id, err)
	}

	s.logger.Info("Complete: booking id=%d completed", id)
	s.notifier.Notify(ctx, notifier.EventBookingCompleted, completed)

	return models.FromDomainBooking(completed), nil
}

// Вспомогательные методы

func (s *Service) load(ctx context.Context, op string, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

// transitionError переводит ошибки машины состояний в ошибки сервиса
func (s *Service) transitionError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		s.logger.Warn("%s: booking id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case errors.Is(err, lifecycle.ErrInvalidCompletion):
		s.logger.Warn("%s: booking id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %v", ErrInvalidCompletion, err)
	case errors.Is(err, lifecycle.ErrRefund):
		s.logger.Error("%s: booking id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %v", ErrRefundFailed, err)
	default:
		s.logger.Error("%s: booking id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
	}
}

// canView проверяет, что пользователь имеет доступ к бронированию
func canView(actor *domain.Actor, b *domain.Booking) bool {
	if actor.IsStaff() {
		return actor.CanOperateStation(b.StationID)
	}
	return b.RenterID == actor.ID
}

// scopeFilter строит фильтр хранилища с учетом роли пользователя
func scopeFilter(actor *domain.Actor, req *models.ListBookingsRequest) (domain.BookingFilter, error) {
	filter := domain.BookingFilter{
		RenterID:  req.RenterID,
		VehicleID: req.VehicleID,
		From:      req.From,
		To:        req.To,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}

	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *req.Status)
		}
		filter.Status = &status
	}

	if req.From != nil && req.To != nil && !req.To.After(*req.From) {
		return filter, fmt.Errorf("%w: to must be after from", ErrInvalidInput)
	}

	switch {
	case filter.Limit < 0 || filter.Offset < 0:
		return filter, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidInput)
	case filter.Limit == 0:
		filter.Limit = domain.DefaultListLimit
	case filter.Limit > domain.MaxListLimit:
		filter.Limit = domain.MaxListLimit
	}

	if req.StationID != nil {
		filter.StationIDs = []int64{*req.StationID}
	}

	switch {
	case !actor.IsStaff():
		id := actor.ID
		filter.RenterID = &id
	case actor.IsStationRestricted():
		filter.StationIDs = allowedStations(actor.StationAssignments, filter.StationIDs)
	}

	return filter, nil
}

// allowedStations пересечение запрошенных станций с назначенными
// Результат не nil: пустой срез означает "ни одной станции"
func allowedStations(assigned, requested []int64) []int64 {
	out := make([]int64, 0, len(assigned))
	for _, id := range assigned {
		if requested == nil || containsID(requested, id) {
			out = append(out, id)
		}
	}
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

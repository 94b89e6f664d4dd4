package create_booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	promotionRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/promotion"
	identityClient "github.com/m04kA/SMC-RentalService/internal/integrations/identityservice"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifier"
	vehicleClient "github.com/m04kA/SMC-RentalService/internal/integrations/vehicleservice"
	"github.com/m04kA/SMC-RentalService/internal/service/availability"
	"github.com/m04kA/SMC-RentalService/internal/service/pricing"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

// noDepositOutcomeID идентификатор результата для машин без депозита
const noDepositOutcomeID = "no-deposit"

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo   BookingRepository
	promotionRepo PromotionRepository
	guard         AvailabilityGuard
	vehicles      VehicleDirectory
	rateCards     RateCardProvider
	renters       RenterDirectory
	deposits      DepositInitiator
	confirmer     DepositConfirmer
	notifier      Notifier
	metrics       Metrics
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	promotionRepo PromotionRepository,
	guard AvailabilityGuard,
	vehicles VehicleDirectory,
	rateCards RateCardProvider,
	renters RenterDirectory,
	deposits DepositInitiator,
	confirmer DepositConfirmer,
	notifier Notifier,
	metrics Metrics,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		promotionRepo: promotionRepo,
		guard:         guard,
		vehicles:      vehicles,
		rateCards:     rateCards,
		renters:       renters,
		deposits:      deposits,
		confirmer:     confirmer,
		notifier:      notifier,
		metrics:       metrics,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования
// Резерв машины и запись бронирования выполняются в одной сериализуемой транзакции:
// при конфликте окна бронирование не создается.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	now := uc.timeProvider.Now()
	if err := validateRequest(req, now); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("CreateBooking: actor=%d, vehicle=%d, window=[%s, %s)",
		req.Actor.ID, req.VehicleID, req.StartTime.Format(timeLayout), req.EndTime.Format(timeLayout))

	// 2. Определяем арендатора
	renterID, err := resolveRenter(req.Actor, req.RenterID)
	if err != nil {
		uc.logger.Warn("CreateBooking: actor=%d: %v", req.Actor.ID, err)
		return nil, err
	}

	// 3. Получаем машину и проверяем станцию
	vehicle, err := uc.vehicles.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, vehicleClient.ErrVehicleNotFound) {
			uc.logger.Warn("CreateBooking: vehicle id=%d not found", req.VehicleID)
			return nil, ErrVehicleNotFound
		}
		uc.logger.Error("CreateBooking: failed to get vehicle id=%d: %v", req.VehicleID, err)
		return nil, fmt.Errorf("%w: failed to get vehicle: %v", ErrInternal, err)
	}

	stationID, err := resolveStation(vehicle, req.StationID)
	if err != nil {
		uc.logger.Warn("CreateBooking: vehicle id=%d belongs to station=%d", vehicle.ID, vehicle.StationID)
		return nil, err
	}

	if req.Actor.IsStaff() && !req.Actor.CanOperateStation(stationID) {
		uc.logger.Warn("CreateBooking: staff=%d is not assigned to station=%d", req.Actor.ID, stationID)
		return nil, ErrAccessDenied
	}

	if !vehicle.Status.IsBookable() {
		uc.logger.Warn("CreateBooking: vehicle id=%d is %s", vehicle.ID, vehicle.Status)
		return nil, fmt.Errorf("%w: vehicle is %s", ErrVehicleUnavailable, vehicle.Status)
	}

	// 3.1. Занятое окно отсекаем до обращений к тарифам и арендатору, окончательно решает Reserve
	free, err := uc.guard.IsAvailable(ctx, req.VehicleID, req.StartTime, req.EndTime)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to check availability of vehicle id=%d: %v", req.VehicleID, err)
		return nil, fmt.Errorf("%w: failed to check availability: %v", ErrInternal, err)
	}
	if !free {
		uc.logger.Warn("CreateBooking: vehicle id=%d is busy in [%s, %s)",
			req.VehicleID, req.StartTime.Format(timeLayout), req.EndTime.Format(timeLayout))
		return nil, ErrVehicleUnavailable
	}

	// 4. Получаем тариф
	rateCard, err := uc.rateCards.GetRateCard(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, vehicleClient.ErrRateCardNotFound) {
			uc.logger.Warn("CreateBooking: vehicle id=%d has no rate card", req.VehicleID)
			return nil, ErrIncompleteRateCard
		}
		uc.logger.Error("CreateBooking: failed to get rate card for vehicle id=%d: %v", req.VehicleID, err)
		return nil, fmt.Errorf("%w: failed to get rate card: %v", ErrInternal, err)
	}

	// 5. Проверяем арендатора
	if _, err := uc.renters.GetRenter(ctx, renterID); err != nil {
		if errors.Is(err, identityClient.ErrUserNotFound) {
			uc.logger.Warn("CreateBooking: renter id=%d not found", renterID)
			return nil, ErrRenterNotFound
		}
		uc.logger.Error("CreateBooking: failed to get renter id=%d: %v", renterID, err)
		return nil, fmt.Errorf("%w: failed to get renter: %v", ErrInternal, err)
	}

	// 6. Получаем промокод
	var promo *domain.Promotion
	if req.PromotionCode != nil {
		promo, err = uc.promotionRepo.GetByCode(ctx, strings.TrimSpace(*req.PromotionCode))
		if err != nil {
			if errors.Is(err, promotionRepo.ErrPromotionNotFound) {
				uc.logger.Warn("CreateBooking: promotion %q not found", *req.PromotionCode)
				return nil, fmt.Errorf("%w: promotion not found", ErrInvalidPromotion)
			}
			uc.logger.Error("CreateBooking: failed to get promotion: %v", err)
			return nil, fmt.Errorf("%w: failed to get promotion: %v", ErrInternal, err)
		}
	}

	// 7. Считаем цену, при ошибке резерв не создается
	price, err := pricing.Calculate(pricing.Input{
		RateCard:  *rateCard,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Promotion: promo,
		PricedAt:  now,
	})
	if err != nil {
		uc.logger.Warn("CreateBooking: pricing failed for vehicle id=%d: %v", req.VehicleID, err)
		return nil, translatePricingError(err)
	}

	booking := &domain.Booking{
		RenterID:      renterID,
		VehicleID:     req.VehicleID,
		StationID:     stationID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        domain.StatusPending,
		DepositStatus: domain.DepositPending,
		Price:         price,
	}
	if promo != nil {
		booking.PromotionID = &promo.ID
	}

	// 8. Резервируем машину и сохраняем бронирование в одной транзакции
	var created *domain.Booking
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 8.1. Условная запись резерва, конфликт окна отсекается хранилищем
		token, err := uc.guard.Reserve(txCtx, req.VehicleID, req.StartTime, req.EndTime)
		if err != nil {
			if errors.Is(err, availability.ErrConflict) {
				return ErrVehicleUnavailable
			}
			uc.logger.Error("CreateBooking: failed to reserve vehicle id=%d: %v", req.VehicleID, err)
			return fmt.Errorf("%w: failed to reserve vehicle: %v", ErrInternal, err)
		}
		booking.ReservationToken = token

		// 8.2. Сохраняем бронирование
		created, err = uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		return nil
	})
	// postgres откатил транзакцию из-за конкурентного резерва той же машины
	if errors.Is(err, txmanager.ErrSerialization) {
		err = ErrVehicleUnavailable
	}
	if err != nil {
		if errors.Is(err, ErrVehicleUnavailable) {
			uc.logger.Warn("CreateBooking: vehicle id=%d already reserved for [%s, %s)",
				req.VehicleID, req.StartTime.Format(timeLayout), req.EndTime.Format(timeLayout))
		}
		return nil, err
	}

	uc.logger.Info("CreateBooking: created booking id=%d, total=%d, deposit=%d",
		created.ID, created.Price.TotalAmount, created.Price.DepositAmount)

	// 9. Запрашиваем оплату депозита, ошибки подхватит поллер
	created = uc.startDeposit(ctx, created)

	// 10. Уведомляем арендатора
	uc.notifier.Notify(ctx, notifier.EventBookingCreated, created)

	if uc.metrics != nil {
		uc.metrics.IncBookingCreated()
	}

	return &Response{Booking: created}, nil
}

// startDeposit создает платеж депозита или сразу подтверждает бронирование без депозита
func (uc *UseCase) startDeposit(ctx context.Context, b *domain.Booking) *domain.Booking {
	if b.Price.DepositAmount == 0 {
		confirmed, err := uc.confirmer.ApplyDeposit(ctx, b, domain.PaymentOutcome{
			OutcomeID:  noDepositOutcomeID,
			Status:     domain.PaymentPaid,
			ReceivedAt: uc.timeProvider.Now(),
		})
		if err != nil {
			uc.logger.Error("CreateBooking: failed to confirm booking id=%d without deposit: %v", b.ID, err)
			return b
		}
		return confirmed
	}

	ref, err := uc.deposits.InitiateDeposit(ctx, b.ID, b.Price.DepositAmount)
	if err != nil {
		uc.logger.Warn("CreateBooking: deposit initiation deferred for booking id=%d: %v", b.ID, err)
		return b
	}

	if err := uc.bookingRepo.SetPaymentRef(ctx, b.ID, ref); err != nil {
		uc.logger.Error("CreateBooking: failed to store payment ref for booking id=%d: %v", b.ID, err)
		return b
	}

	b.PaymentRef = &ref
	return b
}

func translatePricingError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrInvalidWindow):
		return fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	case errors.Is(err, pricing.ErrIncompleteRateCard):
		return fmt.Errorf("%w: %v", ErrIncompleteRateCard, err)
	case errors.Is(err, pricing.ErrInvalidPromotion):
		return fmt.Errorf("%w: %v", ErrInvalidPromotion, err)
	default:
		return fmt.Errorf("%w: pricing: %v", ErrInternal, err)
	}
}

const timeLayout = "2006-01-02T15:04Z07:00"

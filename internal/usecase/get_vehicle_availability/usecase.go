package get_vehicle_availability

import (
	"context"
	"errors"
	"fmt"

	vehicleClient "github.com/m04kA/SMC-RentalService/internal/integrations/vehicleservice"
	"github.com/m04kA/SMC-RentalService/internal/service/pricing"
)

// UseCase use case поиска свободных окон машины
type UseCase struct {
	guard        AvailabilityGuard
	vehicles     VehicleDirectory
	rateCards    RateCardProvider
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	guard AvailabilityGuard,
	vehicles VehicleDirectory,
	rateCards RateCardProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		guard:        guard,
		vehicles:     vehicles,
		rateCards:    rateCards,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute возвращает занятые и свободные интервалы машины в окне и цену всего окна
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetVehicleAvailability: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("GetVehicleAvailability: vehicle=%d, window=[%s, %s)",
		req.VehicleID, req.StartTime.Format("2006-01-02T15:04"), req.EndTime.Format("2006-01-02T15:04"))

	// 2. Получаем машину
	vehicle, err := uc.vehicles.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, vehicleClient.ErrVehicleNotFound) {
			uc.logger.Warn("GetVehicleAvailability: vehicle id=%d not found", req.VehicleID)
			return nil, ErrVehicleNotFound
		}
		uc.logger.Error("GetVehicleAvailability: failed to get vehicle id=%d: %v", req.VehicleID, err)
		return nil, fmt.Errorf("%w: failed to get vehicle: %v", ErrInternal, err)
	}

	// 3. Получаем активные резервы в окне
	reservations, err := uc.guard.Busy(ctx, req.VehicleID, req.StartTime, req.EndTime)
	if err != nil {
		uc.logger.Error("GetVehicleAvailability: failed to get reservations for vehicle id=%d: %v", req.VehicleID, err)
		return nil, fmt.Errorf("%w: failed to get reservations: %v", ErrInternal, err)
	}

	busy := busyWindows(reservations, req.StartTime, req.EndTime)

	resp := &Response{
		VehicleID: vehicle.ID,
		StationID: vehicle.StationID,
		Status:    vehicle.Status,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Available: len(busy) == 0 && vehicle.Status.IsBookable(),
		Busy:      busy,
		Free:      freeWindows(busy, req.StartTime, req.EndTime),
	}

	// 4. Предварительная цена, ошибки тарифа не мешают ответу
	card, err := uc.rateCards.GetRateCard(ctx, req.VehicleID)
	if err != nil {
		uc.logger.Warn("GetVehicleAvailability: no rate card for vehicle id=%d: %v", req.VehicleID, err)
		return resp, nil
	}

	quote, err := pricing.Calculate(pricing.Input{
		RateCard:  *card,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		PricedAt:  uc.timeProvider.Now(),
	})
	if err != nil {
		uc.logger.Warn("GetVehicleAvailability: cannot quote vehicle id=%d: %v", req.VehicleID, err)
		return resp, nil
	}
	resp.Quote = &quote

	return resp, nil
}

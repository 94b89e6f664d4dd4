package vehicleservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Client клиент для работы с VehicleService (справочник машин и тарифов)
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает новый экземпляр клиента VehicleService
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetVehicle получает машину со станцией и статусом
func (c *Client) GetVehicle(ctx context.Context, vehicleID int64) (*domain.Vehicle, error) {
	var v Vehicle
	url := fmt.Sprintf("%s/internal/vehicles/%d", c.baseURL, vehicleID)
	if err := c.get(ctx, url, ErrVehicleNotFound, &v); err != nil {
		return nil, err
	}

	return &domain.Vehicle{
		ID:        v.ID,
		StationID: v.StationID,
		Status:    domain.VehicleStatus(v.Status),
	}, nil
}

// GetRateCard получает тариф машины
func (c *Client) GetRateCard(ctx context.Context, vehicleID int64) (*domain.RateCard, error) {
	var rc RateCard
	url := fmt.Sprintf("%s/internal/vehicles/%d/rate-card", c.baseURL, vehicleID)
	if err := c.get(ctx, url, ErrRateCardNotFound, &rc); err != nil {
		return nil, err
	}

	return &domain.RateCard{
		VehicleID:     vehicleID,
		HourlyRate:    rc.HourlyRate,
		DailyRate:     rc.DailyRate,
		WeeklyRate:    rc.WeeklyRate,
		MonthlyRate:   rc.MonthlyRate,
		DepositAmount: rc.DepositAmount,
		InsuranceRate: rc.InsuranceRate,
	}, nil
}

func (c *Client) get(ctx context.Context, url string, notFound error, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return notFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return nil
}

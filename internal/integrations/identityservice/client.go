package identityservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Client клиент для работы с IdentityService
// Акторы кэшируются в памяти процесса на actorTTL: назначения на станции меняются редко,
// а актор нужен на каждый запрос.
type Client struct {
	baseURL    string
	httpClient *http.Client
	actors     *cache.Cache
	log        Logger
}

// NewClient создает новый экземпляр клиента IdentityService
// actorTTL = 0 отключает кэширование
func NewClient(baseURL string, timeout, actorTTL time.Duration, log Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
	if actorTTL > 0 {
		c.actors = cache.New(actorTTL, 2*actorTTL)
	}
	return c
}

// GetActor получает роль и назначения на станции пользователя
func (c *Client) GetActor(ctx context.Context, userID int64) (*domain.Actor, error) {
	key := strconv.FormatInt(userID, 10)
	if c.actors != nil {
		if cached, ok := c.actors.Get(key); ok {
			actor := cached.(domain.Actor)
			return &actor, nil
		}
	}

	var dto Actor
	if err := c.get(ctx, fmt.Sprintf("%s/internal/users/%d/actor", c.baseURL, userID), &dto); err != nil {
		return nil, err
	}

	actor, err := toDomainActor(dto)
	if err != nil {
		return nil, err
	}

	if c.actors != nil {
		c.actors.SetDefault(key, actor)
	}

	return &actor, nil
}

// GetRenter получает контактные данные арендатора
func (c *Client) GetRenter(ctx context.Context, renterID int64) (*domain.Renter, error) {
	var user User
	if err := c.get(ctx, fmt.Sprintf("%s/internal/users/%d", c.baseURL, renterID), &user); err != nil {
		return nil, err
	}

	return &domain.Renter{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	}, nil
}

// InvalidateActor удаляет актора из кэша
func (c *Client) InvalidateActor(userID int64) {
	if c.actors != nil {
		c.actors.Delete(strconv.FormatInt(userID, 10))
	}
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
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

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusBadRequest:
		return fmt.Errorf("%w: invalid user ID format", ErrInvalidResponse)
	case http.StatusNotFound:
		return ErrUserNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	// Парсим ответ
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return nil
}

func toDomainActor(dto Actor) (domain.Actor, error) {
	role := domain.Role(dto.Role)
	switch role {
	case domain.RoleRenter, domain.RoleStaff, domain.RoleAdmin:
	default:
		return domain.Actor{}, fmt.Errorf("%w: %q", ErrUnknownRole, dto.Role)
	}

	return domain.Actor{
		ID:                 dto.ID,
		Role:               role,
		StationAssignments: dto.StationAssignments,
	}, nil
}

package promotions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	promotionRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/promotion"
	"github.com/m04kA/SMC-RentalService/internal/service/promotions/models"
	"github.com/m04kA/SMC-RentalService/pkg/validation"
)

// Service сервис для работы с промо-акциями
type Service struct {
	promotionRepo PromotionRepository
	logger        Logger
}

// NewService создает новый экземпляр сервиса промо-акций
func NewService(promotionRepo PromotionRepository, logger Logger) *Service {
	return &Service{
		promotionRepo: promotionRepo,
		logger:        logger,
	}
}

// Create создает новую промо-акцию
// Доступно только администраторам
func (s *Service) Create(ctx context.Context, actor *domain.Actor, req *models.CreatePromotionRequest) (*models.PromotionResponse, error) {
	s.logger.Info("Create: creating promotion code=%q by actor=%d", req.Code, actor.ID)

	// 1. Проверяем права доступа
	if actor.Role != domain.RoleAdmin {
		s.logger.Warn("Create: actor=%d with role=%s is not an admin", actor.ID, actor.Role)
		return nil, ErrAccessDenied
	}

	// 2. Валидируем входные данные
	if err := validateCreate(req); err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	// 3. Создаем промо-акцию
	created, err := s.promotionRepo.Create(ctx, req.ToDomainPromotion())
	if err != nil {
		if errors.Is(err, promotionRepo.ErrDuplicateCode) {
			s.logger.Warn("Create: promotion code=%q already exists", req.Code)
			return nil, ErrPromotionExists
		}
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Create: successfully created promotion id=%d, code=%s", created.ID, created.Code)
	return models.FromDomainPromotion(created), nil
}

// GetByCode получает промо-акцию по коду
// Арендатор видит только действующие акции, сотрудники - любые
func (s *Service) GetByCode(ctx context.Context, actor *domain.Actor, code string) (*models.PromotionResponse, error) {
	s.logger.Info("GetByCode: fetching promotion code=%q", code)

	promo, err := s.promotionRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, promotionRepo.ErrPromotionNotFound) {
			s.logger.Warn("GetByCode: promotion code=%q not found", code)
			return nil, ErrPromotionNotFound
		}
		s.logger.Error("GetByCode: repository error for code=%q: %v", code, err)
		return nil, fmt.Errorf("%w: GetByCode - repository error: %v", ErrInternal, err)
	}

	if !actor.IsStaff() && !promo.IsActive {
		s.logger.Warn("GetByCode: promotion code=%q is inactive, hidden from actor=%d", code, actor.ID)
		return nil, ErrPromotionNotFound
	}

	return models.FromDomainPromotion(promo), nil
}

// List получает список промо-акций
// Доступно только сотрудникам
func (s *Service) List(ctx context.Context, actor *domain.Actor, activeOnly bool) (*models.PromotionListResponse, error) {
	s.logger.Info("List: fetching promotions, activeOnly=%t", activeOnly)

	if !actor.IsStaff() {
		s.logger.Warn("List: actor=%d is not staff", actor.ID)
		return nil, ErrAccessDenied
	}

	list, err := s.promotionRepo.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: successfully fetched %d promotions", len(list))
	return models.FromDomainPromotionList(list), nil
}

// SetActive включает или выключает промо-акцию
// Уже созданные бронирования не меняются: скидка фиксируется при создании
func (s *Service) SetActive(ctx context.Context, actor *domain.Actor, id int64, active bool) (*models.PromotionResponse, error) {
	s.logger.Info("SetActive: promotion id=%d active=%t by actor=%d", id, active, actor.ID)

	if actor.Role != domain.RoleAdmin {
		s.logger.Warn("SetActive: actor=%d with role=%s is not an admin", actor.ID, actor.Role)
		return nil, ErrAccessDenied
	}

	if err := s.promotionRepo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, promotionRepo.ErrPromotionNotFound) {
			s.logger.Warn("SetActive: promotion id=%d not found", id)
			return nil, ErrPromotionNotFound
		}
		s.logger.Error("SetActive: repository error for id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: SetActive - repository error: %v", ErrInternal, err)
	}

	promo, err := s.promotionRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("SetActive: failed to reload promotion id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: SetActive - reload: %v", ErrInternal, err)
	}

	return models.FromDomainPromotion(promo), nil
}

// validateCreate проверяет форму промо-акции
func validateCreate(req *models.CreatePromotionRequest) error {
	req.DiscountType = strings.ToUpper(strings.TrimSpace(req.DiscountType))

	if err := validation.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if strings.TrimSpace(req.Code) == "" {
		return fmt.Errorf("%w: code is empty", ErrInvalidInput)
	}

	if domain.DiscountType(req.DiscountType) == domain.DiscountPercentage && req.DiscountValue > 100 {
		return fmt.Errorf("%w: percentage discount must not exceed 100", ErrInvalidInput)
	}

	if req.ValidFrom != nil && req.ValidTo != nil && !req.ValidTo.After(*req.ValidFrom) {
		return fmt.Errorf("%w: validTo must be after validFrom", ErrInvalidInput)
	}

	return nil
}

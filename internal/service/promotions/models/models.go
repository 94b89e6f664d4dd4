package models

import (
	"strings"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Request модели

// CreatePromotionRequest запрос на создание промо-акции
type CreatePromotionRequest struct {
	Code          string     `json:"code" validate:"required,max=64"`
	DiscountType  string     `json:"discountType" validate:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue float64    `json:"discountValue" validate:"gt=0"`
	ValidFrom     *time.Time `json:"validFrom,omitempty"`
	ValidTo       *time.Time `json:"validTo,omitempty"`
	IsActive      *bool      `json:"isActive,omitempty"` // по умолчанию true
}

// ToDomainPromotion конвертирует запрос в domain модель
func (r *CreatePromotionRequest) ToDomainPromotion() *domain.Promotion {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}

	return &domain.Promotion{
		Code:          strings.ToUpper(strings.TrimSpace(r.Code)),
		DiscountType:  domain.DiscountType(r.DiscountType),
		DiscountValue: r.DiscountValue,
		ValidFrom:     r.ValidFrom,
		ValidTo:       r.ValidTo,
		IsActive:      active,
	}
}

// Response модели

// PromotionResponse ответ с данными промо-акции
type PromotionResponse struct {
	ID            int64      `json:"id"`
	Code          string     `json:"code"`
	DiscountType  string     `json:"discountType"`
	DiscountValue float64    `json:"discountValue"`
	ValidFrom     *time.Time `json:"validFrom,omitempty"`
	ValidTo       *time.Time `json:"validTo,omitempty"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PromotionListResponse ответ со списком промо-акций
type PromotionListResponse struct {
	Promotions []PromotionResponse `json:"promotions"`
}

// FromDomainPromotion конвертирует domain модель в DTO
func FromDomainPromotion(p *domain.Promotion) *PromotionResponse {
	if p == nil {
		return nil
	}

	return &PromotionResponse{
		ID:            p.ID,
		Code:          p.Code,
		DiscountType:  string(p.DiscountType),
		DiscountValue: p.DiscountValue,
		ValidFrom:     p.ValidFrom,
		ValidTo:       p.ValidTo,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// FromDomainPromotionList конвертирует список domain моделей в DTO
func FromDomainPromotionList(list []*domain.Promotion) *PromotionListResponse {
	resp := &PromotionListResponse{
		Promotions: make([]PromotionResponse, 0, len(list)),
	}
	for _, p := range list {
		resp.Promotions = append(resp.Promotions, *FromDomainPromotion(p))
	}
	return resp
}

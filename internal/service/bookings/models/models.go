package models

import (
	"errors"
	"strings"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// CompleteBookingRequest данные приёма машины
type CompleteBookingRequest = domain.CompletionData

// ListBookingsRequest фильтр списка бронирований
// Для арендатора и сотрудника станции фильтр дополнительно сужается сервисом.
type ListBookingsRequest struct {
	RenterID  *int64
	VehicleID *int64
	StationID *int64
	Status    *string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Response модели

// PriceResponse разбивка цены
type PriceResponse struct {
	BilledHours    int64 `json:"billedHours"`
	WeeklyQuantity int64 `json:"weeklyQuantity"`
	DailyQuantity  int64 `json:"dailyQuantity"`
	HourlyQuantity int64 `json:"hourlyQuantity"`
	WeeklyCost     int64 `json:"weeklyCost"`
	DailyCost      int64 `json:"dailyCost"`
	HourlyCost     int64 `json:"hourlyCost"`

	BasePrice       int64 `json:"basePrice"`
	InsuranceAmount int64 `json:"insuranceAmount"`
	TaxAmount       int64 `json:"taxAmount"`
	DiscountAmount  int64 `json:"discountAmount"`
	Subtotal        int64 `json:"subtotal"`
	TotalAmount     int64 `json:"totalAmount"`
	DepositAmount   int64 `json:"depositAmount"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID          int64  `json:"id"`
	RenterID    int64  `json:"renterId"`
	VehicleID   int64  `json:"vehicleId"`
	StationID   int64  `json:"stationId"`
	PromotionID *int64 `json:"promotionId,omitempty"`

	StartTime     time.Time  `json:"startTime"`
	EndTime       time.Time  `json:"endTime"`
	ActualEndTime *time.Time `json:"actualEndTime,omitempty"`

	Status        string  `json:"status"`
	DepositStatus string  `json:"depositStatus"`
	PaymentRef    *string `json:"paymentRef,omitempty"`

	Price PriceResponse `json:"price"`

	ReturnOdometer       *int64  `json:"returnOdometer,omitempty"`
	BatteryLevelAtReturn *int    `json:"batteryLevelAtReturn,omitempty"`
	DamageReport         *string `json:"damageReport,omitempty"`
	CustomerRating       *int    `json:"customerRating,omitempty"`

	CancelReason *string    `json:"cancelReason,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	p := b.Price
	return &BookingResponse{
		ID:            b.ID,
		RenterID:      b.RenterID,
		VehicleID:     b.VehicleID,
		StationID:     b.StationID,
		PromotionID:   b.PromotionID,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		ActualEndTime: b.ActualEndTime,
		Status:        string(b.Status),
		DepositStatus: string(b.DepositStatus),
		PaymentRef:    b.PaymentRef,
		Price: PriceResponse{
			BilledHours:     p.BilledHours,
			WeeklyQuantity:  p.WeeklyQuantity,
			DailyQuantity:   p.DailyQuantity,
			HourlyQuantity:  p.HourlyQuantity,
			WeeklyCost:      p.WeeklyCost,
			DailyCost:       p.DailyCost,
			HourlyCost:      p.HourlyCost,
			BasePrice:       p.BasePrice,
			InsuranceAmount: p.InsuranceAmount,
			TaxAmount:       p.TaxAmount,
			DiscountAmount:  p.DiscountAmount,
			Subtotal:        p.Subtotal,
			TotalAmount:     p.TotalAmount,
			DepositAmount:   p.DepositAmount,
		},
		ReturnOdometer:       b.ReturnOdometer,
		BatteryLevelAtReturn: b.BatteryLevelAtReturn,
		DamageReport:         b.DamageReport,
		CustomerRating:       b.CustomerRating,
		CancelReason:         b.CancelReason,
		CancelledAt:          b.CancelledAt,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, b := range bookings {
		resp.Bookings = append(resp.Bookings, *FromDomainBooking(b))
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в статус бронирования
// Регистр не важен: "confirmed" и "CONFIRMED" равнозначны
func ToDomainBookingStatus(s string) (domain.BookingStatus, error) {
	status := domain.BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range domain.AllStatuses {
		if status == known {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}

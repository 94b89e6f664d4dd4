package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/money"
)

// Input входные данные расчёта стоимости
type Input struct {
	RateCard  domain.RateCard
	StartTime time.Time
	EndTime   time.Time
	Promotion *domain.Promotion // опционально
	PricedAt  time.Time         // момент расчёта, по нему проверяется срок действия промо-акции
}

// Tiers разложение длительности по тарифным единицам
type Tiers struct {
	Weeks int64
	Days  int64
	Hours int64
}

// Calculate рассчитывает стоимость бронирования
// Функция чистая: никакого I/O, результат зависит только от входных данных.
//
// Все суммы целые, каждое производное значение округляется half-up сразу,
// чтобы строки разбивки сходились с итогом:
//   - basePrice = weeklyCost + dailyCost + hourlyCost
//   - insuranceAmount = basePrice * insuranceRate
//   - taxAmount = (basePrice + insuranceAmount) * 8%
//   - discountAmount: PERCENTAGE от basePrice, FIXED не больше суммы до скидки
//   - subtotal = totalAmount = max(0, basePrice + insuranceAmount + taxAmount - discountAmount)
//
// Количества в разбивке не обязаны складываться в billedHours. Когда часы остатка
// стоят не меньше суток, они оплачиваются как ещё одни сутки (см. Decompose), поэтому
// dailyQuantity может покрывать меньше 24 часов: 20 часов при тарифах 10/час и
// 200/сутки дают dailyQuantity=1, hourlyQuantity=0. Так же неделя может покрывать
// меньше 168 часов. Гарантируется только
// weeklyQuantity*168 + dailyQuantity*24 + hourlyQuantity >= billedHours.
func Calculate(in Input) (domain.PriceBreakdown, error) {
	hours, err := BilledHours(in.StartTime, in.EndTime)
	if err != nil {
		return domain.PriceBreakdown{}, err
	}

	insuranceBP, err := validateRateCard(in.RateCard)
	if err != nil {
		return domain.PriceBreakdown{}, err
	}

	if in.Promotion != nil {
		if err := ValidatePromotion(in.Promotion, in.PricedAt); err != nil {
			return domain.PriceBreakdown{}, err
		}
	}

	tiers := Decompose(hours, in.RateCard)

	p := domain.PriceBreakdown{
		BilledHours:    hours,
		WeeklyQuantity: tiers.Weeks,
		DailyQuantity:  tiers.Days,
		HourlyQuantity: tiers.Hours,
		WeeklyCost:     tiers.Weeks * in.RateCard.WeeklyRate,
		DailyCost:      tiers.Days * in.RateCard.DailyRate,
		HourlyCost:     tiers.Hours * in.RateCard.HourlyRate,
		DepositAmount:  in.RateCard.DepositAmount,
	}

	p.BasePrice = p.WeeklyCost + p.DailyCost + p.HourlyCost
	p.InsuranceAmount = money.ApplyBasisPoints(p.BasePrice, insuranceBP)
	p.TaxAmount = money.ApplyBasisPoints(p.BasePrice+p.InsuranceAmount, domain.TaxRateBasisPoints)

	gross := p.BasePrice + p.InsuranceAmount + p.TaxAmount
	p.DiscountAmount = discountFor(in.Promotion, p.BasePrice, gross)
	p.Subtotal = money.Max(0, gross-p.DiscountAmount)
	p.TotalAmount = p.Subtotal

	return p, nil
}

// BilledHours возвращает длительность окна в целых часах с округлением вверх
// 25ч 6м оплачиваются как 26 часов
func BilledHours(start, end time.Time) (int64, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return 0, fmt.Errorf("%w: endTime must be after startTime", ErrInvalidWindow)
	}

	d := end.Sub(start)
	hours := int64(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}

	if hours > domain.MaxBookingDurationHours {
		return 0, fmt.Errorf("%w: booking longer than %d hours", ErrInvalidWindow, domain.MaxBookingDurationHours)
	}

	return hours, nil
}

// Decompose раскладывает часы по тарифам жадно, от крупных к мелким
//
// Недельный тариф используется, только если он не дороже семи суток.
// После жадного разложения остаток переносится в более крупную единицу,
// если мелкие единицы стоят не меньше крупной (при равенстве выбирается крупная):
//   - часы остатка дороже суток -> ещё одни сутки
//   - хвост из суток и часов дороже недели -> ещё одна неделя
func Decompose(hours int64, card domain.RateCard) Tiers {
	useWeekly := card.WeeklyRate > 0 && card.WeeklyRate <= 7*card.DailyRate

	var t Tiers
	rest := hours
	if useWeekly {
		t.Weeks = rest / domain.HoursPerWeek
		rest %= domain.HoursPerWeek
	}
	t.Days = rest / domain.HoursPerDay
	t.Hours = rest % domain.HoursPerDay

	if t.Hours > 0 && t.Hours*card.HourlyRate >= card.DailyRate {
		t.Days++
		t.Hours = 0
	}

	if useWeekly && (t.Days > 0 || t.Hours > 0) &&
		t.Days*card.DailyRate+t.Hours*card.HourlyRate >= card.WeeklyRate {
		t.Weeks++
		t.Days = 0
		t.Hours = 0
	}

	return t
}

// ValidatePromotion проверяет корректность и срок действия промо-акции
func ValidatePromotion(p *domain.Promotion, at time.Time) error {
	switch p.DiscountType {
	case domain.DiscountPercentage:
		if p.DiscountValue <= 0 || p.DiscountValue > 100 {
			return fmt.Errorf("%w: percentage must be in (0, 100], got %v", ErrInvalidPromotion, p.DiscountValue)
		}
	case domain.DiscountFixed:
		if p.DiscountValue <= 0 {
			return fmt.Errorf("%w: fixed discount must be positive, got %v", ErrInvalidPromotion, p.DiscountValue)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrInvalidPromotion, p.DiscountType)
	}

	if p.ValidFrom != nil && p.ValidTo != nil && !p.ValidTo.After(*p.ValidFrom) {
		return fmt.Errorf("%w: validity window is empty", ErrInvalidPromotion)
	}

	if !p.IsValidAt(at) {
		return fmt.Errorf("%w: promotion %q is not valid at %s", ErrInvalidPromotion, p.Code, at.Format(time.RFC3339))
	}

	return nil
}

// validateRateCard проверяет тариф и возвращает страховую ставку в базисных пунктах
func validateRateCard(card domain.RateCard) (int64, error) {
	if card.HourlyRate <= 0 || card.DailyRate <= 0 {
		return 0, fmt.Errorf("%w: hourly and daily rates are required", ErrIncompleteRateCard)
	}
	if card.WeeklyRate < 0 || card.MonthlyRate < 0 || card.DepositAmount < 0 {
		return 0, fmt.Errorf("%w: rates must be non-negative", ErrIncompleteRateCard)
	}

	rate := domain.DefaultInsuranceRate
	if card.InsuranceRate != nil {
		rate = *card.InsuranceRate
	}
	if rate < 0 || rate > 1 || math.IsNaN(rate) {
		return 0, fmt.Errorf("%w: insurance rate must be within [0, 1], got %v", ErrIncompleteRateCard, rate)
	}

	return money.RatioToBasisPoints(rate), nil
}

// discountFor вычисляет скидку; gross - сумма до скидки
func discountFor(p *domain.Promotion, basePrice, gross int64) int64 {
	if p == nil {
		return 0
	}

	switch p.DiscountType {
	case domain.DiscountPercentage:
		return money.ApplyBasisPoints(basePrice, money.PercentToBasisPoints(p.DiscountValue))
	case domain.DiscountFixed:
		return money.Min(int64(math.Round(p.DiscountValue)), gross)
	default:
		return 0
	}
}

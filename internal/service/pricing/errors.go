package pricing

import "errors"

var (
	// ErrInvalidWindow возвращается, когда endTime не позже startTime или окно слишком длинное
	ErrInvalidWindow = errors.New("pricing: invalid booking window")

	// ErrIncompleteRateCard возвращается, когда в тарифе нет обязательных ставок или они отрицательные
	ErrIncompleteRateCard = errors.New("pricing: incomplete rate card")

	// ErrInvalidPromotion возвращается, когда промо-акция истекла, неактивна или некорректна
	ErrInvalidPromotion = errors.New("pricing: invalid promotion")
)

package payment

import "strings"

// Множители перевода суммы в минимальные единицы валюты (amount в API Stripe).
// Валюты без копеек передаются как есть, у трёхзнаковых в единице 1000 долей.
var (
	zeroDecimalCurrencies = map[string]struct{}{
		"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {}, "krw": {}, "mga": {},
		"pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
	}
	threeDecimalCurrencies = map[string]struct{}{
		"bhd": {}, "jod": {}, "kwd": {}, "omr": {}, "tnd": {},
	}
)

// ToMinorUnits переводит сумму в целых единицах валюты в минимальные единицы
func ToMinorUnits(currency string, amount int64) int64 {
	return amount * minorUnitFactor(currency)
}

func minorUnitFactor(currency string) int64 {
	c := strings.ToLower(currency)
	if _, ok := zeroDecimalCurrencies[c]; ok {
		return 1
	}
	if _, ok := threeDecimalCurrencies[c]; ok {
		return 1000
	}
	return 100
}

package vehicleservice

// Vehicle модель машины из VehicleService
type Vehicle struct {
	ID        int64  `json:"id"`
	StationID int64  `json:"station_id"`
	Status    string `json:"status"` // available, maintenance, retired
}

// RateCard тарифы машины в целых единицах валюты
type RateCard struct {
	VehicleID     int64    `json:"vehicle_id"`
	HourlyRate    int64    `json:"hourly_rate"`
	DailyRate     int64    `json:"daily_rate"`
	WeeklyRate    int64    `json:"weekly_rate"`
	MonthlyRate   int64    `json:"monthly_rate"`
	DepositAmount int64    `json:"deposit_amount"`
	InsuranceRate *float64 `json:"insurance_rate"`
}

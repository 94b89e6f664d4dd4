package domain

import "time"

// CompletionData staff check-in data recorded on the COMPLETED transition
type CompletionData struct {
	ActualEndTime        *time.Time `json:"actualEndTime" validate:"required"`
	ReturnOdometer       *int64     `json:"returnOdometer" validate:"required,gte=0"`
	BatteryLevelAtReturn *int       `json:"batteryLevelAtReturn" validate:"required,gte=0,lte=100"`
	DamageReport         *string    `json:"damageReport,omitempty" validate:"omitempty,max=2000"`
	CustomerRating       *int       `json:"customerRating,omitempty" validate:"omitempty,gte=1,lte=5"`
}

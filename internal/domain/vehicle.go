package domain

// VehicleStatus operational status reported by the vehicle directory
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleRetired     VehicleStatus = "retired"
)

// IsBookable returns true if the vehicle may take new bookings
func (s VehicleStatus) IsBookable() bool {
	return s == VehicleAvailable
}

// Vehicle directory entry of a vehicle
type Vehicle struct {
	ID        int64
	StationID int64 // home station, bookings are picked up and returned here
	Status    VehicleStatus
}

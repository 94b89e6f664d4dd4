package domain

// Role role of the caller
type Role string

const (
	RoleRenter Role = "renter"
	RoleStaff  Role = "staff" // station-restricted operator
	RoleAdmin  Role = "admin"
)

// Actor authenticated caller with its station assignments
type Actor struct {
	ID                 int64
	Role               Role
	StationAssignments []int64
}

// IsStaff returns true for operators (staff and admins)
func (a *Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// IsStationRestricted returns true if the actor only sees its assigned stations
func (a *Actor) IsStationRestricted() bool {
	return a.Role == RoleStaff
}

// CanOperateStation returns true if the actor may act on bookings of the station
func (a *Actor) CanOperateStation(stationID int64) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleStaff:
		for _, id := range a.StationAssignments {
			if id == stationID {
				return true
			}
		}
	}
	return false
}

// Renter contact data from the identity service
type Renter struct {
	ID    int64
	Name  string
	Email string
	Phone string
}

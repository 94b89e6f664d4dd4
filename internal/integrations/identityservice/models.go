package identityservice

// Actor модель пользователя с ролью из IdentityService
type Actor struct {
	ID                 int64   `json:"id"`
	Role               string  `json:"role"` // renter, staff, admin
	StationAssignments []int64 `json:"station_assignments"`
}

// User контактные данные пользователя
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ErrorResponse модель ошибки от IdentityService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

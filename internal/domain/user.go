package domain

import "time"

// UserRecord is one registered viewer. StreamLimitDays is the access
// window granted at registration (default 30).
type UserRecord struct {
	UserID           int64     `json:"user_id"`
	Username         string    `json:"username,omitempty"`
	FirstName        string    `json:"first_name,omitempty"`
	LastName         string    `json:"last_name,omitempty"`
	RegistrationDate time.Time `json:"registration_date"`
	StreamLimitDays  int       `json:"slimit"`
	IsActive         bool      `json:"is_active"`
}

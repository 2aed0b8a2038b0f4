package models

// Driver is the 1:1 extension of a User holding driver-specific fields.
type Driver struct {
	ID              string `json:"id" db:"id"`
	UserID          string `json:"user_id" db:"user_id"`
	License         string `json:"license" db:"license"`
	ExperienceYears int    `json:"experience_years" db:"experience_years"`
}

// DriverDetail is a driver joined with its user row for responses.
type DriverDetail struct {
	ID              string  `json:"id" db:"id"`
	UserID          string  `json:"user_id" db:"user_id"`
	License         string  `json:"license" db:"license"`
	ExperienceYears int     `json:"experience_years" db:"experience_years"`
	Name            string  `json:"name" db:"name"`
	Email           string  `json:"email" db:"email"`
	PhoneNumber     string  `json:"phone_number" db:"phone_number"`
	Rating          float64 `json:"rating" db:"rating"`
}

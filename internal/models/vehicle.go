package models

type Vehicle struct {
	ID                 string `json:"id" db:"id"`
	DriverID           string `json:"driver_id" db:"driver_id"`
	VehicleType        string `json:"vehicle_type" db:"vehicle_type"`
	RegistrationNumber string `json:"registration_number" db:"registration_number"`
	Model              string `json:"model" db:"model"`
	Color              string `json:"color" db:"color"`
	Capacity           int    `json:"capacity" db:"capacity"`
	InsuranceValidTill string `json:"insurance_valid_till" db:"insurance_valid_till"`
}

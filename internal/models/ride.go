package models

import "database/sql"

// Ride is created exactly once, when its booking moves to "ongoing".
type Ride struct {
	ID                string         `json:"id" db:"id"`
	BookingID         string         `json:"booking_id" db:"booking_id"`
	UserID            string         `json:"user_id" db:"user_id"`
	DriverID          string         `json:"driver_id" db:"driver_id"`
	StartTime         int64          `json:"start_time" db:"start_time"`
	EndTime           sql.NullInt64  `json:"-" db:"end_time"`
	DistanceTravelled float64        `json:"distance_travelled" db:"distance_travelled"`
	FinalFare         float64        `json:"final_fare" db:"final_fare"`
	RatingByUser      sql.NullInt64  `json:"-" db:"rating_by_user"`
	RatingByDriver    sql.NullInt64  `json:"-" db:"rating_by_driver"`
	Feedback          sql.NullString `json:"-" db:"feedback"`
}

type RideResponse struct {
	ID                string  `json:"id"`
	BookingID         string  `json:"booking_id"`
	UserID            string  `json:"user_id"`
	DriverID          string  `json:"driver_id"`
	StartTime         int64   `json:"start_time"`
	EndTime           *int64  `json:"end_time"`
	DistanceTravelled float64 `json:"distance_travelled"`
	FinalFare         float64 `json:"final_fare"`
	RatingByUser      *int64  `json:"rating_by_user"`
	RatingByDriver    *int64  `json:"rating_by_driver"`
	Feedback          *string `json:"feedback"`
}

func (r *Ride) ToRideResponse() RideResponse {
	resp := RideResponse{
		ID:                r.ID,
		BookingID:         r.BookingID,
		UserID:            r.UserID,
		DriverID:          r.DriverID,
		StartTime:         r.StartTime,
		DistanceTravelled: r.DistanceTravelled,
		FinalFare:         r.FinalFare,
	}
	if r.EndTime.Valid {
		resp.EndTime = &r.EndTime.Int64
	}
	if r.RatingByUser.Valid {
		resp.RatingByUser = &r.RatingByUser.Int64
	}
	if r.RatingByDriver.Valid {
		resp.RatingByDriver = &r.RatingByDriver.Int64
	}
	if r.Feedback.Valid {
		resp.Feedback = &r.Feedback.String
	}
	return resp
}

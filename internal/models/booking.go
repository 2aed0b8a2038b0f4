package models

import "database/sql"

// Booking lifecycle statuses. A booking moves
// requested -> pending_user_confirmation -> accepted -> ongoing -> completed -> paid,
// with cancelled reachable from any state except completed/paid.
const (
	BookingStatusRequested   = "requested"
	BookingStatusPendingUser = "pending_user_confirmation"
	BookingStatusAccepted    = "accepted"
	BookingStatusOngoing     = "ongoing"
	BookingStatusCompleted   = "completed"
	BookingStatusPaid        = "paid"
	BookingStatusCancelled   = "cancelled"
)

type Booking struct {
	ID              string         `json:"id" db:"id"`
	UserID          string         `json:"user_id" db:"user_id"`
	DriverID        sql.NullString `json:"-" db:"driver_id"`
	PickupLocation  string         `json:"pickup_location" db:"pickup_location"`
	DropoffLocation string         `json:"dropoff_location" db:"dropoff_location"`
	PickupTime      int64          `json:"pickup_time" db:"pickup_time"`
	DropoffTime     sql.NullInt64  `json:"-" db:"dropoff_time"`
	FareEstimate    float64        `json:"fare_estimate" db:"fare_estimate"`
	Status          string         `json:"status" db:"status"`
	CreatedAt       int64          `json:"created_at" db:"created_at"`
}

type BookingResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	DriverID        *string `json:"driver_id"`
	PickupLocation  string  `json:"pickup_location"`
	DropoffLocation string  `json:"dropoff_location"`
	PickupTime      int64   `json:"pickup_time"`
	DropoffTime     *int64  `json:"dropoff_time"`
	FareEstimate    float64 `json:"fare_estimate"`
	Status          string  `json:"status"`
	CreatedAt       int64   `json:"created_at"`
}

func (b *Booking) ToBookingResponse() BookingResponse {
	resp := BookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		PickupLocation:  b.PickupLocation,
		DropoffLocation: b.DropoffLocation,
		PickupTime:      b.PickupTime,
		FareEstimate:    b.FareEstimate,
		Status:          b.Status,
		CreatedAt:       b.CreatedAt,
	}
	if b.DriverID.Valid {
		resp.DriverID = &b.DriverID.String
	}
	if b.DropoffTime.Valid {
		resp.DropoffTime = &b.DropoffTime.Int64
	}
	return resp
}

// bookingTransitions maps a target status to the source statuses it may be
// reached from. Cancellation is handled separately since it is reachable from
// every non-terminal state.
var bookingTransitions = map[string][]string{
	BookingStatusPendingUser: {BookingStatusRequested},
	BookingStatusAccepted:    {BookingStatusPendingUser},
	BookingStatusOngoing:     {BookingStatusAccepted},
	BookingStatusCompleted:   {BookingStatusOngoing},
	BookingStatusPaid:        {BookingStatusCompleted, BookingStatusPaid},
}

// CanTransition reports whether a booking in status `from` may move to `to`.
func CanTransition(from, to string) bool {
	if to == BookingStatusCancelled {
		return from != BookingStatusCompleted && from != BookingStatusPaid
	}
	for _, s := range bookingTransitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// AllowedSources returns the source statuses from which `to` is reachable,
// for InvalidState error messages.
func AllowedSources(to string) []string {
	if to == BookingStatusCancelled {
		return []string{
			BookingStatusRequested, BookingStatusPendingUser,
			BookingStatusAccepted, BookingStatusOngoing, BookingStatusCancelled,
		}
	}
	return bookingTransitions[to]
}

package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"cabride-backend/internal/auth"
	"cabride-backend/internal/middleware"
	"cabride-backend/internal/models"
	"cabride-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CreateRideRequest struct {
	BookingID         string  `json:"booking_id"`
	UserID            string  `json:"user_id"`
	DriverID          string  `json:"driver_id"`
	StartTime         int64   `json:"start_time"`
	DistanceTravelled float64 `json:"distance_travelled"`
	FinalFare         float64 `json:"final_fare"`
}

// CreateRide inserts a ride record directly. Admin only, for data correction.
func CreateRide(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermCreateRide); err != nil {
			auth.WriteError(w, err)
			return
		}

		var req CreateRideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.BookingID == "" || req.UserID == "" || req.DriverID == "" {
			utils.RespondError(w, http.StatusBadRequest, "booking_id, user_id, and driver_id are required")
			return
		}

		ride := models.Ride{
			ID:                uuid.New().String(),
			BookingID:         req.BookingID,
			UserID:            req.UserID,
			DriverID:          req.DriverID,
			StartTime:         req.StartTime,
			DistanceTravelled: req.DistanceTravelled,
			FinalFare:         req.FinalFare,
		}

		_, err := db.Exec(`
			INSERT INTO rides (id, booking_id, user_id, driver_id, start_time, distance_travelled, final_fare)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, ride.ID, ride.BookingID, ride.UserID, ride.DriverID, ride.StartTime,
			ride.DistanceTravelled, ride.FinalFare)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create ride")
			return
		}
		utils.RespondJSON(w, http.StatusCreated, ride.ToRideResponse())
	}
}

// GetRide returns one ride. Admin (view_all_rides) or a participant.
func GetRide(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var ride models.Ride
		err := db.Get(&ride, "SELECT * FROM rides WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Ride not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		isParticipant := ride.UserID == current.ID || userIDForDriver(db, ride.DriverID) == current.ID
		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewAllRides, isParticipant); err != nil {
			auth.WriteError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, ride.ToRideResponse())
	}
}

// GetRides lists all rides. Admin only.
func GetRides(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewAllRides); err != nil {
			auth.WriteError(w, err)
			return
		}
		respondRideList(w, db, "SELECT * FROM rides ORDER BY start_time DESC")
	}
}

// RidesByUser lists a user's rides. Admin or the user themselves.
func RidesByUser(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewAllRides, current.ID == userID); err != nil {
			auth.WriteError(w, err)
			return
		}
		respondRideList(w, db,
			"SELECT * FROM rides WHERE user_id = $1 ORDER BY start_time DESC", userID)
	}
}

// RidesByDriver lists a driver's rides. Admin or the driver themselves.
func RidesByDriver(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID := chi.URLParam(r, "driverID")
		current, _ := middleware.GetUserFromContext(r)

		var driver models.Driver
		err := db.Get(&driver, "SELECT * FROM drivers WHERE id = $1", driverID)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Driver not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewAllRides, driver.UserID == current.ID); err != nil {
			auth.WriteError(w, err)
			return
		}
		respondRideList(w, db,
			"SELECT * FROM rides WHERE driver_id = $1 ORDER BY start_time DESC", driverID)
	}
}

func respondRideList(w http.ResponseWriter, db *sqlx.DB, query string, args ...interface{}) {
	var rides []models.Ride
	if err := db.Select(&rides, query, args...); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "Database error")
		return
	}
	responses := make([]models.RideResponse, len(rides))
	for i, ride := range rides {
		responses[i] = ride.ToRideResponse()
	}
	utils.RespondJSON(w, http.StatusOK, responses)
}

// UpdateRideFeedback lets either participant add their rating and feedback
// after the ride. Each side may only touch its own fields.
func UpdateRideFeedback(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var ride models.Ride
		err := db.Get(&ride, "SELECT * FROM rides WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Ride not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		q := r.URL.Query()
		feedback := ""
		if ride.Feedback.Valid {
			feedback = ride.Feedback.String
		}

		switch {
		case ride.UserID == current.ID:
			if v := parseOptionalInt(q.Get("user_rating")); v != nil {
				ride.RatingByUser = sql.NullInt64{Int64: *v, Valid: true}
			}
			if uf := q.Get("user_feedback"); uf != "" {
				feedback += "\n[User]: " + uf
			}
		case userIDForDriver(db, ride.DriverID) == current.ID:
			if v := parseOptionalInt(q.Get("driver_rating")); v != nil {
				ride.RatingByDriver = sql.NullInt64{Int64: *v, Valid: true}
			}
			if df := q.Get("driver_feedback"); df != "" {
				feedback += "\n[Driver]: " + df
			}
		default:
			utils.RespondError(w, http.StatusForbidden, "Not authorized to update this feedback")
			return
		}

		_, err = db.Exec(`
			UPDATE rides SET rating_by_user = $1, rating_by_driver = $2, feedback = $3 WHERE id = $4
		`, ride.RatingByUser, ride.RatingByDriver, nullableString(feedback), id)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to update ride")
			return
		}

		ride.Feedback = nullableString(feedback)
		utils.RespondJSON(w, http.StatusOK, ride.ToRideResponse())
	}
}

// DeleteRide removes a ride record. Admin only.
func DeleteRide(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermDeleteRide); err != nil {
			auth.WriteError(w, err)
			return
		}

		res, err := db.Exec("DELETE FROM rides WHERE id = $1", id)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete ride")
			return
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			utils.RespondError(w, http.StatusNotFound, "Ride not found")
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Ride deleted successfully")
	}
}

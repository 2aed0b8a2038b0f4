package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"cabride-backend/internal/auth"
	"cabride-backend/internal/database"
	"cabride-backend/internal/middleware"
	"cabride-backend/internal/models"
	"cabride-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type CreateDriverRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	Password        string `json:"password"`
	License         string `json:"license"`
	ExperienceYears int    `json:"experience_years"`
}

type UpdateDriverRequest struct {
	License         *string `json:"license"`
	ExperienceYears *int    `json:"experience_years"`
}

// RegisterDriver creates a driver account: a user row with the driver role
// plus the linked driver row, in one transaction. Public endpoint.
func RegisterDriver(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDriverRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" || req.Email == "" || req.Password == "" || req.License == "" {
			utils.RespondError(w, http.StatusBadRequest, "Name, email, password, and license are required")
			return
		}

		var exists bool
		db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)", req.Email)
		if exists {
			utils.RespondError(w, http.StatusConflict, "User with this email already exists")
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}

		var roleID string
		if err := db.Get(&roleID, "SELECT id FROM roles WHERE name = $1", database.RoleDriver); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Driver role not seeded")
			return
		}

		tx, err := db.Beginx()
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to begin transaction")
			return
		}
		defer tx.Rollback()

		userID := uuid.New().String()
		driverID := uuid.New().String()
		now := time.Now().Unix()

		_, err = tx.Exec(`
			INSERT INTO users (id, name, email, phone_number, password, rating, role_id, created_at)
			VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
		`, userID, req.Name, req.Email, req.PhoneNumber, string(hashed), roleID, now)
		if err != nil {
			log.Printf("❌ Failed to create driver user: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create driver")
			return
		}

		_, err = tx.Exec(`
			INSERT INTO drivers (id, user_id, license, experience_years)
			VALUES ($1, $2, $3, $4)
		`, driverID, userID, req.License, req.ExperienceYears)
		if err != nil {
			log.Printf("❌ Failed to create driver record: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create driver")
			return
		}

		if err := tx.Commit(); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to commit")
			return
		}

		log.Printf("✅ Driver registered: %s", req.Email)
		utils.RespondJSON(w, http.StatusCreated, models.Driver{
			ID:              driverID,
			UserID:          userID,
			License:         req.License,
			ExperienceYears: req.ExperienceYears,
		})
	}
}

// GetDrivers lists all drivers with their user profiles. Admin only.
func GetDrivers(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewAllDrivers); err != nil {
			auth.WriteError(w, err)
			return
		}

		var drivers []models.DriverDetail
		err := db.Select(&drivers, `
			SELECT d.id, d.user_id, d.license, d.experience_years,
			       u.name, u.email, u.phone_number, u.rating
			FROM drivers d JOIN users u ON u.id = d.user_id
			ORDER BY u.created_at DESC
		`)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, drivers)
	}
}

// GetDriver returns one driver with its user profile. Admin or the driver
// themselves.
func GetDriver(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var driver models.DriverDetail
		err := db.Get(&driver, `
			SELECT d.id, d.user_id, d.license, d.experience_years,
			       u.name, u.email, u.phone_number, u.rating
			FROM drivers d JOIN users u ON u.id = d.user_id
			WHERE d.id = $1
		`, id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Driver not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewAllDrivers, driver.UserID == current.ID); err != nil {
			auth.WriteError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, driver)
	}
}

// GetMyDriver returns the acting user's own driver record.
func GetMyDriver(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)

		driver, err := driverForUser(db, current.ID)
		if err != nil {
			auth.WriteError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, driver)
	}
}

// DriverByUser resolves a driver record by its owning user id. Admin
// (view_all_drivers) or self.
func DriverByUser(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewAllDrivers, userID == current.ID); err != nil {
			auth.WriteError(w, err)
			return
		}

		var driver models.DriverDetail
		err := db.Get(&driver, `
			SELECT d.id, d.user_id, d.license, d.experience_years,
			       u.name, u.email, u.phone_number, u.rating
			FROM drivers d JOIN users u ON u.id = d.user_id
			WHERE d.user_id = $1
		`, userID)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Driver not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, driver)
	}
}

// DriverDashboard aggregates a driver's activity: ride counts, total
// earnings from completed rides, current rating, and the 5 most recent rides.
// Admin (view_all_drivers) or the driver themselves.
func DriverDashboard(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var driver models.Driver
		err := db.Get(&driver, "SELECT * FROM drivers WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Driver not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewAllDrivers, driver.UserID == current.ID); err != nil {
			auth.WriteError(w, err)
			return
		}

		var stats struct {
			TotalRides     int     `db:"total_rides"`
			CompletedRides int     `db:"completed_rides"`
			TotalEarnings  float64 `db:"total_earnings"`
		}
		err = db.Get(&stats, `
			SELECT COUNT(*) AS total_rides,
			       COUNT(end_time) AS completed_rides,
			       COALESCE(SUM(final_fare) FILTER (WHERE end_time IS NOT NULL), 0) AS total_earnings
			FROM rides WHERE driver_id = $1
		`, driver.ID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		var rating float64
		db.Get(&rating, "SELECT rating FROM users WHERE id = $1", driver.UserID)

		var recent []models.Ride
		err = db.Select(&recent,
			"SELECT * FROM rides WHERE driver_id = $1 ORDER BY start_time DESC LIMIT 5", driver.ID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		recentResponses := make([]models.RideResponse, len(recent))
		for i := range recent {
			recentResponses[i] = recent[i].ToRideResponse()
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"driver_id":       driver.ID,
			"total_rides":     stats.TotalRides,
			"completed_rides": stats.CompletedRides,
			"total_earnings":  round2(stats.TotalEarnings),
			"rating":          rating,
			"recent_rides":    recentResponses,
		})
	}
}

// UpdateDriver edits license/experience. Admin (update_driver) or self.
func UpdateDriver(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var driver models.Driver
		err := db.Get(&driver, "SELECT * FROM drivers WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Driver not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermUpdateDriver, driver.UserID == current.ID); err != nil {
			auth.WriteError(w, err)
			return
		}

		var req UpdateDriverRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.License != nil {
			driver.License = *req.License
		}
		if req.ExperienceYears != nil {
			driver.ExperienceYears = *req.ExperienceYears
		}

		_, err = db.Exec("UPDATE drivers SET license = $1, experience_years = $2 WHERE id = $3",
			driver.License, driver.ExperienceYears, id)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to update driver")
			return
		}
		utils.RespondJSON(w, http.StatusOK, driver)
	}
}

// DeleteDriver removes a driver record (the user row stays). Admin
// (delete_driver) or self.
func DeleteDriver(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var driver models.Driver
		err := db.Get(&driver, "SELECT * FROM drivers WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Driver not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermDeleteDriver, driver.UserID == current.ID); err != nil {
			auth.WriteError(w, err)
			return
		}

		if _, err := db.Exec("DELETE FROM drivers WHERE id = $1", id); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete driver")
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Driver deleted successfully")
	}
}

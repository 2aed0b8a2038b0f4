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

type CreateVehicleRequest struct {
	VehicleType        string `json:"vehicle_type"`
	RegistrationNumber string `json:"registration_number"`
	Model              string `json:"model"`
	Color              string `json:"color"`
	Capacity           int    `json:"capacity"`
	InsuranceValidTill string `json:"insurance_valid_till"`
}

type UpdateVehicleRequest struct {
	VehicleType        *string `json:"vehicle_type"`
	Model              *string `json:"model"`
	Color              *string `json:"color"`
	Capacity           *int    `json:"capacity"`
	InsuranceValidTill *string `json:"insurance_valid_till"`
}

// vehicleOwnedBy reports whether the vehicle's driver belongs to the user.
func vehicleOwnedBy(db *sqlx.DB, vehicle models.Vehicle, userID string) bool {
	var ownerID string
	if err := db.Get(&ownerID, "SELECT user_id FROM drivers WHERE id = $1", vehicle.DriverID); err != nil {
		return false
	}
	return ownerID == userID
}

// CreateVehicle registers a vehicle under the acting driver. Requires
// create_vehicle.
func CreateVehicle(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermCreateVehicle); err != nil {
			auth.WriteError(w, err)
			return
		}

		driver, err := driverForUser(db, current.ID)
		if err != nil {
			auth.WriteError(w, err)
			return
		}

		var req CreateVehicleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.RegistrationNumber == "" || req.VehicleType == "" {
			utils.RespondError(w, http.StatusBadRequest, "vehicle_type and registration_number are required")
			return
		}

		var exists bool
		db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM vehicles WHERE registration_number = $1)", req.RegistrationNumber)
		if exists {
			utils.RespondError(w, http.StatusConflict, "Vehicle with this registration number already exists")
			return
		}

		vehicle := models.Vehicle{
			ID:                 uuid.New().String(),
			DriverID:           driver.ID,
			VehicleType:        req.VehicleType,
			RegistrationNumber: req.RegistrationNumber,
			Model:              req.Model,
			Color:              req.Color,
			Capacity:           req.Capacity,
			InsuranceValidTill: req.InsuranceValidTill,
		}

		_, err = db.Exec(`
			INSERT INTO vehicles (id, driver_id, vehicle_type, registration_number, model, color, capacity, insurance_valid_till)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, vehicle.ID, vehicle.DriverID, vehicle.VehicleType, vehicle.RegistrationNumber,
			vehicle.Model, vehicle.Color, vehicle.Capacity, vehicle.InsuranceValidTill)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create vehicle")
			return
		}
		utils.RespondJSON(w, http.StatusCreated, vehicle)
	}
}

// GetVehicles lists all vehicles. Admin only.
func GetVehicles(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewAllVehicles); err != nil {
			auth.WriteError(w, err)
			return
		}

		var vehicles []models.Vehicle
		if err := db.Select(&vehicles, "SELECT * FROM vehicles ORDER BY registration_number"); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, vehicles)
	}
}

// GetVehicle returns one vehicle. Admin (view_vehicle) or the owning driver.
func GetVehicle(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var vehicle models.Vehicle
		err := db.Get(&vehicle, "SELECT * FROM vehicles WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewVehicle, vehicleOwnedBy(db, vehicle, current.ID)); err != nil {
			auth.WriteError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, vehicle)
	}
}

// VehiclesByDriver lists a driver's vehicles. Admin (view_driver_vehicles)
// or the driver themselves.
func VehiclesByDriver(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var ownerID string
		err := db.Get(&ownerID, "SELECT user_id FROM drivers WHERE id = $1", driverID)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Driver not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewDriverVehicles, ownerID == current.ID); err != nil {
			auth.WriteError(w, err)
			return
		}

		var vehicles []models.Vehicle
		if err := db.Select(&vehicles, "SELECT * FROM vehicles WHERE driver_id = $1", driverID); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, vehicles)
	}
}

// MyVehicles lists the acting driver's own vehicles.
func MyVehicles(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)

		driver, err := driverForUser(db, current.ID)
		if err != nil {
			auth.WriteError(w, err)
			return
		}

		var vehicles []models.Vehicle
		if err := db.Select(&vehicles, "SELECT * FROM vehicles WHERE driver_id = $1", driver.ID); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, vehicles)
	}
}

// UpdateVehicle edits vehicle fields. Admin (update_vehicle) or the owning
// driver. Registration number is immutable.
func UpdateVehicle(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var vehicle models.Vehicle
		err := db.Get(&vehicle, "SELECT * FROM vehicles WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermUpdateVehicle, vehicleOwnedBy(db, vehicle, current.ID)); err != nil {
			auth.WriteError(w, err)
			return
		}

		var req UpdateVehicleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.VehicleType != nil {
			vehicle.VehicleType = *req.VehicleType
		}
		if req.Model != nil {
			vehicle.Model = *req.Model
		}
		if req.Color != nil {
			vehicle.Color = *req.Color
		}
		if req.Capacity != nil {
			vehicle.Capacity = *req.Capacity
		}
		if req.InsuranceValidTill != nil {
			vehicle.InsuranceValidTill = *req.InsuranceValidTill
		}

		_, err = db.Exec(`
			UPDATE vehicles SET vehicle_type = $1, model = $2, color = $3, capacity = $4, insurance_valid_till = $5
			WHERE id = $6
		`, vehicle.VehicleType, vehicle.Model, vehicle.Color, vehicle.Capacity, vehicle.InsuranceValidTill, id)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to update vehicle")
			return
		}
		utils.RespondJSON(w, http.StatusOK, vehicle)
	}
}

// DeleteVehicle removes a vehicle. Admin (delete_vehicle) or the owning
// driver.
func DeleteVehicle(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var vehicle models.Vehicle
		err := db.Get(&vehicle, "SELECT * FROM vehicles WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermDeleteVehicle, vehicleOwnedBy(db, vehicle, current.ID)); err != nil {
			auth.WriteError(w, err)
			return
		}

		if _, err := db.Exec("DELETE FROM vehicles WHERE id = $1", id); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete vehicle")
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Vehicle deleted successfully")
	}
}

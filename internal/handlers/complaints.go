package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"cabride-backend/internal/auth"
	"cabride-backend/internal/middleware"
	"cabride-backend/internal/models"
	"cabride-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CreateComplaintRequest struct {
	RideID      string `json:"ride_id"`
	Description string `json:"description"`
}

// CreateComplaint files a complaint against a ride the acting user took.
// Requires create_complaint.
func CreateComplaint(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermCreateComplaint); err != nil {
			auth.WriteError(w, err)
			return
		}

		var req CreateComplaintRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.RideID == "" || req.Description == "" {
			utils.RespondError(w, http.StatusBadRequest, "ride_id and description are required")
			return
		}

		var ride models.Ride
		err := db.Get(&ride, "SELECT * FROM rides WHERE id = $1", req.RideID)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Ride not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if ride.UserID != current.ID {
			utils.RespondError(w, http.StatusForbidden, "You can only complain about your own rides")
			return
		}

		complaint := models.Complaint{
			ID:          uuid.New().String(),
			UserID:      current.ID,
			RideID:      req.RideID,
			Description: req.Description,
			Status:      models.ComplaintStatusOpen,
			CreatedAt:   time.Now().Unix(),
		}

		_, err = db.Exec(`
			INSERT INTO complaints (id, user_id, ride_id, description, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, complaint.ID, complaint.UserID, complaint.RideID, complaint.Description,
			complaint.Status, complaint.CreatedAt)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create complaint")
			return
		}

		log.Printf("📣 Complaint filed by %s on ride %s", current.Email, req.RideID)
		utils.RespondJSON(w, http.StatusCreated, complaint.ToComplaintResponse())
	}
}

// GetComplaints lists all complaints. Admin only.
func GetComplaints(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewAllComplaints); err != nil {
			auth.WriteError(w, err)
			return
		}

		var complaints []models.Complaint
		if err := db.Select(&complaints, "SELECT * FROM complaints ORDER BY created_at DESC"); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		respondComplaintList(w, complaints)
	}
}

// GetComplaint returns one complaint. Admin (view_all_complaints) or the
// filer.
func GetComplaint(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var complaint models.Complaint
		err := db.Get(&complaint, "SELECT * FROM complaints WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Complaint not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewAllComplaints, complaint.UserID == current.ID); err != nil {
			auth.WriteError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, complaint.ToComplaintResponse())
	}
}

// ComplaintsByUser lists a user's complaints. Admin or self.
func ComplaintsByUser(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewAllComplaints, userID == current.ID); err != nil {
			auth.WriteError(w, err)
			return
		}

		var complaints []models.Complaint
		err := db.Select(&complaints,
			"SELECT * FROM complaints WHERE user_id = $1 ORDER BY created_at DESC", userID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		respondComplaintList(w, complaints)
	}
}

// ResolveComplaint marks an open complaint resolved. Admin only; resolving
// twice is an error.
func ResolveComplaint(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermResolveComplaint); err != nil {
			auth.WriteError(w, err)
			return
		}

		var complaint models.Complaint
		err := db.Get(&complaint, "SELECT * FROM complaints WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Complaint not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if complaint.Status == models.ComplaintStatusResolved {
			utils.RespondError(w, http.StatusBadRequest, "Complaint is already resolved")
			return
		}

		now := time.Now().Unix()
		_, err = db.Exec("UPDATE complaints SET status = $1, resolved_at = $2 WHERE id = $3",
			models.ComplaintStatusResolved, now, id)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to resolve complaint")
			return
		}

		complaint.Status = models.ComplaintStatusResolved
		complaint.ResolvedAt = sql.NullInt64{Int64: now, Valid: true}
		utils.RespondJSON(w, http.StatusOK, complaint.ToComplaintResponse())
	}
}

// DeleteComplaint removes a complaint. Admin (delete_complaint) or the filer.
func DeleteComplaint(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var complaint models.Complaint
		err := db.Get(&complaint, "SELECT * FROM complaints WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Complaint not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermDeleteComplaint, complaint.UserID == current.ID); err != nil {
			auth.WriteError(w, err)
			return
		}

		if _, err := db.Exec("DELETE FROM complaints WHERE id = $1", id); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete complaint")
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Complaint deleted successfully")
	}
}

func respondComplaintList(w http.ResponseWriter, complaints []models.Complaint) {
	responses := make([]models.ComplaintResponse, len(complaints))
	for i := range complaints {
		responses[i] = complaints[i].ToComplaintResponse()
	}
	utils.RespondJSON(w, http.StatusOK, responses)
}

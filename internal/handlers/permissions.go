package handlers

import (
	"encoding/json"
	"net/http"

	"cabride-backend/internal/auth"
	"cabride-backend/internal/middleware"
	"cabride-backend/internal/models"
	"cabride-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type CreatePermissionRequest struct {
	Name string `json:"name"`
}

// CreatePermission registers a new named capability. Requires
// manage_permissions.
func CreatePermission(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermManagePermissions); err != nil {
			auth.WriteError(w, err)
			return
		}

		var req CreatePermissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			utils.RespondError(w, http.StatusBadRequest, "name is required")
			return
		}

		permission := models.Permission{ID: uuid.New().String(), Name: req.Name}
		_, err := db.Exec("INSERT INTO permissions (id, name) VALUES ($1, $2)",
			permission.ID, permission.Name)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			utils.RespondError(w, http.StatusConflict, "Permission already exists")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create permission")
			return
		}
		utils.RespondJSON(w, http.StatusCreated, permission)
	}
}

// GetPermissions lists all named capabilities. Requires manage_permissions.
func GetPermissions(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermManagePermissions); err != nil {
			auth.WriteError(w, err)
			return
		}

		var permissions []models.Permission
		if err := db.Select(&permissions, "SELECT * FROM permissions ORDER BY name"); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, permissions)
	}
}

// DeletePermission removes a capability and every grant referencing it.
// Requires manage_permissions.
func DeletePermission(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermManagePermissions); err != nil {
			auth.WriteError(w, err)
			return
		}

		tx, err := db.Beginx()
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to begin transaction")
			return
		}
		defer tx.Rollback()

		tx.Exec("DELETE FROM role_permissions WHERE permission_id = $1", id)
		res, err := tx.Exec("DELETE FROM permissions WHERE id = $1", id)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete permission")
			return
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			utils.RespondError(w, http.StatusNotFound, "Permission not found")
			return
		}
		if err := tx.Commit(); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to commit")
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Permission deleted successfully")
	}
}

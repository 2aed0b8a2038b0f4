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

type CreateRoleRequest struct {
	Name string `json:"name"`
}

type GrantPermissionRequest struct {
	PermissionID string `json:"permission_id"`
}

// CreateRole adds a new role. Requires manage_roles.
func CreateRole(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermManageRoles); err != nil {
			auth.WriteError(w, err)
			return
		}

		var req CreateRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			utils.RespondError(w, http.StatusBadRequest, "name is required")
			return
		}

		role := models.Role{ID: uuid.New().String(), Name: req.Name}
		_, err := db.Exec("INSERT INTO roles (id, name) VALUES ($1, $2)", role.ID, role.Name)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			utils.RespondError(w, http.StatusConflict, "Role already exists")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create role")
			return
		}
		utils.RespondJSON(w, http.StatusCreated, role)
	}
}

// GetRoles lists all roles. Requires manage_roles.
func GetRoles(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermManageRoles); err != nil {
			auth.WriteError(w, err)
			return
		}

		var roles []models.Role
		if err := db.Select(&roles, "SELECT * FROM roles ORDER BY name"); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, roles)
	}
}

// GetRolePermissions lists the permissions granted to a role.
func GetRolePermissions(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermManageRoles); err != nil {
			auth.WriteError(w, err)
			return
		}

		var exists bool
		db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)", roleID)
		if !exists {
			utils.RespondError(w, http.StatusNotFound, "Role not found")
			return
		}

		var permissions []models.Permission
		err := db.Select(&permissions, `
			SELECT p.* FROM permissions p
			JOIN role_permissions rp ON rp.permission_id = p.id
			WHERE rp.role_id = $1
			ORDER BY p.name
		`, roleID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, permissions)
	}
}

// GrantPermission links a permission to a role. Requires manage_roles.
// Granting the same permission twice is a 409.
func GrantPermission(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermManageRoles); err != nil {
			auth.WriteError(w, err)
			return
		}

		var req GrantPermissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PermissionID == "" {
			utils.RespondError(w, http.StatusBadRequest, "permission_id is required")
			return
		}

		var exists bool
		db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)", roleID)
		if !exists {
			utils.RespondError(w, http.StatusNotFound, "Role not found")
			return
		}
		db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM permissions WHERE id = $1)", req.PermissionID)
		if !exists {
			utils.RespondError(w, http.StatusNotFound, "Permission not found")
			return
		}

		link := models.RolePermission{
			ID:           uuid.New().String(),
			RoleID:       roleID,
			PermissionID: req.PermissionID,
		}
		_, err := db.Exec("INSERT INTO role_permissions (id, role_id, permission_id) VALUES ($1, $2, $3)",
			link.ID, link.RoleID, link.PermissionID)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			utils.RespondError(w, http.StatusConflict, "Permission already granted to this role")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to grant permission")
			return
		}
		utils.RespondJSON(w, http.StatusCreated, link)
	}
}

// RevokePermission unlinks a permission from a role. Requires manage_roles.
func RevokePermission(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID := chi.URLParam(r, "id")
		permissionID := chi.URLParam(r, "permissionId")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermManageRoles); err != nil {
			auth.WriteError(w, err)
			return
		}

		res, err := db.Exec("DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2",
			roleID, permissionID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to revoke permission")
			return
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			utils.RespondError(w, http.StatusNotFound, "Grant not found")
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Permission revoked")
	}
}

// DeleteRole removes a role and its grants. Requires manage_roles. A role
// still assigned to users cannot be removed.
func DeleteRole(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermManageRoles); err != nil {
			auth.WriteError(w, err)
			return
		}

		var inUse bool
		db.Get(&inUse, "SELECT EXISTS (SELECT 1 FROM users WHERE role_id = $1)", id)
		if inUse {
			utils.RespondError(w, http.StatusConflict, "Role is assigned to users")
			return
		}

		tx, err := db.Beginx()
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to begin transaction")
			return
		}
		defer tx.Rollback()

		tx.Exec("DELETE FROM role_permissions WHERE role_id = $1", id)
		res, err := tx.Exec("DELETE FROM roles WHERE id = $1", id)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete role")
			return
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			utils.RespondError(w, http.StatusNotFound, "Role not found")
			return
		}
		if err := tx.Commit(); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to commit")
			return
		}

		utils.RespondMessage(w, http.StatusOK, "Role deleted successfully")
	}
}

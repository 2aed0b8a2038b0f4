package handlers

import (
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

type CreateUserRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type UpdateUserRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Password    *string `json:"password"`
}

// RegisterUser creates a rider account. Public endpoint.
func RegisterUser(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" || req.Email == "" || req.Password == "" {
			utils.RespondError(w, http.StatusBadRequest, "Name, email, and password are required")
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

		user := models.User{
			ID:          uuid.New().String(),
			Name:        req.Name,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			Password:    string(hashed),
			CreatedAt:   time.Now().Unix(),
		}

		err = db.Get(&user.RoleID, "SELECT id FROM roles WHERE name = $1", database.RoleRider)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Rider role not seeded")
			return
		}

		_, err = db.Exec(`
			INSERT INTO users (id, name, email, phone_number, password, rating, role_id, created_at)
			VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
		`, user.ID, user.Name, user.Email, user.PhoneNumber, user.Password, user.RoleID, user.CreatedAt)
		if err != nil {
			log.Printf("❌ Failed to create user: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create user")
			return
		}

		log.Printf("✅ User registered: %s", user.Email)
		utils.RespondJSON(w, http.StatusCreated, user.ToUserResponse())
	}
}

// GetMe returns the authenticated user's own profile.
func GetMe(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var user models.User
		if err := db.Get(&user, "SELECT * FROM users WHERE id = $1", current.ID); err != nil {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondJSON(w, http.StatusOK, user.ToUserResponse())
	}
}

// GetUsers lists all users. Requires view_user.
func GetUsers(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewUser); err != nil {
			auth.WriteError(w, err)
			return
		}

		var users []models.User
		if err := db.Select(&users, "SELECT * FROM users ORDER BY created_at DESC"); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		responses := make([]models.UserResponse, len(users))
		for i, u := range users {
			responses[i] = u.ToUserResponse()
		}
		utils.RespondJSON(w, http.StatusOK, responses)
	}
}

// GetUser returns a single user. Admin (view_user) or self.
func GetUser(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var user models.User
		if err := db.Get(&user, "SELECT * FROM users WHERE id = $1", id); err != nil {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewUser, current.ID == id); err != nil {
			auth.WriteError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, user.ToUserResponse())
	}
}

// UpdateUser applies a full or partial update. Admin (update_user) or self.
// Serves both PUT and PATCH: absent fields are left untouched.
func UpdateUser(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var user models.User
		if err := db.Get(&user, "SELECT * FROM users WHERE id = $1", id); err != nil {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermUpdateUser, current.ID == id); err != nil {
			auth.WriteError(w, err)
			return
		}

		var req UpdateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Email != nil {
			user.Email = *req.Email
		}
		if req.PhoneNumber != nil {
			user.PhoneNumber = *req.PhoneNumber
		}
		if req.Password != nil {
			hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				utils.RespondError(w, http.StatusInternalServerError, "Failed to hash password")
				return
			}
			user.Password = string(hashed)
		}

		_, err := db.Exec(`
			UPDATE users SET name = $1, email = $2, phone_number = $3, password = $4
			WHERE id = $5
		`, user.Name, user.Email, user.PhoneNumber, user.Password, id)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to update user")
			return
		}
		utils.RespondJSON(w, http.StatusOK, user.ToUserResponse())
	}
}

// DeleteUser removes a user. Admin (delete_user) or self.
func DeleteUser(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var user models.User
		if err := db.Get(&user, "SELECT * FROM users WHERE id = $1", id); err != nil {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermDeleteUser, current.ID == id); err != nil {
			auth.WriteError(w, err)
			return
		}

		if _, err := db.Exec("DELETE FROM users WHERE id = $1", id); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete user")
			return
		}
		utils.RespondMessage(w, http.StatusOK, "User '"+user.Name+"' deleted successfully")
	}
}

type RegisterFCMTokenRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

// RegisterFCMToken stores a device push token for the authenticated user.
func RegisterFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)

		var req RegisterFCMTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Token == "" || (req.DeviceType != "ios" && req.DeviceType != "android") {
			utils.RespondError(w, http.StatusBadRequest, "token and device_type ('ios' or 'android') are required")
			return
		}

		now := time.Now().Unix()
		_, err := db.Exec(`
			INSERT INTO fcm_tokens (user_id, token, device_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (token) DO UPDATE SET user_id = $1, device_type = $3, updated_at = $4
		`, current.ID, req.Token, req.DeviceType, now)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to register token")
			return
		}
		utils.RespondMessage(w, http.StatusOK, "FCM token registered")
	}
}

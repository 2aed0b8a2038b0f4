package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"cabride-backend/internal/auth"
	"cabride-backend/internal/models"
	"cabride-backend/pkg/utils"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login verifies credentials and issues a 1h bearer token whose subject is
// the user's email.
func Login(db *sqlx.DB, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		log.Printf("🔐 Login attempt for: %s", req.Email)

		var user models.User
		if err := db.Get(&user, "SELECT * FROM users WHERE email = $1", req.Email); err != nil {
			log.Printf("❌ Login failed, no such user: %s", req.Email)
			utils.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			log.Printf("❌ Invalid password for: %s", req.Email)
			utils.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		tokenString, err := auth.NewAccessToken(user.Email, jwtSecret)
		if err != nil {
			log.Printf("❌ Failed to sign token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}

		log.Printf("✅ Login successful: %s", user.Email)
		utils.RespondJSON(w, http.StatusOK, LoginResponse{
			AccessToken: tokenString,
			TokenType:   "bearer",
		})
	}
}

// Logout acknowledges the logout. Tokens are stateless; clients drop them.
func Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.RespondMessage(w, http.StatusOK, "User logged out successfully")
	}
}

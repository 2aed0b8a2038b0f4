package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"cabride-backend/internal/auth"
	"cabride-backend/pkg/utils"

	"github.com/jmoiron/sqlx"
)

type contextKey string

const UserContextKey contextKey = "user"

// CurrentUser is the authenticated identity resolved from a bearer token.
type CurrentUser struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Email    string `db:"email"`
	RoleID   string `db:"role_id"`
	RoleName string `db:"role_name"`
}

// Auth validates the bearer token, resolves its subject (the user's email) to
// a user row, and stores the identity in the request context. Token parsing
// runs before any database access.
func Auth(db *sqlx.DB, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.RespondError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				utils.RespondError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			email, err := auth.ParseSubject(parts[1], jwtSecret)
			if err != nil {
				log.Printf("❌ Token rejected: %v", err)
				auth.WriteError(w, err)
				return
			}

			user, err := LoadUserByEmail(db, email)
			if err != nil {
				log.Printf("❌ Token subject no longer exists: %s", email)
				utils.RespondError(w, http.StatusUnauthorized, "user not found")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadUserByEmail resolves an email to the identity used for authorization.
func LoadUserByEmail(db *sqlx.DB, email string) (CurrentUser, error) {
	var user CurrentUser
	err := db.Get(&user, `
		SELECT u.id, u.name, u.email, u.role_id, r.name AS role_name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.email = $1
	`, email)
	return user, err
}

// GetUserFromContext extracts the authenticated user from the request context.
func GetUserFromContext(r *http.Request) (CurrentUser, bool) {
	user, ok := r.Context().Value(UserContextKey).(CurrentUser)
	return user, ok
}

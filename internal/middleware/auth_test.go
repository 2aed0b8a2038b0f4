package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cabride-backend/internal/auth"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func authedHandler(t *testing.T, wantEmail string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r)
		if !ok {
			t.Error("identity missing from context")
		}
		if user.Email != wantEmail {
			t.Errorf("email = %q, want %q", user.Email, wantEmail)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMissingHeader(t *testing.T) {
	db, _ := newMockDB(t)
	handler := Auth(db, "secret")(authedHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMalformedHeader(t *testing.T) {
	db, _ := newMockDB(t)
	handler := Auth(db, "secret")(authedHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthInvalidToken(t *testing.T) {
	db, _ := newMockDB(t)
	handler := Auth(db, "secret")(authedHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthValidToken(t *testing.T) {
	db, mock := newMockDB(t)

	token, err := auth.NewAccessToken("rider@example.com", "secret")
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	mock.ExpectQuery("SELECT u.id, u.name, u.email").
		WithArgs("rider@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role_id", "role_name"}).
			AddRow("u1", "Rider", "rider@example.com", "r1", "rider"))

	handler := Auth(db, "secret")(authedHandler(t, "rider@example.com"))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAuthDeletedUser(t *testing.T) {
	db, mock := newMockDB(t)

	token, err := auth.NewAccessToken("gone@example.com", "secret")
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	mock.ExpectQuery("SELECT u.id, u.name, u.email").
		WithArgs("gone@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role_id", "role_name"}))

	handler := Auth(db, "secret")(authedHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

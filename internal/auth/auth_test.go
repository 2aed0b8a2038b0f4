package auth

import (
	"errors"
	"testing"

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

func TestHasPermissionGranted(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("role-1", "accept_booking").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	granted, err := HasPermission(db, "role-1", "accept_booking")
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if !granted {
		t.Error("expected grant")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRequirePermissionDenied(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("role-1", "view_all_bookings").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := RequirePermission(db, "role-1", "view_all_bookings")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestAllowAdminOrOwner(t *testing.T) {
	cases := []struct {
		name    string
		granted bool
		isOwner bool
		wantErr bool
	}{
		{"admin without ownership", true, false, false},
		{"owner without permission", false, true, false},
		{"admin and owner", true, true, false},
		{"neither", false, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery("SELECT EXISTS").
				WithArgs("role-1", "view_user").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tc.granted))

			err := AllowAdminOrOwner(db, "role-1", "view_user", tc.isOwner)
			if tc.wantErr && !errors.Is(err, ErrForbidden) {
				t.Errorf("expected ErrForbidden, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestHasPermissionQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnError(errors.New("connection reset"))

	_, err := HasPermission(db, "role-1", "accept_booking")
	if err == nil {
		t.Fatal("expected error")
	}
	// a lookup failure must not read as a denial
	if errors.Is(err, ErrForbidden) {
		t.Error("query error must not map to ErrForbidden")
	}
}

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cabride-backend/internal/middleware"
	"cabride-backend/internal/models"
	"cabride-backend/internal/websocket"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

var bookingColumns = []string{
	"id", "user_id", "driver_id", "pickup_location", "dropoff_location",
	"pickup_time", "dropoff_time", "fare_estimate", "status", "created_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

// newAuthedRequest builds a request carrying the authenticated identity and a
// chi {id} route parameter, the way the router and auth middleware would.
func newAuthedRequest(method, target, bookingID string, user middleware.CurrentUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", bookingID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = context.WithValue(ctx, middleware.UserContextKey, user)
	return req.WithContext(ctx)
}

func expectGrantedPermission(mock sqlmock.Sqlmock, roleID, permission string) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(roleID, permission).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
}

func TestAcceptBookingSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	driver := middleware.CurrentUser{ID: "u-driver", Email: "driver@example.com", RoleID: "r-driver"}

	expectGrantedPermission(mock, "r-driver", "accept_booking")
	mock.ExpectQuery(`SELECT \* FROM drivers WHERE user_id`).
		WithArgs("u-driver").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "license", "experience_years"}).
			AddRow("d1", "u-driver", "DL-1", 3))
	mock.ExpectExec("UPDATE bookings SET driver_id").
		WithArgs("d1", models.BookingStatusPendingUser, 30.0, "b1", models.BookingStatusRequested).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM bookings WHERE id`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow("b1", "u-rider", "d1", "A", "B", 1700000000, nil, 30.0, models.BookingStatusPendingUser, 1700000000))
	mock.ExpectQuery("SELECT token FROM fcm_tokens").
		WithArgs("u-rider").
		WillReturnRows(sqlmock.NewRows([]string{"token"}))

	req := newAuthedRequest(http.MethodPut, "/api/bookings/b1/accept?proposed_fare=30", "b1", driver)
	rec := httptest.NewRecorder()
	AcceptBooking(db, websocket.NewHub(), nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAcceptBookingAlreadyTaken(t *testing.T) {
	db, mock := newMockDB(t)
	driver := middleware.CurrentUser{ID: "u-driver", RoleID: "r-driver"}

	expectGrantedPermission(mock, "r-driver", "accept_booking")
	mock.ExpectQuery(`SELECT \* FROM drivers WHERE user_id`).
		WithArgs("u-driver").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "license", "experience_years"}).
			AddRow("d2", "u-driver", "DL-2", 1))
	// the guarded update matches nothing: another driver won the race
	mock.ExpectExec("UPDATE bookings SET driver_id").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM bookings WHERE id`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow("b1", "u-rider", "d1", "A", "B", 1700000000, nil, 25.0, models.BookingStatusPendingUser, 1700000000))

	req := newAuthedRequest(http.MethodPut, "/api/bookings/b1/accept?proposed_fare=30", "b1", driver)
	rec := httptest.NewRecorder()
	AcceptBooking(db, websocket.NewHub(), nil)(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body = %s", rec.Code, rec.Body.String())
	}
}

func TestAcceptBookingWrongState(t *testing.T) {
	db, mock := newMockDB(t)
	driver := middleware.CurrentUser{ID: "u-driver", RoleID: "r-driver"}

	expectGrantedPermission(mock, "r-driver", "accept_booking")
	mock.ExpectQuery(`SELECT \* FROM drivers WHERE user_id`).
		WithArgs("u-driver").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "license", "experience_years"}).
			AddRow("d1", "u-driver", "DL-1", 3))
	mock.ExpectExec("UPDATE bookings SET driver_id").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// no driver assigned, so the booking itself is out of state
	mock.ExpectQuery(`SELECT \* FROM bookings WHERE id`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow("b1", "u-rider", nil, "A", "B", 1700000000, nil, 25.0, models.BookingStatusCancelled, 1700000000))

	req := newAuthedRequest(http.MethodPut, "/api/bookings/b1/accept?proposed_fare=30", "b1", driver)
	rec := httptest.NewRecorder()
	AcceptBooking(db, websocket.NewHub(), nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

func TestAcceptBookingNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	driver := middleware.CurrentUser{ID: "u-driver", RoleID: "r-driver"}

	expectGrantedPermission(mock, "r-driver", "accept_booking")
	mock.ExpectQuery(`SELECT \* FROM drivers WHERE user_id`).
		WithArgs("u-driver").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "license", "experience_years"}).
			AddRow("d1", "u-driver", "DL-1", 3))
	mock.ExpectExec("UPDATE bookings SET driver_id").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM bookings WHERE id`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	req := newAuthedRequest(http.MethodPut, "/api/bookings/nope/accept?proposed_fare=30", "nope", driver)
	rec := httptest.NewRecorder()
	AcceptBooking(db, websocket.NewHub(), nil)(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body = %s", rec.Code, rec.Body.String())
	}
}

func TestAcceptBookingMissingFare(t *testing.T) {
	db, mock := newMockDB(t)
	driver := middleware.CurrentUser{ID: "u-driver", RoleID: "r-driver"}
	expectGrantedPermission(mock, "r-driver", "accept_booking")

	req := newAuthedRequest(http.MethodPut, "/api/bookings/b1/accept", "b1", driver)
	rec := httptest.NewRecorder()
	AcceptBooking(db, websocket.NewHub(), nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestConfirmBookingNotOwner(t *testing.T) {
	db, mock := newMockDB(t)
	stranger := middleware.CurrentUser{ID: "u-other", RoleID: "r-rider"}

	expectGrantedPermission(mock, "r-rider", "confirm_booking")
	mock.ExpectQuery(`SELECT \* FROM bookings WHERE id`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow("b1", "u-rider", "d1", "A", "B", 1700000000, nil, 30.0, models.BookingStatusPendingUser, 1700000000))

	req := newAuthedRequest(http.MethodPut, "/api/bookings/b1/confirm", "b1", stranger)
	rec := httptest.NewRecorder()
	ConfirmBooking(db, websocket.NewHub(), nil)(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body = %s", rec.Code, rec.Body.String())
	}
}

func TestConfirmBookingWrongState(t *testing.T) {
	db, mock := newMockDB(t)
	rider := middleware.CurrentUser{ID: "u-rider", RoleID: "r-rider"}

	expectGrantedPermission(mock, "r-rider", "confirm_booking")
	// still requested: no driver has accepted, nothing to confirm
	mock.ExpectQuery(`SELECT \* FROM bookings WHERE id`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow("b1", "u-rider", nil, "A", "B", 1700000000, nil, 25.0, models.BookingStatusRequested, 1700000000))

	req := newAuthedRequest(http.MethodPut, "/api/bookings/b1/confirm", "b1", rider)
	rec := httptest.NewRecorder()
	ConfirmBooking(db, websocket.NewHub(), nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

func TestCancelCompletedBookingRejected(t *testing.T) {
	db, mock := newMockDB(t)
	rider := middleware.CurrentUser{ID: "u-rider", RoleID: "r-rider"}

	expectGrantedPermission(mock, "r-rider", "cancel_booking")
	mock.ExpectQuery(`SELECT \* FROM bookings WHERE id`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow("b1", "u-rider", "d1", "A", "B", 1700000000, 1700003600, 25.0, models.BookingStatusCompleted, 1700000000))
	// the admin-or-owner probe runs even though the rider owns the booking
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("r-rider", "view_all_bookings").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	req := newAuthedRequest(http.MethodPut, "/api/bookings/b1/cancel", "b1", rider)
	rec := httptest.NewRecorder()
	CancelBooking(db, websocket.NewHub())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

var rideColumns = []string{
	"id", "booking_id", "user_id", "driver_id", "start_time", "end_time",
	"distance_travelled", "final_fare", "rating_by_user", "rating_by_driver", "feedback",
}

// Ending a ride twice must not create a second payment: the EXISTS guard
// short-circuits the insert.
func TestEndRidePaymentIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	driver := middleware.CurrentUser{ID: "u-driver", RoleID: "r-driver"}

	expectGrantedPermission(mock, "r-driver", "end_ride_with_rating")
	mock.ExpectQuery(`SELECT \* FROM bookings WHERE id`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow("b1", "u-rider", "d1", "A", "B", 1700000000, nil, 25.0, models.BookingStatusOngoing, 1700000000))
	mock.ExpectQuery(`SELECT \* FROM rides WHERE booking_id`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(rideColumns).
			AddRow("ride1", "b1", "u-rider", "d1", 1700000000, nil, 0, 25.0, nil, nil, nil))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE rides SET end_time").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// no rated rides yet, so both averages stay untouched
	mock.ExpectQuery("SELECT rating_by_user FROM rides").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"rating_by_user"}))
	mock.ExpectQuery("SELECT rating_by_driver FROM rides").
		WithArgs("u-rider").
		WillReturnRows(sqlmock.NewRows([]string{"rating_by_driver"}))
	// a payment already exists, so no INSERT follows
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM payments`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	req := newAuthedRequest(http.MethodPut, "/api/bookings/b1/end", "b1", driver)
	rec := httptest.NewRecorder()
	EndRide(db, websocket.NewHub())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// The first end-ride call creates the pending cash payment from the locked
// fare, and a rider rating updates the driver's rolling average.
func TestEndRideCreatesPayment(t *testing.T) {
	db, mock := newMockDB(t)
	driver := middleware.CurrentUser{ID: "u-driver", RoleID: "r-driver"}

	expectGrantedPermission(mock, "r-driver", "end_ride_with_rating")
	mock.ExpectQuery(`SELECT \* FROM bookings WHERE id`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow("b1", "u-rider", "d1", "A", "B", 1700000000, nil, 25.0, models.BookingStatusOngoing, 1700000000))
	mock.ExpectQuery(`SELECT \* FROM rides WHERE booking_id`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(rideColumns).
			AddRow("ride1", "b1", "u-rider", "d1", 1700000000, nil, 0, 25.0, nil, nil, nil))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE rides SET end_time").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT rating_by_user FROM rides").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"rating_by_user"}).AddRow(5).AddRow(4).AddRow(3).AddRow(5))
	mock.ExpectExec("UPDATE users SET rating").
		WithArgs(4.25, "d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT rating_by_driver FROM rides").
		WithArgs("u-rider").
		WillReturnRows(sqlmock.NewRows([]string{"rating_by_driver"}))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM payments`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := newAuthedRequest(http.MethodPut, "/api/bookings/b1/end?user_rating=5", "b1", driver)
	rec := httptest.NewRecorder()
	EndRide(db, websocket.NewHub())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

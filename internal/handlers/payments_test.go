package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cabride-backend/internal/middleware"
	"cabride-backend/internal/models"
	"cabride-backend/internal/websocket"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
)

var paymentColumns = []string{
	"id", "booking_id", "user_id", "amount", "payment_method",
	"transaction_id", "status", "timestamp",
}

func newPaymentRequest(body, paymentID string, user middleware.CurrentUser) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/api/payments/"+paymentID+"/complete", strings.NewReader(body))

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", paymentID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = context.WithValue(ctx, middleware.UserContextKey, user)
	return req.WithContext(ctx)
}

func pendingPaymentRow(mock sqlmock.Sqlmock, id, userID string, amount float64) {
	mock.ExpectQuery(`SELECT \* FROM payments WHERE id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(paymentColumns).
			AddRow(id, "b1", userID, amount, "cash", "txn-1", models.PaymentStatusPending, 1700000000))
}

func TestCompletePaymentSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	rider := middleware.CurrentUser{ID: "u-rider", Email: "rider@example.com", RoleID: "r-rider"}

	pendingPaymentRow(mock, "p1", "u-rider", 25.50)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := newPaymentRequest(`{"amount": 25.50, "payment_method": "card"}`, "p1", rider)
	rec := httptest.NewRecorder()
	CompletePayment(db, websocket.NewHub())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCompletePaymentAmountMismatch(t *testing.T) {
	db, mock := newMockDB(t)
	rider := middleware.CurrentUser{ID: "u-rider", RoleID: "r-rider"}

	pendingPaymentRow(mock, "p1", "u-rider", 25.50)

	req := newPaymentRequest(`{"amount": 20.00}`, "p1", rider)
	rec := httptest.NewRecorder()
	CompletePayment(db, websocket.NewHub())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "amount mismatch") {
		t.Errorf("body = %s, want amount mismatch message", rec.Body.String())
	}
}

func TestCompletePaymentNotOwner(t *testing.T) {
	db, mock := newMockDB(t)
	stranger := middleware.CurrentUser{ID: "u-other", RoleID: "r-rider"}

	pendingPaymentRow(mock, "p1", "u-rider", 25.50)

	req := newPaymentRequest(`{"amount": 25.50}`, "p1", stranger)
	rec := httptest.NewRecorder()
	CompletePayment(db, websocket.NewHub())(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body = %s", rec.Code, rec.Body.String())
	}
}

func TestCompletePaymentAlreadyCompleted(t *testing.T) {
	db, mock := newMockDB(t)
	rider := middleware.CurrentUser{ID: "u-rider", RoleID: "r-rider"}

	mock.ExpectQuery(`SELECT \* FROM payments WHERE id`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(paymentColumns).
			AddRow("p1", "b1", "u-rider", 25.50, "card", "txn-1", models.PaymentStatusCompleted, 1700000000))

	req := newPaymentRequest(`{"amount": 25.50}`, "p1", rider)
	rec := httptest.NewRecorder()
	CompletePayment(db, websocket.NewHub())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

func TestCompletePaymentNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	rider := middleware.CurrentUser{ID: "u-rider", RoleID: "r-rider"}

	mock.ExpectQuery(`SELECT \* FROM payments WHERE id`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(paymentColumns))

	req := newPaymentRequest(`{"amount": 25.50}`, "nope", rider)
	rec := httptest.NewRecorder()
	CompletePayment(db, websocket.NewHub())(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body = %s", rec.Code, rec.Body.String())
	}
}

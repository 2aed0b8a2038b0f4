package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"cabride-backend/internal/auth"
	"cabride-backend/internal/middleware"
	"cabride-backend/internal/models"
	"cabride-backend/internal/websocket"
	"cabride-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

// DriverPayments lists payments for rides handled by the acting driver.
func DriverPayments(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)

		driver, err := driverForUser(db, current.ID)
		if err != nil {
			auth.WriteError(w, err)
			return
		}

		var payments []models.Payment
		err = db.Select(&payments, `
			SELECT p.* FROM payments p
			JOIN bookings b ON b.id = p.booking_id
			JOIN rides rd ON rd.booking_id = b.id
			WHERE rd.driver_id = $1
			ORDER BY p.timestamp DESC
		`, driver.ID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, payments)
	}
}

// PaymentsByDriver lists payments for rides handled by the given driver.
// Admin (view_driver_payments) or the driver themselves.
func PaymentsByDriver(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var ownerID string
		err := db.Get(&ownerID, "SELECT user_id FROM drivers WHERE id = $1", driverID)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Driver not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewDriverPayments, ownerID == current.ID); err != nil {
			auth.WriteError(w, err)
			return
		}

		var payments []models.Payment
		err = db.Select(&payments, `
			SELECT p.* FROM payments p
			JOIN bookings b ON b.id = p.booking_id
			JOIN rides rd ON rd.booking_id = b.id
			WHERE rd.driver_id = $1
			ORDER BY p.timestamp DESC
		`, driverID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, payments)
	}
}

// MyPaymentsByStatus lists the acting user's payments in the given status.
func MyPaymentsByStatus(db *sqlx.DB, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)

		var payments []models.Payment
		err := db.Select(&payments,
			"SELECT * FROM payments WHERE user_id = $1 AND status = $2 ORDER BY timestamp DESC",
			current.ID, status)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, payments)
	}
}

// GetPayments lists all payments. Admin only.
func GetPayments(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewAllPayments); err != nil {
			auth.WriteError(w, err)
			return
		}

		var payments []models.Payment
		if err := db.Select(&payments, "SELECT * FROM payments ORDER BY timestamp DESC"); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, payments)
	}
}

// PaymentsByStatus filters payments by status. Admin only.
func PaymentsByStatus(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewAllPayments); err != nil {
			auth.WriteError(w, err)
			return
		}

		var payments []models.Payment
		err := db.Select(&payments,
			"SELECT * FROM payments WHERE status = $1 ORDER BY timestamp DESC",
			chi.URLParam(r, "status"))
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, payments)
	}
}

// PaymentsByDateRange filters payments by timestamp range (unix seconds,
// inclusive). Admin only.
func PaymentsByDateRange(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewAllPayments); err != nil {
			auth.WriteError(w, err)
			return
		}

		start, err1 := strconv.ParseInt(r.URL.Query().Get("start"), 10, 64)
		end, err2 := strconv.ParseInt(r.URL.Query().Get("end"), 10, 64)
		if err1 != nil || err2 != nil {
			utils.RespondError(w, http.StatusBadRequest, "start and end query parameters are required (unix seconds)")
			return
		}

		var payments []models.Payment
		err := db.Select(&payments,
			"SELECT * FROM payments WHERE timestamp >= $1 AND timestamp <= $2 ORDER BY timestamp DESC",
			start, end)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, payments)
	}
}

// GetPayment returns one payment. Admin (view_all_payments), the paying user,
// or the driver of the underlying ride.
func GetPayment(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var payment models.Payment
		err := db.Get(&payment, "SELECT * FROM payments WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Payment not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		isRelated := payment.UserID == current.ID
		if !isRelated {
			var driverUserID string
			db.Get(&driverUserID, `
				SELECT d.user_id FROM rides rd
				JOIN drivers d ON d.id = rd.driver_id
				WHERE rd.booking_id = $1
			`, payment.BookingID)
			isRelated = driverUserID != "" && driverUserID == current.ID
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewAllPayments, isRelated); err != nil {
			auth.WriteError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, payment)
	}
}

type UpdatePaymentStatusRequest struct {
	Status string `json:"status"`
}

// UpdatePaymentStatus sets a payment's status to an arbitrary value. Admin
// only.
func UpdatePaymentStatus(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermUpdatePaymentStatus); err != nil {
			auth.WriteError(w, err)
			return
		}

		var req UpdatePaymentStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
			utils.RespondError(w, http.StatusBadRequest, "status is required")
			return
		}

		var payment models.Payment
		err := db.Get(&payment, "SELECT * FROM payments WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Payment not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		payment.Status = req.Status
		payment.Timestamp = time.Now().Unix()
		_, err = db.Exec("UPDATE payments SET status = $1, timestamp = $2 WHERE id = $3",
			payment.Status, payment.Timestamp, id)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to update payment")
			return
		}
		utils.RespondJSON(w, http.StatusOK, payment)
	}
}

type CompletePaymentRequest struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

// CompletePayment is the payer's self-service settlement. The supplied amount
// must match the on-file amount exactly once rounded to 2 decimals; only a
// pending payment may be completed. A completed booking is promoted to paid.
func CompletePayment(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var payment models.Payment
		err := db.Get(&payment, "SELECT * FROM payments WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Payment not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if payment.UserID != current.ID {
			utils.RespondError(w, http.StatusForbidden, "You can only complete your own payments")
			return
		}

		var req CompletePaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if payment.Status != models.PaymentStatusPending {
			auth.WriteError(w, fmt.Errorf("%w: payment already processed", auth.ErrInvalidState))
			return
		}
		if !amountsMatch(req.Amount, payment.Amount) {
			auth.WriteError(w, fmt.Errorf("%w: payment amount mismatch", auth.ErrValidation))
			return
		}

		method := req.PaymentMethod
		if method == "" {
			method = payment.PaymentMethod
		}

		tx, err := db.Beginx()
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to begin transaction")
			return
		}
		defer tx.Rollback()

		now := time.Now().Unix()
		_, err = tx.Exec(`
			UPDATE payments SET status = $1, payment_method = $2, timestamp = $3 WHERE id = $4
		`, models.PaymentStatusCompleted, method, now, id)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to update payment")
			return
		}

		// Promote the booking only when it is sitting in 'completed'.
		_, err = tx.Exec("UPDATE bookings SET status = $1 WHERE id = $2 AND status = $3",
			models.BookingStatusPaid, payment.BookingID, models.BookingStatusCompleted)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := tx.Commit(); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to commit")
			return
		}

		payment.Status = models.PaymentStatusCompleted
		payment.PaymentMethod = method
		payment.Timestamp = now

		log.Printf("💰 Payment %s completed by %s", id, current.Email)
		hub.NotifyBooking(payment.UserID, "payment_completed", payment.BookingID, models.BookingStatusPaid, payment.Amount)

		utils.RespondJSON(w, http.StatusOK, payment)
	}
}

// DeletePayment removes a payment record. Admin only, irreversible.
func DeletePayment(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermDeletePayment); err != nil {
			auth.WriteError(w, err)
			return
		}

		res, err := db.Exec("DELETE FROM payments WHERE id = $1", id)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete payment")
			return
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			utils.RespondError(w, http.StatusNotFound, "Payment not found")
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Payment deleted successfully")
	}
}

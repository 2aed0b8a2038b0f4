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
	"cabride-backend/internal/services"
	"cabride-backend/internal/websocket"
	"cabride-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CreateBookingRequest struct {
	PickupLocation  string  `json:"pickup_location"`
	DropoffLocation string  `json:"dropoff_location"`
	PickupTime      int64   `json:"pickup_time"`
	FareEstimate    float64 `json:"fare_estimate"`
}

// CreateBooking opens a new booking in "requested" for the authenticated
// rider. Requires create_booking.
func CreateBooking(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermCreateBooking); err != nil {
			auth.WriteError(w, err)
			return
		}

		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.PickupLocation == "" || req.DropoffLocation == "" {
			utils.RespondError(w, http.StatusBadRequest, "pickup_location and dropoff_location are required")
			return
		}

		booking := models.Booking{
			ID:              uuid.New().String(),
			UserID:          current.ID,
			PickupLocation:  req.PickupLocation,
			DropoffLocation: req.DropoffLocation,
			PickupTime:      req.PickupTime,
			FareEstimate:    req.FareEstimate,
			Status:          models.BookingStatusRequested,
			CreatedAt:       time.Now().Unix(),
		}

		_, err := db.Exec(`
			INSERT INTO bookings (id, user_id, pickup_location, dropoff_location, pickup_time, fare_estimate, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, booking.ID, booking.UserID, booking.PickupLocation, booking.DropoffLocation,
			booking.PickupTime, booking.FareEstimate, booking.Status, booking.CreatedAt)
		if err != nil {
			log.Printf("❌ Failed to create booking: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create booking")
			return
		}

		log.Printf("🚕 Booking created: %s by %s", booking.ID, current.Email)
		utils.RespondJSON(w, http.StatusCreated, booking.ToBookingResponse())
	}
}

// GetAvailableBookings lists bookings still in "requested", for drivers.
func GetAvailableBookings(db *sqlx.DB) http.HandlerFunc {
	return bookingListing(db, auth.PermViewAvailableBookings,
		"SELECT * FROM bookings WHERE status = $1 ORDER BY created_at DESC",
		models.BookingStatusRequested)
}

// GetBookings lists every booking. Admin only.
func GetBookings(db *sqlx.DB) http.HandlerFunc {
	return bookingListing(db, auth.PermViewAllBookings,
		"SELECT * FROM bookings ORDER BY created_at DESC")
}

// OngoingBookings lists bookings currently in "ongoing". Admin only.
func OngoingBookings(db *sqlx.DB) http.HandlerFunc {
	return bookingListing(db, auth.PermViewAllBookings,
		"SELECT * FROM bookings WHERE status = $1 ORDER BY created_at DESC",
		models.BookingStatusOngoing)
}

// CompletedBookings lists bookings in "completed". Admin only.
func CompletedBookings(db *sqlx.DB) http.HandlerFunc {
	return bookingListing(db, auth.PermViewAllBookings,
		"SELECT * FROM bookings WHERE status = $1 ORDER BY created_at DESC",
		models.BookingStatusCompleted)
}

func bookingListing(db *sqlx.DB, permission, query string, args ...interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, permission); err != nil {
			auth.WriteError(w, err)
			return
		}
		respondBookingList(w, db, query, args...)
	}
}

func respondBookingList(w http.ResponseWriter, db *sqlx.DB, query string, args ...interface{}) {
	var bookings []models.Booking
	if err := db.Select(&bookings, query, args...); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "Database error")
		return
	}
	responses := make([]models.BookingResponse, len(bookings))
	for i, b := range bookings {
		responses[i] = b.ToBookingResponse()
	}
	utils.RespondJSON(w, http.StatusOK, responses)
}

// MyBookings lists the authenticated user's own bookings.
func MyBookings(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		respondBookingList(w, db,
			"SELECT * FROM bookings WHERE user_id = $1 ORDER BY created_at DESC", current.ID)
	}
}

// BookingsByUser lists a given user's bookings. Requires view_user_bookings.
func BookingsByUser(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewUserBookings); err != nil {
			auth.WriteError(w, err)
			return
		}
		respondBookingList(w, db,
			"SELECT * FROM bookings WHERE user_id = $1 ORDER BY created_at DESC",
			chi.URLParam(r, "userID"))
	}
}

// BookingsByDriver lists a driver's bookings. Requires view_driver_bookings.
func BookingsByDriver(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewDriverBookings); err != nil {
			auth.WriteError(w, err)
			return
		}
		respondBookingList(w, db,
			"SELECT * FROM bookings WHERE driver_id = $1 ORDER BY created_at DESC",
			chi.URLParam(r, "driverID"))
	}
}

// AcceptedBookingsForDriver lists a driver's bookings awaiting ride start.
func AcceptedBookingsForDriver(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, _ := middleware.GetUserFromContext(r)
		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewDriverBookings); err != nil {
			auth.WriteError(w, err)
			return
		}
		respondBookingList(w, db,
			"SELECT * FROM bookings WHERE driver_id = $1 AND status = $2 ORDER BY created_at DESC",
			chi.URLParam(r, "driverID"), models.BookingStatusAccepted)
	}
}

// GetBooking returns one booking. Admin (view_all_bookings), the requesting
// user, or the assigned driver.
func GetBooking(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		var booking models.Booking
		err := db.Get(&booking, "SELECT * FROM bookings WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Booking not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewAllBookings,
			bookingParticipant(db, &booking, current.ID)); err != nil {
			auth.WriteError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, booking.ToBookingResponse())
	}
}

// bookingParticipant reports whether userID is the booking's requester or its
// assigned driver.
func bookingParticipant(db *sqlx.DB, booking *models.Booking, userID string) bool {
	if booking.UserID == userID {
		return true
	}
	if !booking.DriverID.Valid {
		return false
	}
	return userIDForDriver(db, booking.DriverID.String) == userID
}

// AcceptBooking assigns the acting driver to a requested booking and proposes
// a fare. The assignment is a single guarded UPDATE so two racing drivers
// cannot both win: the loser's update matches zero rows and maps to Conflict.
func AcceptBooking(db *sqlx.DB, hub *websocket.Hub, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermAcceptBooking); err != nil {
			auth.WriteError(w, err)
			return
		}

		proposedFare, err := strconv.ParseFloat(r.URL.Query().Get("proposed_fare"), 64)
		if err != nil || proposedFare < 0 {
			utils.RespondError(w, http.StatusBadRequest, "proposed_fare query parameter is required")
			return
		}

		driver, err := driverForUser(db, current.ID)
		if err != nil {
			auth.WriteError(w, err)
			return
		}

		res, err := db.Exec(`
			UPDATE bookings SET driver_id = $1, status = $2, fare_estimate = $3
			WHERE id = $4 AND status = $5 AND driver_id IS NULL
		`, driver.ID, models.BookingStatusPendingUser, proposedFare, id, models.BookingStatusRequested)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		rows, _ := res.RowsAffected()
		if rows == 0 {
			var booking models.Booking
			err := db.Get(&booking, "SELECT * FROM bookings WHERE id = $1", id)
			if err == sql.ErrNoRows {
				utils.RespondError(w, http.StatusNotFound, "Booking not found")
				return
			}
			if err != nil {
				utils.RespondError(w, http.StatusInternalServerError, "Database error")
				return
			}
			if booking.DriverID.Valid {
				auth.WriteError(w, fmt.Errorf("%w: booking already accepted by another driver", auth.ErrConflict))
				return
			}
			auth.WriteError(w, auth.InvalidStateError(booking.Status, models.BookingStatusRequested))
			return
		}

		var booking models.Booking
		if err := db.Get(&booking, "SELECT * FROM bookings WHERE id = $1", id); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		log.Printf("🚕 Booking %s accepted by driver %s, proposed fare %.2f", id, driver.ID, proposedFare)
		hub.NotifyBooking(booking.UserID, "booking_accepted", booking.ID, booking.Status, proposedFare)
		for _, token := range fcmTokensForUser(db, booking.UserID) {
			if err := fcm.SendBookingAcceptedNotification(token, booking.ID, proposedFare); err != nil {
				log.Printf("⚠️ FCM push failed: %v", err)
			}
		}

		utils.RespondJSON(w, http.StatusOK, booking.ToBookingResponse())
	}
}

// ConfirmBooking locks in the proposed fare. Only the requesting user may
// confirm, and only from pending_user_confirmation.
func ConfirmBooking(db *sqlx.DB, hub *websocket.Hub, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermConfirmBooking); err != nil {
			auth.WriteError(w, err)
			return
		}

		var booking models.Booking
		err := db.Get(&booking, "SELECT * FROM bookings WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Booking not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if booking.UserID != current.ID {
			utils.RespondError(w, http.StatusForbidden, "You can only confirm your own bookings")
			return
		}
		if !models.CanTransition(booking.Status, models.BookingStatusAccepted) {
			auth.WriteError(w, auth.InvalidStateError(booking.Status, models.AllowedSources(models.BookingStatusAccepted)...))
			return
		}

		booking.Status = models.BookingStatusAccepted
		if _, err := db.Exec("UPDATE bookings SET status = $1 WHERE id = $2", booking.Status, id); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		driverUserID := userIDForDriver(db, booking.DriverID.String)
		hub.NotifyBooking(driverUserID, "booking_confirmed", booking.ID, booking.Status, booking.FareEstimate)
		for _, token := range fcmTokensForUser(db, driverUserID) {
			if err := fcm.SendBookingConfirmedNotification(token, booking.ID); err != nil {
				log.Printf("⚠️ FCM push failed: %v", err)
			}
		}

		utils.RespondJSON(w, http.StatusOK, booking.ToBookingResponse())
	}
}

// CancelBooking cancels a booking from any non-terminal state. Allowed for
// the requesting user, the assigned driver, or an admin.
func CancelBooking(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermCancelBooking); err != nil {
			auth.WriteError(w, err)
			return
		}

		var booking models.Booking
		err := db.Get(&booking, "SELECT * FROM bookings WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Booking not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := auth.AllowAdminOrOwner(db, current.RoleID, auth.PermViewAllBookings,
			bookingParticipant(db, &booking, current.ID)); err != nil {
			auth.WriteError(w, err)
			return
		}

		if !models.CanTransition(booking.Status, models.BookingStatusCancelled) {
			auth.WriteError(w, fmt.Errorf("%w: cannot cancel a completed or paid booking", auth.ErrInvalidState))
			return
		}

		booking.Status = models.BookingStatusCancelled
		if _, err := db.Exec("UPDATE bookings SET status = $1 WHERE id = $2", booking.Status, id); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		hub.NotifyBooking(booking.UserID, "booking_cancelled", booking.ID, booking.Status, 0)
		if booking.DriverID.Valid {
			hub.NotifyBooking(userIDForDriver(db, booking.DriverID.String), "booking_cancelled", booking.ID, booking.Status, 0)
		}

		utils.RespondJSON(w, http.StatusOK, booking.ToBookingResponse())
	}
}

// StartRide moves an accepted booking to "ongoing" and creates the ride
// record, copying the booking's fare.
func StartRide(db *sqlx.DB, hub *websocket.Hub, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermStartRide); err != nil {
			auth.WriteError(w, err)
			return
		}

		var booking models.Booking
		err := db.Get(&booking, "SELECT * FROM bookings WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Booking not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if !models.CanTransition(booking.Status, models.BookingStatusOngoing) {
			auth.WriteError(w, auth.InvalidStateError(booking.Status, models.AllowedSources(models.BookingStatusOngoing)...))
			return
		}

		tx, err := db.Beginx()
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to begin transaction")
			return
		}
		defer tx.Rollback()

		booking.Status = models.BookingStatusOngoing
		if _, err := tx.Exec("UPDATE bookings SET status = $1 WHERE id = $2", booking.Status, id); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		_, err = tx.Exec(`
			INSERT INTO rides (id, booking_id, user_id, driver_id, start_time, distance_travelled, final_fare)
			VALUES ($1, $2, $3, $4, $5, 0, $6)
		`, uuid.New().String(), booking.ID, booking.UserID, booking.DriverID.String,
			time.Now().Unix(), booking.FareEstimate)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create ride")
			return
		}

		if err := tx.Commit(); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to commit")
			return
		}

		log.Printf("🛣️ Ride started for booking %s", id)
		hub.NotifyBooking(booking.UserID, "ride_started", booking.ID, booking.Status, booking.FareEstimate)
		for _, token := range fcmTokensForUser(db, booking.UserID) {
			if err := fcm.SendRideStartedNotification(token, booking.ID); err != nil {
				log.Printf("⚠️ FCM push failed: %v", err)
			}
		}

		utils.RespondJSON(w, http.StatusOK, booking.ToBookingResponse())
	}
}

// EndRide closes the ride for a booking: sets the end time, applies the
// optional per-side ratings and feedback, recomputes both rolling averages
// over the full ride history, marks the booking completed, and creates the
// pending payment if none exists yet.
func EndRide(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermEndRideWithRating); err != nil {
			auth.WriteError(w, err)
			return
		}

		var booking models.Booking
		err := db.Get(&booking, "SELECT * FROM bookings WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Booking not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		var ride models.Ride
		err = db.Get(&ride, "SELECT * FROM rides WHERE booking_id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Ride not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		q := r.URL.Query()
		userRating := parseOptionalInt(q.Get("user_rating"))
		driverRating := parseOptionalInt(q.Get("driver_rating"))

		feedback := ""
		if ride.Feedback.Valid {
			feedback = ride.Feedback.String
		}
		if userRating != nil {
			ride.RatingByUser = sql.NullInt64{Int64: *userRating, Valid: true}
			if uf := q.Get("user_feedback"); uf != "" {
				feedback += "\n[User]: " + uf
			}
		}
		if driverRating != nil {
			ride.RatingByDriver = sql.NullInt64{Int64: *driverRating, Valid: true}
			if df := q.Get("driver_feedback"); df != "" {
				feedback += "\n[Driver]: " + df
			}
		}

		tx, err := db.Beginx()
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to begin transaction")
			return
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			UPDATE rides SET end_time = $1, rating_by_user = $2, rating_by_driver = $3, feedback = $4
			WHERE id = $5
		`, time.Now().Unix(), ride.RatingByUser, ride.RatingByDriver, nullableString(feedback), ride.ID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to update ride")
			return
		}

		booking.Status = models.BookingStatusCompleted
		if _, err := tx.Exec("UPDATE bookings SET status = $1, dropoff_time = $2 WHERE id = $3",
			booking.Status, time.Now().Unix(), id); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if err := recomputeDriverRating(tx, ride.DriverID); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to recompute driver rating")
			return
		}
		if err := recomputeRiderRating(tx, ride.UserID); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to recompute rider rating")
			return
		}

		// Payment creation is idempotent: at most one payment per booking.
		var paymentExists bool
		if err := tx.Get(&paymentExists,
			"SELECT EXISTS (SELECT 1 FROM payments WHERE booking_id = $1)", booking.ID); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !paymentExists {
			_, err = tx.Exec(`
				INSERT INTO payments (id, booking_id, user_id, amount, payment_method, transaction_id, status, timestamp)
				VALUES ($1, $2, $3, $4, 'cash', $5, $6, $7)
			`, uuid.New().String(), booking.ID, booking.UserID, booking.FareEstimate,
				uuid.New().String(), models.PaymentStatusPending, time.Now().Unix())
			if err != nil {
				utils.RespondError(w, http.StatusInternalServerError, "Failed to create payment")
				return
			}
		}

		if err := tx.Commit(); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to commit")
			return
		}

		log.Printf("🏁 Ride ended for booking %s", id)
		hub.NotifyBooking(booking.UserID, "ride_completed", booking.ID, booking.Status, booking.FareEstimate)

		utils.RespondJSON(w, http.StatusOK, booking.ToBookingResponse())
	}
}

// recomputeDriverRating recalculates a driver's rolling average as the simple
// mean of rating_by_user across all of that driver's rated rides. Full
// re-scan each time; unrated rides are excluded.
func recomputeDriverRating(tx *sqlx.Tx, driverID string) error {
	var ratings []int64
	err := tx.Select(&ratings,
		"SELECT rating_by_user FROM rides WHERE driver_id = $1 AND rating_by_user IS NOT NULL", driverID)
	if err != nil {
		return err
	}
	if len(ratings) == 0 {
		return nil
	}
	_, err = tx.Exec(`
		UPDATE users SET rating = $1 WHERE id = (SELECT user_id FROM drivers WHERE id = $2)
	`, average(ratings), driverID)
	return err
}

// recomputeRiderRating is the symmetric rule for the rider's average, over
// rating_by_driver.
func recomputeRiderRating(tx *sqlx.Tx, userID string) error {
	var ratings []int64
	err := tx.Select(&ratings,
		"SELECT rating_by_driver FROM rides WHERE user_id = $1 AND rating_by_driver IS NOT NULL", userID)
	if err != nil {
		return err
	}
	if len(ratings) == 0 {
		return nil
	}
	_, err = tx.Exec("UPDATE users SET rating = $1 WHERE id = $2", average(ratings), userID)
	return err
}

func parseOptionalInt(s string) *int64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetBookingPayment returns the payment attached to a booking.
func GetBookingPayment(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermViewPayment); err != nil {
			auth.WriteError(w, err)
			return
		}

		var payment models.Payment
		err := db.Get(&payment, "SELECT * FROM payments WHERE booking_id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Payment not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		utils.RespondJSON(w, http.StatusOK, payment)
	}
}

// PayBooking marks the booking's payment completed and the booking paid.
// Admin-level operation; riders settle via the payments endpoint instead.
func PayBooking(db *sqlx.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		current, _ := middleware.GetUserFromContext(r)

		if err := auth.RequirePermission(db, current.RoleID, auth.PermCompletePayment); err != nil {
			auth.WriteError(w, err)
			return
		}

		var booking models.Booking
		err := db.Get(&booking, "SELECT * FROM bookings WHERE id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Booking not found")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		var payment models.Payment
		err = db.Get(&payment, "SELECT * FROM payments WHERE booking_id = $1", id)
		if err == sql.ErrNoRows {
			utils.RespondError(w, http.StatusNotFound, "Payment record missing")
			return
		}
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if !models.CanTransition(booking.Status, models.BookingStatusPaid) {
			auth.WriteError(w, auth.InvalidStateError(booking.Status, models.AllowedSources(models.BookingStatusPaid)...))
			return
		}
		if payment.Status == models.PaymentStatusCompleted {
			auth.WriteError(w, fmt.Errorf("%w: payment already completed", auth.ErrInvalidState))
			return
		}

		tx, err := db.Beginx()
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to begin transaction")
			return
		}
		defer tx.Rollback()

		now := time.Now().Unix()
		if _, err := tx.Exec("UPDATE payments SET status = $1, timestamp = $2 WHERE id = $3",
			models.PaymentStatusCompleted, now, payment.ID); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if _, err := tx.Exec("UPDATE bookings SET status = $1 WHERE id = $2",
			models.BookingStatusPaid, id); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if err := tx.Commit(); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to commit")
			return
		}

		payment.Status = models.PaymentStatusCompleted
		payment.Timestamp = now
		hub.NotifyBooking(booking.UserID, "payment_completed", booking.ID, models.BookingStatusPaid, payment.Amount)

		utils.RespondJSON(w, http.StatusOK, payment)
	}
}

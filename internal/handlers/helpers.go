package handlers

import (
	"database/sql"
	"fmt"
	"math"

	"cabride-backend/internal/auth"
	"cabride-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

// driverForUser resolves the driver extension row for a user. A user without
// one is not a driver.
func driverForUser(db *sqlx.DB, userID string) (models.Driver, error) {
	var driver models.Driver
	err := db.Get(&driver, "SELECT * FROM drivers WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return driver, fmt.Errorf("%w: driver profile", auth.ErrNotFound)
	}
	return driver, err
}

// fcmTokensForUser returns all registered device tokens for a user.
// Errors are swallowed: a failed push lookup must never fail the request.
func fcmTokensForUser(db *sqlx.DB, userID string) []string {
	var tokens []string
	db.Select(&tokens, "SELECT token FROM fcm_tokens WHERE user_id = $1", userID)
	return tokens
}

// userIDForDriver maps a driver id back to its owning user id, for
// notifications addressed by user.
func userIDForDriver(db *sqlx.DB, driverID string) string {
	var userID string
	if err := db.Get(&userID, "SELECT user_id FROM drivers WHERE id = $1", driverID); err != nil {
		return ""
	}
	return userID
}

// round2 rounds a monetary amount to 2 decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// amountsMatch reports whether two amounts are equal once rounded to 2
// decimals. Payment completion requires an exact match.
func amountsMatch(supplied, onFile float64) bool {
	return round2(supplied) == round2(onFile)
}

// average is the simple arithmetic mean used for rolling rating
// recomputation. Returns 0 for an empty slice.
func average(ratings []int64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum int64
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

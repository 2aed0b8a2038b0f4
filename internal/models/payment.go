package models

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

// Payment is created exactly once per booking, when its ride ends.
// transaction_id is globally unique.
type Payment struct {
	ID            string  `json:"id" db:"id"`
	BookingID     string  `json:"booking_id" db:"booking_id"`
	UserID        string  `json:"user_id" db:"user_id"`
	Amount        float64 `json:"amount" db:"amount"`
	PaymentMethod string  `json:"payment_method" db:"payment_method"`
	TransactionID string  `json:"transaction_id" db:"transaction_id"`
	Status        string  `json:"status" db:"status"`
	Timestamp     int64   `json:"timestamp" db:"timestamp"`
}

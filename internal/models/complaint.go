package models

import "database/sql"

const (
	ComplaintStatusOpen     = "open"
	ComplaintStatusResolved = "resolved"
)

type Complaint struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	RideID      string        `json:"ride_id" db:"ride_id"`
	Description string        `json:"description" db:"description"`
	Status      string        `json:"status" db:"status"`
	CreatedAt   int64         `json:"created_at" db:"created_at"`
	ResolvedAt  sql.NullInt64 `json:"-" db:"resolved_at"`
}

type ComplaintResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	RideID      string `json:"ride_id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	ResolvedAt  *int64 `json:"resolved_at"`
}

func (c *Complaint) ToComplaintResponse() ComplaintResponse {
	resp := ComplaintResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		RideID:      c.RideID,
		Description: c.Description,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
	}
	if c.ResolvedAt.Valid {
		resp.ResolvedAt = &c.ResolvedAt.Int64
	}
	return resp
}

package models

type User struct {
	ID          string  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Email       string  `json:"email" db:"email"`
	PhoneNumber string  `json:"phone_number" db:"phone_number"`
	Password    string  `json:"-" db:"password"` // Never return password in JSON
	Rating      float64 `json:"rating" db:"rating"`
	RoleID      string  `json:"role_id" db:"role_id"`
	CreatedAt   int64   `json:"created_at" db:"created_at"`
}

type UserResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	Rating      float64 `json:"rating"`
	RoleID      string  `json:"role_id"`
	CreatedAt   int64   `json:"created_at"`
}

func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Rating:      u.Rating,
		RoleID:      u.RoleID,
		CreatedAt:   u.CreatedAt,
	}
}

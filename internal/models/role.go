package models

type Role struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Permission struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// RolePermission links a role to a granted permission.
// A (role_id, permission_id) pair is unique.
type RolePermission struct {
	ID           string `json:"id" db:"id"`
	RoleID       string `json:"role_id" db:"role_id"`
	PermissionID string `json:"permission_id" db:"permission_id"`
}

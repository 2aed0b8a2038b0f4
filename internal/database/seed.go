package database

import (
	"log"

	"cabride-backend/internal/auth"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// Built-in role names. Registration assigns rider; driver registration
// assigns driver.
const (
	RoleAdmin  = "admin"
	RoleDriver = "driver"
	RoleRider  = "rider"
)

// rolePermissions maps each built-in role to its granted permission set.
// Admin gets everything; ownership overrides cover what riders and drivers
// may do to their own resources beyond these grants.
var rolePermissions = map[string][]string{
	RoleAdmin: auth.AllPermissions,
	RoleDriver: {
		auth.PermViewAvailableBookings, auth.PermAcceptBooking,
		auth.PermCancelBooking, auth.PermStartRide, auth.PermEndRideWithRating,
		auth.PermViewDriverBookings, auth.PermViewPayment,
		auth.PermCreateVehicle, auth.PermViewVehicle,
		auth.PermUpdateVehicle, auth.PermDeleteVehicle,
	},
	RoleRider: {
		auth.PermCreateBooking, auth.PermConfirmBooking, auth.PermCancelBooking,
		auth.PermViewPayment, auth.PermCreateComplaint,
	},
}

// SeedRoles creates the built-in roles, the permission catalog, and the
// role-permission grants. Safe to run on every start.
func SeedRoles(db *sqlx.DB) error {
	for _, name := range auth.AllPermissions {
		_, err := db.Exec(`
			INSERT INTO permissions (id, name) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, uuid.New().String(), name)
		if err != nil {
			return err
		}
	}

	for role, perms := range rolePermissions {
		_, err := db.Exec(`
			INSERT INTO roles (id, name) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, uuid.New().String(), role)
		if err != nil {
			return err
		}

		for _, perm := range perms {
			_, err := db.Exec(`
				INSERT INTO role_permissions (id, role_id, permission_id)
				SELECT $1, r.id, p.id FROM roles r, permissions p
				WHERE r.name = $2 AND p.name = $3
				ON CONFLICT (role_id, permission_id) DO NOTHING
			`, uuid.New().String(), role, perm)
			if err != nil {
				return err
			}
		}
	}

	log.Println("✅ Roles and permissions seeded")
	return nil
}

// SeedAdmin creates the bootstrap admin account if no user holds that email.
func SeedAdmin(db *sqlx.DB, email, password string) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users WHERE email = $1", email); err != nil {
		return err
	}
	if count > 0 {
		log.Println("✓ Admin already seeded, skipping...")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO users (id, name, email, phone_number, password, role_id)
		SELECT $1, 'Administrator', $2, '', $3, r.id FROM roles r WHERE r.name = $4
	`, uuid.New().String(), email, string(hashed), RoleAdmin)
	if err != nil {
		return err
	}

	log.Printf("🌱 Bootstrap admin seeded: %s", email)
	return nil
}

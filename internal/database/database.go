package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection established")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Roles and permissions (RBAC primitives)
		`CREATE TABLE IF NOT EXISTS roles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS permissions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS role_permissions (
			id TEXT PRIMARY KEY,
			role_id TEXT NOT NULL,
			permission_id TEXT NOT NULL,
			UNIQUE (role_id, permission_id),
			FOREIGN KEY (role_id) REFERENCES roles(id) ON DELETE CASCADE,
			FOREIGN KEY (permission_id) REFERENCES permissions(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone_number TEXT NOT NULL,
			password TEXT NOT NULL,
			rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			role_id TEXT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (role_id) REFERENCES roles(id)
		)`,

		// Driver is a 1:1 extension of a user
		`CREATE TABLE IF NOT EXISTS drivers (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			license TEXT NOT NULL,
			experience_years INT NOT NULL DEFAULT 0,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS vehicles (
			id TEXT PRIMARY KEY,
			driver_id TEXT NOT NULL,
			vehicle_type TEXT NOT NULL,
			registration_number TEXT NOT NULL UNIQUE,
			model TEXT NOT NULL,
			color TEXT NOT NULL,
			capacity INT NOT NULL,
			insurance_valid_till TEXT NOT NULL,
			FOREIGN KEY (driver_id) REFERENCES drivers(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			driver_id TEXT,
			pickup_location TEXT NOT NULL,
			dropoff_location TEXT NOT NULL,
			pickup_time BIGINT NOT NULL,
			dropoff_time BIGINT,
			fare_estimate DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL CHECK(status IN (
				'requested', 'pending_user_confirmation', 'accepted',
				'ongoing', 'completed', 'paid', 'cancelled'
			)),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (driver_id) REFERENCES drivers(id)
		)`,

		// A ride exists iff its booking has passed through 'ongoing'
		`CREATE TABLE IF NOT EXISTS rides (
			id TEXT PRIMARY KEY,
			booking_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			driver_id TEXT NOT NULL,
			start_time BIGINT NOT NULL,
			end_time BIGINT,
			distance_travelled DOUBLE PRECISION NOT NULL DEFAULT 0,
			final_fare DOUBLE PRECISION NOT NULL,
			rating_by_user INT,
			rating_by_driver INT,
			feedback TEXT,
			FOREIGN KEY (booking_id) REFERENCES bookings(id),
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (driver_id) REFERENCES drivers(id)
		)`,

		// A payment exists iff its ride has ended; one per booking
		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			booking_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			payment_method TEXT NOT NULL,
			transaction_id TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL CHECK(status IN ('pending', 'completed')),
			timestamp BIGINT NOT NULL,
			FOREIGN KEY (booking_id) REFERENCES bookings(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,

		`CREATE TABLE IF NOT EXISTS complaints (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			ride_id TEXT NOT NULL,
			description TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('open', 'resolved')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			resolved_at BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (ride_id) REFERENCES rides(id)
		)`,

		`CREATE TABLE IF NOT EXISTS fcm_tokens (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			device_type TEXT NOT NULL CHECK(device_type IN ('ios', 'android')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_driver ON bookings(driver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rides_driver ON rides(driver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rides_user ON rides(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Println("✅ Database migrations completed")
	return nil
}

package main

import (
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// One-off helper: seeds demo rider and driver accounts for manual testing.
// Run with `go run add_demo_users.go` against a migrated database.
func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("🔌 Connected to database")

	riderPassword, err := bcrypt.GenerateFromPassword([]byte("rider123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash rider password: %v", err)
	}
	driverPassword, err := bcrypt.GenerateFromPassword([]byte("driver123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash driver password: %v", err)
	}

	riders := []struct {
		name, email, phone string
	}{
		{"Demo Rider", "rider@cabride.local", "+15550100"},
		{"Second Rider", "rider2@cabride.local", "+15550101"},
	}

	for _, rider := range riders {
		_, err := db.Exec(`
			INSERT INTO users (id, name, email, phone_number, password, role_id)
			SELECT $1, $2, $3, $4, $5, r.id FROM roles r WHERE r.name = 'rider'
			ON CONFLICT (email) DO NOTHING
		`, uuid.New().String(), rider.name, rider.email, rider.phone, string(riderPassword))
		if err != nil {
			log.Fatalf("Failed to seed rider %s: %v", rider.email, err)
		}
		log.Printf("✅ Rider ready: %s (password: rider123)", rider.email)
	}

	driverUserID := uuid.New().String()
	_, err = db.Exec(`
		INSERT INTO users (id, name, email, phone_number, password, role_id)
		SELECT $1, 'Demo Driver', 'driver@cabride.local', '+15550200', $2, r.id
		FROM roles r WHERE r.name = 'driver'
		ON CONFLICT (email) DO NOTHING
	`, driverUserID, string(driverPassword))
	if err != nil {
		log.Fatalf("Failed to seed driver user: %v", err)
	}

	// The upsert above may have skipped; resolve the actual user id.
	if err := db.Get(&driverUserID, "SELECT id FROM users WHERE email = 'driver@cabride.local'"); err != nil {
		log.Fatalf("Failed to look up driver user: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO drivers (id, user_id, license, experience_years)
		VALUES ($1, $2, 'DL-DEMO-001', 5)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New().String(), driverUserID)
	if err != nil {
		log.Fatalf("Failed to seed driver record: %v", err)
	}
	log.Println("✅ Driver ready: driver@cabride.local (password: driver123)")

	log.Println("🎉 Demo users seeded")
}

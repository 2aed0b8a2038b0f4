package main

import (
	"fmt"
	"log"
	"os"

	"cabride-backend/internal/database"

	"github.com/joho/godotenv"
)

// Standalone migration runner for deployments where the schema is managed
// out of band from the server process.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully!")

	var result struct {
		Tables      int `db:"tables"`
		Roles       int `db:"roles"`
		Permissions int `db:"permissions"`
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public') AS tables,
			(SELECT COUNT(*) FROM roles) AS roles,
			(SELECT COUNT(*) FROM permissions) AS permissions
	`
	if err := db.Get(&result, query); err != nil {
		log.Fatalf("Failed to query summary: %v", err)
	}

	fmt.Println("\n============================================================")
	fmt.Println("MIGRATION SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("Tables in schema:        %d\n", result.Tables)
	fmt.Printf("Roles seeded:            %d\n", result.Roles)
	fmt.Printf("Permissions seeded:      %d\n", result.Permissions)
	fmt.Println("============================================================")
}

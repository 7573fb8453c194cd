package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/rentwheels/car-rental-backend/internal/config"
	"github.com/rentwheels/car-rental-backend/internal/database"
	"github.com/rentwheels/car-rental-backend/migrations"
)

func main() {
	var dbURLFlag string
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	names, err := migrations.Names()
	if err != nil {
		log.Fatalf("failed to list migrations: %v", err)
	}

	// Every statement is IF NOT EXISTS, so re-running is safe
	for _, name := range names {
		body, err := migrations.Files.ReadFile(name)
		if err != nil {
			log.Fatalf("failed to read %s: %v", name, err)
		}
		if _, err := db.Exec(string(body)); err != nil {
			log.Fatalf("failed to apply %s: %v", name, err)
		}
		fmt.Printf("  applied %s\n", name)
	}

	fmt.Println("Schema is up to date.")
}

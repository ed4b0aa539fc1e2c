package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/futhaxball/backend/internal/admin"
	"github.com/futhaxball/backend/internal/config"
	"github.com/futhaxball/backend/internal/database"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	username := os.Getenv("OPERATOR_USERNAME")
	if username == "" {
		username = "admin"
		log.Printf("Using default operator username: %s", username)
	}

	token := os.Getenv("OPERATOR_TOKEN")
	if token == "" {
		token = "change-me-in-production"
		log.Printf("WARNING: Using default operator token. Set OPERATOR_TOKEN env var in production!")
	}

	displayName := os.Getenv("OPERATOR_DISPLAY_NAME")
	if displayName == "" {
		displayName = "Operator"
	}

	roles := []string{"operator"}
	if extra := os.Getenv("OPERATOR_ROLES"); extra != "" {
		roles = strings.Split(extra, ",")
	}

	if err := admin.CreateOperator(db, username, displayName, token, roles); err != nil {
		log.Fatalf("Failed to create operator: %v", err)
	}

	log.Printf("Operator account created/updated")
	log.Printf("  Username: %s", username)
	log.Printf("  Display Name: %s", displayName)
	log.Printf("  Roles: %v", roles)
	log.Println("Log in with POST /api/v1/admin/login {\"username\", \"token\"}")
}

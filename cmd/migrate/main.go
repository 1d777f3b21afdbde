package main

import (
	"log"

	"referral-chat/internal/config"
	"referral-chat/internal/repository"
	"referral-chat/pkg/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("Failed to apply schema migration: %v", err)
	}

	log.Println("Schema migration applied")
}

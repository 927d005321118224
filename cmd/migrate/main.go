package main

import (
	"flag"
	"log"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/infrastructure/database"
	"github.com/meeting-intelligence-team/meeting-intelligence/pkg/config"
)

func main() {
	dir := flag.String("dir", "migrations", "directory containing SQL migration files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if err := database.RunMigrations(db, *dir); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
}

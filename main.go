package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"meddrop/m/internal/api"
	"meddrop/m/internal/config"
	"meddrop/m/internal/database"
	"meddrop/m/internal/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	handler := api.New(db, cfg.Secret)

	log.Printf("MedDrop server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

package main

import (
	"log"

	"amanai-be/internal/config"
	"amanai-be/internal/model"
	"amanai-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDB(cfg.Database.Driver, cfg.Database.Connection, database.Options{})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Printf("Starting GORM Migration (driver: %s)...", cfg.Database.Driver)

	// 3. AutoMigrate All Models
	log.Println("Step 1: Running AutoMigrate...")

	models := []interface{}{
		&model.Encounter{},
		&model.Report{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 4. Post-Migration: constraints GORM tags cannot express
	log.Println("Step 2: Creating partial indexes...")

	postMigrationSQL := []string{
		// One open encounter per owner
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_encounters_owner_open
		 ON encounters (user_id) WHERE status IN ('active', 'paused');`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("[SUCCESS] Database migration completed successfully via GORM.")
}

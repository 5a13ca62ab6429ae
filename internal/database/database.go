package database

import (
	"fmt"

	"house-swap-app/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Initialize(databaseURL string, debug bool, log logrus.FieldLogger) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	// Configure GORM
	config := &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}

	db, err := gorm.Open(postgres.Open(databaseURL), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("Database connected and migrated successfully")
	return db, nil
}

// Migrate creates or updates every table, including the unique pair indexes
// on match responses, match announcements and reviews.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.HouseImage{},
		&models.MatchResponse{},
		&models.MatchAnnouncement{},
		&models.BookingRequest{},
		&models.Review{},
		&models.Message{},
		&models.Notification{},
	)
}

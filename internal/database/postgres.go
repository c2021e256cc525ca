package database

import (
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"time"

	"github.com/glucolog/glucolog/internal/config"
	"github.com/glucolog/glucolog/internal/database/migrations"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	AuthID string `gorm:"uniqueIndex"` // subject from the external auth provider
	Email  string
	Role   string `gorm:"default:standard"` // "standard" or "caregiver"
}

type Reading struct {
	gorm.Model
	UserID      uint `gorm:"index"`
	User        User
	Value       float64
	Timestamp   time.Time
	MealContext string
	Notes       string
	RunID       *uint `gorm:"index"`
}

type Run struct {
	gorm.Model
	UserID         uint `gorm:"index"`
	User           User
	Name           string
	StartDate      time.Time
	EndDate        time.Time
	MonthID        *uint `gorm:"index"`
	AverageGlucose *float64
	CalculatedA1C  *float64 `gorm:"column:calculated_a1c"`
}

type Month struct {
	gorm.Model
	UserID         uint `gorm:"index"`
	User           User
	Name           string
	StartDate      time.Time
	EndDate        time.Time
	AverageGlucose *float64
	A1CEstimate    *float64 `gorm:"column:a1c_estimate"`
}

type CaregiverConnection struct {
	gorm.Model
	CaregiverID uint `gorm:"index:idx_caregiver_user,unique"`
	UserID      uint `gorm:"index:idx_caregiver_user,unique"`
}

func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get the directory of the current file
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("failed to get current file path")
	}
	migrationsDir := filepath.Join(filepath.Dir(filename), "migrations")

	// Auto-migrate first so SQL migrations can assume the tables exist
	if err := db.AutoMigrate(&User{}, &Reading{}, &Run{}, &Month{}, &CaregiverConnection{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Load and run SQL migrations for what AutoMigrate can't express
	if err := migrations.LoadSQLMigrations(db, migrationsDir); err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database connection established and migrations completed")
	return db, nil
}

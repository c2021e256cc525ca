package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/glucolog/glucolog/internal/logger"
	"gorm.io/gorm"
)

// Migration is a single registered schema change.
type Migration struct {
	ID   string
	Up   func(*gorm.DB) error
	Down func(*gorm.DB) error
}

var registry = make(map[string]Migration)

// Register adds a migration to the registry. IDs are applied in
// lexicographic order, so file names carry a numeric prefix.
func Register(id string, up, down func(*gorm.DB) error) {
	registry[id] = Migration{
		ID:   id,
		Up:   up,
		Down: down,
	}
}

// AppliedMigration records a migration that has already run.
type AppliedMigration struct {
	ID        string `gorm:"primaryKey"`
	AppliedAt int64  `gorm:"autoCreateTime"`
}

// RunMigrations executes all registered migrations that have not been
// applied yet.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&AppliedMigration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var ids []string
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var applied []AppliedMigration
	if err := db.Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	appliedMap := make(map[string]bool)
	for _, m := range applied {
		appliedMap[m.ID] = true
	}

	for _, id := range ids {
		if appliedMap[id] {
			continue
		}
		migration := registry[id]
		logger.Info("Running migration", "id", id)
		if err := migration.Up(db); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", id, err)
		}

		record := AppliedMigration{ID: id}
		if err := db.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", id, err)
		}
		logger.Info("Completed migration", "id", id)
	}

	return nil
}

// LoadSQLMigrations registers every .sql file in dir as an up-only
// migration, identified by its file name without the extension.
func LoadSQLMigrations(db *gorm.DB, dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		id := strings.TrimSuffix(file.Name(), ".sql")
		path := filepath.Join(dir, file.Name())

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
		}

		sql := string(content)
		Register(id, func(db *gorm.DB) error {
			return db.Exec(sql).Error
		}, nil)
	}

	return nil
}

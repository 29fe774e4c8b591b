package database

import (
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"facegate/internal/model"
)

// Open connects to the configured database. The cloud deployment uses a
// postgres URL; anything else is treated as a sqlite file path, which is what
// the on-site controllers run.
func Open(databaseURL string) (*gorm.DB, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(databaseURL), &gorm.Config{})
}

// AutoMigrate creates or updates the schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Admin{},
		&model.Operator{},
		&model.LoginLog{},
		&model.SyncState{},
	)
}

// SeedDefaultAdmin creates the initial admin account if no admin exists yet.
// hashedPassword must already be a bcrypt hash.
func SeedDefaultAdmin(db *gorm.DB, username, hashedPassword string) error {
	var count int64
	if err := db.Model(&model.Admin{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	log.Printf("[DB] Seeding default admin account %q", username)
	return db.Create(&model.Admin{
		Username:       username,
		HashedPassword: hashedPassword,
	}).Error
}

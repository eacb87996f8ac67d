package database

import (
	"gorm.io/gorm"

	"github.com/glucolog/backend/internal/models"
)

// Migrate runs the schema migrations for all application models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Reading{},
	)
}

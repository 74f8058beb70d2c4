package database

import (
	"github.com/ahlanjobb/api/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Media{},
		&model.User{},
	); err != nil {
		return err
	}
	return EnsureIndexes(db)
}

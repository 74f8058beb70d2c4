package database

import (
	"errors"

	"github.com/ahlanjobb/api/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultAdmin defines the bootstrap admin account
type DefaultAdmin struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Cost      int
}

// Seed creates initial data for the database
func Seed(db *gorm.DB, admin DefaultAdmin) error {
	return SeedAdmin(db, admin)
}

// SeedAdmin creates a verified admin account if none with that email exists.
// An empty password skips seeding.
func SeedAdmin(db *gorm.DB, admin DefaultAdmin) error {
	if admin.Password == "" {
		return nil
	}

	var existing model.User
	result := db.Where("email = ?", model.NormalizeEmail(admin.Email)).First(&existing)
	if result.Error == nil {
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	cost := admin.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), cost)
	if err != nil {
		return err
	}

	user := model.User{
		FirstName: admin.FirstName,
		LastName:  admin.LastName,
		Email:     admin.Email,
		Password:  string(hashedPassword),
		Role:      model.RoleAdmin,
		Verified:  true,
		Active:    true,
	}

	return db.Create(&user).Error
}

package database

import (
	"errors"
	"log"
	"os"

	"github.com/veriloan/backend/internal/models"
	"github.com/veriloan/backend/internal/utils"
	"gorm.io/gorm"
)

// EnsureAdminUser creates the bootstrap admin account when none exists.
// Credentials come from ADMIN_EMAIL / ADMIN_PASSWORD; a missing password skips
// seeding so production deploys never pick up a default credential.
func EnsureAdminUser(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded admin user %s", email)
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered borrower or back-office admin
type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name"`
	Email             string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone             string         `gorm:"type:varchar(20)" json:"phone"`
	PasswordHash      string         `gorm:"type:varchar(255);not null" json:"-"`
	IsAdmin           bool           `gorm:"default:false" json:"is_admin"`
	PreferredLanguage string         `gorm:"type:varchar(30);default:'English'" json:"preferred_language"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns an ID when one was not set by the caller
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

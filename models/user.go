package models

import (
	"time"

	"gorm.io/gorm"
)

// Seniority levels accepted for User.Level.
const (
	LevelJunior = "JR"
	LevelMid    = "MID"
	LevelSenior = "SR"
)

// NameMaxLength bounds username, first_name and last_name, in characters.
const NameMaxLength = 30

// Genders accepted for User.Gender.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "O"
)

// User represents an account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID             uint   `gorm:"primaryKey"`
	Username       string `gorm:"size:30;not null;uniqueIndex:idx_users_username"`
	Email          string `gorm:"size:255;not null;uniqueIndex:idx_users_email"`
	PasswordHash   string `gorm:"size:255;not null"`
	FirstName      string `gorm:"size:30"`
	LastName       string `gorm:"size:30"`
	Gender         string `gorm:"size:1;not null"`
	Level          string `gorm:"size:3;not null"`
	ConfirmedEmail bool   `gorm:"not null;default:false"`
	IsStaff        bool   `gorm:"not null;default:false"`
	IsActive       bool   `gorm:"not null"`
	IsSuperuser    bool   `gorm:"not null;default:false"`
	Birth          *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsAdmin reports whether the user holds the admin capability.
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

package models

import "time"

// Token is the opaque bearer credential bound 1:1 to a user.
// Version increases on every rotation and is embedded in access JWTs.
type Token struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"size:64;not null;uniqueIndex:idx_tokens_key"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_tokens_user"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Version   int    `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

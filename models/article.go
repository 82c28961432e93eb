package models

import "time"

// TitleMaxLength is the longest stored title, in characters.
const TitleMaxLength = 30

// Article is owned by exactly one author; the author never changes after creation.
type Article struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"size:30;not null;uniqueIndex:idx_articles_title"`
	Text      string    `gorm:"type:text;not null"`
	AuthorID  uint      `gorm:"index;not null"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	IsPublic  bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

package models

import "time"

// Report records that a user flagged an article. One row per (user, article).
type Report struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;uniqueIndex:idx_reports_user_article,priority:1"`
	User      User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ArticleID uint    `gorm:"not null;index;uniqueIndex:idx_reports_user_article,priority:2"`
	Article   Article `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

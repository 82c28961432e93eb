package models

import "time"

// ArticleView counts reads of one article path on one day.
type ArticleView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Day       time.Time `gorm:"type:date;not null;uniqueIndex:idx_article_views_day_path" json:"day"`
	Path      string    `gorm:"size:255;not null;uniqueIndex:idx_article_views_day_path" json:"path"`
	Views     int64     `gorm:"not null;default:0" json:"views"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import "time"

// Comment belongs to an article. A reply points at another comment of the same article.
// The references are foreign keys, so removing an article, author or parent removes the comment.
type Comment struct {
	ID             uint     `gorm:"primaryKey"`
	Message        string   `gorm:"type:text;not null"`
	Likes          int      `gorm:"not null;default:0"`
	Dislikes       int      `gorm:"not null;default:0"`
	ArticleID      uint     `gorm:"index;not null"`
	Article        Article  `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	AuthorID       uint     `gorm:"index;not null"`
	Author         User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	IsReply        bool     `gorm:"not null;default:false"`
	CommentReplyID *uint    `gorm:"index"`
	Parent         *Comment `gorm:"foreignKey:CommentReplyID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

package dto

import (
	"time"

	"github.com/cppla/articles/models"
)

// ArticleFields is the visibility table of an article. The author comes from the actor.
var ArticleFields = Fields{
	"id":        {Readable: true},
	"title":     {Readable: true, Writable: true, Required: true},
	"text":      {Readable: true, Writable: true, Required: true},
	"is_public": {Readable: true, Writable: true},
	"author":    {Readable: true},
	"created":   {Readable: true},
	"updated":   {Readable: true},
}

// ArticleInput is the decoded article body.
type ArticleInput struct {
	Title    *string `json:"title" validate:"omitempty,notblank,max=30"`
	Text     *string `json:"text" validate:"omitempty,notblank"`
	IsPublic *bool   `json:"is_public"`
}

// Apply copies the sent fields onto a.
func (in *ArticleInput) Apply(a *models.Article) {
	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Text != nil {
		a.Text = *in.Text
	}
	if in.IsPublic != nil {
		a.IsPublic = *in.IsPublic
	}
}

// ArticleResponse is the representation of an article; author is the username.
type ArticleResponse struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Text     string    `json:"text"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	Author   string    `json:"author"`
	IsPublic bool      `json:"is_public"`
}

// ToArticle maps an article with a loaded author.
func ToArticle(a *models.Article) ArticleResponse {
	return ArticleResponse{
		ID:       a.ID,
		Title:    a.Title,
		Text:     a.Text,
		Created:  a.CreatedAt,
		Updated:  a.UpdatedAt,
		Author:   a.Author.Username,
		IsPublic: a.IsPublic,
	}
}

// ToArticles maps a slice of articles.
func ToArticles(articles []models.Article) []ArticleResponse {
	out := make([]ArticleResponse, 0, len(articles))
	for i := range articles {
		out = append(out, ToArticle(&articles[i]))
	}
	return out
}

// ReportResponse lists who reported one article.
type ReportResponse struct {
	ArticleID uint           `json:"article_id"`
	Count     int            `json:"count"`
	Users     []UserResponse `json:"users"`
}

// ToReport maps the reporters of one article.
func ToReport(articleID uint, users []models.User) ReportResponse {
	return ReportResponse{ArticleID: articleID, Count: len(users), Users: ToUsers(users)}
}

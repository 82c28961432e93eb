package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/articles/models"
)

// ArticleListOptions narrows and orders an article listing.
type ArticleListOptions struct {
	PublicOnly bool
	Ascending  bool
	Offset     int
	Limit      int
}

// ArticleRepository persists articles.
type ArticleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates an ArticleRepository.
func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Create inserts the article and loads its author.
func (r *ArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(article).Error; err != nil {
		return translateError(err)
	}
	return translateError(r.db.WithContext(ctx).First(&article.Author, article.AuthorID).Error)
}

// GetByID loads an article with its author.
func (r *ArticleRepository) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Preload("Author").First(&article, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &article, nil
}

// List returns a page of articles ordered by creation time and the total matching count.
// The visibility filter is applied before pagination.
func (r *ArticleRepository) List(ctx context.Context, opts ArticleListOptions) ([]models.Article, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Article{})
	if opts.PublicOnly {
		query = query.Where("is_public = ?", true)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	order := "created_at DESC, id DESC"
	if opts.Ascending {
		order = "created_at ASC, id ASC"
	}
	articles := []models.Article{}
	err := query.Preload("Author").Order(order).Offset(opts.Offset).Limit(opts.Limit).Find(&articles).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return articles, total, nil
}

// Update writes the mutable columns. The author is never touched.
func (r *ArticleRepository) Update(ctx context.Context, article *models.Article) error {
	err := r.db.WithContext(ctx).Model(article).
		Select("title", "text", "is_public", "updated_at").
		Updates(article).Error
	return translateError(err)
}

// Delete removes the article with its comments and reports.
func (r *ArticleRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Article{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("article_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("article_id = ?", id).Delete(&models.Report{}).Error
	})
	return translateError(err)
}

// Exists reports whether an article with id is stored.
func (r *ArticleRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return articleExists(r.db.WithContext(ctx), id)
}

func articleExists(db *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := db.Model(&models.Article{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

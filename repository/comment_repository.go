package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/articles/models"
)

// CommentListOptions filters a comment listing. Nil filters are ignored.
type CommentListOptions struct {
	ArticleID *uint
	ReplyTo   *uint
	Offset    int
	Limit     int
}

// CommentRepository persists comments and replies.
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a CommentRepository.
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a top-level comment. The article foreign key rejects a missing article.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.IsReply = false
	comment.CommentReplyID = nil
	err := translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error)
	if errors.Is(err, ErrInvalidReference) {
		return &InvalidReferenceError{Field: "article", ID: comment.ArticleID}
	}
	if err != nil {
		return err
	}
	return r.loadAuthor(ctx, comment)
}

// CreateReply inserts comment as a reply to parentID. The article is taken from the
// parent inside the same transaction, whatever the caller put in comment.ArticleID.
func (r *CommentRepository) CreateReply(ctx context.Context, parentID uint, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent models.Comment
		if err := tx.Select("id", "article_id").First(&parent, parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &InvalidReferenceError{Field: "comment_reply", ID: parentID}
			}
			return err
		}
		comment.ArticleID = parent.ArticleID
		comment.IsReply = true
		comment.CommentReplyID = &parent.ID
		return tx.Omit(clause.Associations).Create(comment).Error
	})
	err = translateError(err)
	var ref *InvalidReferenceError
	if errors.Is(err, ErrInvalidReference) && !errors.As(err, &ref) {
		// The parent went away between the read and the insert.
		return &InvalidReferenceError{Field: "comment_reply", ID: parentID}
	}
	if err != nil {
		return err
	}
	return r.loadAuthor(ctx, comment)
}

func (r *CommentRepository) loadAuthor(ctx context.Context, comment *models.Comment) error {
	return translateError(r.db.WithContext(ctx).First(&comment.Author, comment.AuthorID).Error)
}

// GetByID loads a comment with its author.
func (r *CommentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &comment, nil
}

// List returns a page of comments in creation order and the total matching count.
func (r *CommentRepository) List(ctx context.Context, opts CommentListOptions) ([]models.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Comment{})
	if opts.ArticleID != nil {
		query = query.Where("article_id = ?", *opts.ArticleID)
	}
	if opts.ReplyTo != nil {
		query = query.Where("comment_reply_id = ?", *opts.ReplyTo)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	comments := []models.Comment{}
	err := query.Preload("Author").Order("created_at ASC, id ASC").Offset(opts.Offset).Limit(opts.Limit).Find(&comments).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return comments, total, nil
}

// ListByArticle returns every comment of an article in creation order.
func (r *CommentRepository) ListByArticle(ctx context.Context, articleID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.WithContext(ctx).Preload("Author").
		Where("article_id = ?", articleID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, translateError(err)
}

// UpdateMessage writes the message column only; the references stay frozen.
func (r *CommentRepository) UpdateMessage(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Model(comment).Select("message", "updated_at").Updates(comment).Error
	return translateError(err)
}

// Delete removes the comment and every reply below it.
func (r *CommentRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Comment{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return deleteCommentTrees(tx, []uint{id})
	})
	return translateError(err)
}

// React increments the like or dislike counter in place and returns the fresh row.
func (r *CommentRepository) React(ctx context.Context, id uint, like bool) (*models.Comment, error) {
	column := "dislikes"
	if like {
		column = "likes"
	}
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return nil, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// deleteCommentTrees deletes roots and all their transitive replies.
func deleteCommentTrees(tx *gorm.DB, roots []uint) error {
	ids, err := collectReplyTree(tx, roots)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return tx.Delete(&models.Comment{}, ids).Error
}

// collectReplyTree walks reply edges breadth first and returns roots plus descendants.
func collectReplyTree(tx *gorm.DB, roots []uint) ([]uint, error) {
	seen := make(map[uint]struct{}, len(roots))
	var all []uint
	frontier := roots
	for len(frontier) > 0 {
		var next []uint
		for _, id := range frontier {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
			next = append(next, id)
		}
		if len(next) == 0 {
			break
		}
		var children []uint
		if err := tx.Model(&models.Comment{}).Where("comment_reply_id IN ?", next).Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		frontier = children
	}
	return all, nil
}

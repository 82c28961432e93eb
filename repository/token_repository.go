package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/articles/models"
)

// TokenRepository stores the opaque token bound to each user.
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a TokenRepository.
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// GetByKey resolves an opaque token value.
func (r *TokenRepository) GetByKey(ctx context.Context, key string) (*models.Token, error) {
	var token models.Token
	if err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&token).Error; err != nil {
		return nil, translateError(err)
	}
	return &token, nil
}

// GetByUserID returns the token bound to the user.
func (r *TokenRepository) GetByUserID(ctx context.Context, userID uint) (*models.Token, error) {
	var token models.Token
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error; err != nil {
		return nil, translateError(err)
	}
	return &token, nil
}

// GetOrCreate returns the user's token, inserting candidate when the user has none.
// Concurrent callers converge on the same row through the unique user_id index.
func (r *TokenRepository) GetOrCreate(ctx context.Context, candidate *models.Token) (*models.Token, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(candidate).Error
	if err != nil {
		return nil, translateError(err)
	}
	return r.GetByUserID(ctx, candidate.UserID)
}

// Rotate replaces the user's token value and bumps its version.
func (r *TokenRepository) Rotate(ctx context.Context, userID uint, newKey string) (*models.Token, error) {
	res := r.db.WithContext(ctx).Model(&models.Token{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"key": newKey, "version": gorm.Expr("version + 1")})
	if res.Error != nil {
		return nil, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByUserID(ctx, userID)
}

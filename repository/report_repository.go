package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/articles/models"
)

// ArticleReports lists the users that reported one article, oldest report first.
type ArticleReports struct {
	ArticleID uint
	Users     []models.User
}

// ReportRepository is the (user, article) report ledger.
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a ReportRepository.
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create records that userID reported articleID. A repeated pair yields ErrAlreadyReported
// and a missing article yields ErrNotFound; both come from the datastore constraints.
func (r *ReportRepository) Create(ctx context.Context, userID, articleID uint) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).
		Create(&models.Report{UserID: userID, ArticleID: articleID}).Error
	err = translateError(err)
	switch {
	case errors.Is(err, ErrDuplicateKey):
		return ErrAlreadyReported
	case errors.Is(err, ErrInvalidReference):
		return ErrNotFound
	}
	return err
}

// ListForArticle returns the users that reported articleID.
func (r *ReportRepository) ListForArticle(ctx context.Context, articleID uint) ([]models.User, error) {
	db := r.db.WithContext(ctx)
	ok, err := articleExists(db, articleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	var reports []models.Report
	if err := db.Preload("User").Where("article_id = ?", articleID).Order("created_at ASC, id ASC").Find(&reports).Error; err != nil {
		return nil, translateError(err)
	}
	users := make([]models.User, 0, len(reports))
	for _, rep := range reports {
		users = append(users, rep.User)
	}
	return users, nil
}

// ListAll groups every report by article. Articles without reports are included
// with an empty user list; the result is ordered by article id.
func (r *ReportRepository) ListAll(ctx context.Context) ([]ArticleReports, error) {
	db := r.db.WithContext(ctx)
	var articleIDs []uint
	if err := db.Model(&models.Article{}).Order("id ASC").Pluck("id", &articleIDs).Error; err != nil {
		return nil, translateError(err)
	}
	var reports []models.Report
	if err := db.Preload("User").Order("created_at ASC, id ASC").Find(&reports).Error; err != nil {
		return nil, translateError(err)
	}

	byArticle := make(map[uint][]models.User, len(articleIDs))
	for _, rep := range reports {
		byArticle[rep.ArticleID] = append(byArticle[rep.ArticleID], rep.User)
	}
	out := make([]ArticleReports, 0, len(articleIDs))
	for _, id := range articleIDs {
		users := byArticle[id]
		if users == nil {
			users = []models.User{}
		}
		out = append(out, ArticleReports{ArticleID: id, Users: users})
	}
	return out, nil
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/articles/models"
)

// Summary holds site-wide counters.
type Summary struct {
	Users      int64 `json:"user_count"`
	Articles   int64 `json:"article_count"`
	Comments   int64 `json:"comment_count"`
	Reports    int64 `json:"report_count"`
	ViewsToday int64 `json:"views_today"`
}

// StatsRepository aggregates counters and article views.
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a StatsRepository.
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// RecordView adds one view of path to today's bucket.
func (r *StatsRepository) RecordView(ctx context.Context, path string, now time.Time) error {
	now = now.In(time.Local)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	// Upsert keeps concurrent first views of a path from colliding on the unique index
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}, {Name: "path"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"views": gorm.Expr("views + 1"), "updated_at": now}),
	}).Create(&models.ArticleView{Day: day, Path: path, Views: 1}).Error
	return translateError(err)
}

// ViewsOn sums the views of every path recorded on the day of t.
func (r *StatsRepository) ViewsOn(ctx context.Context, t time.Time) (int64, error) {
	t = t.In(time.Local)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	var views int64
	err := r.db.WithContext(ctx).Model(&models.ArticleView{}).
		Where("day >= ? AND day < ?", day, day.AddDate(0, 0, 1)).
		Select("COALESCE(SUM(views),0)").
		Scan(&views).Error
	return views, translateError(err)
}

// Summarize counts every entity and today's views.
func (r *StatsRepository) Summarize(ctx context.Context) (Summary, error) {
	db := r.db.WithContext(ctx)
	var s Summary
	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.User{}, &s.Users},
		{&models.Article{}, &s.Articles},
		{&models.Comment{}, &s.Comments},
		{&models.Report{}, &s.Reports},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return Summary{}, translateError(err)
		}
	}
	views, err := r.ViewsOn(ctx, time.Now())
	if err != nil {
		return Summary{}, err
	}
	s.ViewsToday = views
	return s, nil
}

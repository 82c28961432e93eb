package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/articles/repository"
	"github.com/cppla/articles/utils"
)

// StatsController provides site statistics such as counts and today's article views.
type StatsController struct {
	stats *repository.StatsRepository
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(stats *repository.StatsRepository) *StatsController {
	return &StatsController{stats: stats}
}

// GetStats returns aggregate statistics.
func (s *StatsController) GetStats(ctx *gin.Context) {
	summary, err := s.stats.Summarize(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, "stats")
		return
	}
	utils.Success(ctx, summary)
}

package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/articles/dto"
	"github.com/cppla/articles/middleware"
	"github.com/cppla/articles/policy"
	"github.com/cppla/articles/repository"
	"github.com/cppla/articles/utils"
)

// ReportController exposes the report ledger.
type ReportController struct {
	reports *repository.ReportRepository
}

// NewReportController creates a ReportController.
func NewReportController(reports *repository.ReportRepository) *ReportController {
	return &ReportController{reports: reports}
}

// Report flags an article on behalf of the caller. A second report is rejected.
func (r *ReportController) Report(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if !allowed(ctx, actor, policy.Resource{Kind: policy.KindReport}, policy.ActionCreate) {
		return
	}
	articleID, ok := parseID(ctx, "article_id")
	if !ok {
		return
	}
	if err := r.reports.Create(ctx.Request.Context(), actor.UserID, articleID); err != nil {
		respondError(ctx, err, "article")
		return
	}
	utils.Logger.Info("article reported", zap.Uint("article_id", articleID), zap.Uint("user_id", actor.UserID))
	utils.Created(ctx, gin.H{"article_id": articleID, "reported_by": actor.Username})
}

// ListReports returns who reported one article.
func (r *ReportController) ListReports(ctx *gin.Context) {
	if !allowed(ctx, middleware.GetActor(ctx), policy.Resource{Kind: policy.KindReport}, policy.ActionRead) {
		return
	}
	articleID, ok := parseID(ctx, "article_id")
	if !ok {
		return
	}
	users, err := r.reports.ListForArticle(ctx.Request.Context(), articleID)
	if err != nil {
		respondError(ctx, err, "article")
		return
	}
	utils.Success(ctx, dto.ToReport(articleID, users))
}

// ListAllReports returns the reporters of every article keyed by article id.
func (r *ReportController) ListAllReports(ctx *gin.Context) {
	if !allowed(ctx, middleware.GetActor(ctx), policy.Resource{Kind: policy.KindReport}, policy.ActionList) {
		return
	}
	grouped, err := r.reports.ListAll(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, "report")
		return
	}
	out := make(map[uint]dto.ReportResponse, len(grouped))
	for _, g := range grouped {
		out[g.ArticleID] = dto.ToReport(g.ArticleID, g.Users)
	}
	utils.Success(ctx, out)
}

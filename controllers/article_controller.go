package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/articles/config"
	"github.com/cppla/articles/dto"
	"github.com/cppla/articles/middleware"
	"github.com/cppla/articles/models"
	"github.com/cppla/articles/policy"
	"github.com/cppla/articles/repository"
	"github.com/cppla/articles/utils"
)

// ArticleController manages CRUD operations for articles.
type ArticleController struct {
	articles *repository.ArticleRepository
	comments *repository.CommentRepository
	pages    articlePages
	page     config.PaginationSection
}

// NewArticleController creates a new ArticleController instance.
func NewArticleController(articles *repository.ArticleRepository, comments *repository.CommentRepository, cache utils.Cache, page config.PaginationSection) *ArticleController {
	return &ArticleController{articles: articles, comments: comments, pages: articlePages{cache: cache}, page: page}
}

// parseSort reads the Sort header. Only ASC and DESC are accepted; absence means DESC.
func parseSort(ctx *gin.Context) (ascending bool, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(ctx.GetHeader("Sort"))) {
	case "", "DESC":
		return false, true
	case "ASC":
		return true, true
	default:
		return false, false
	}
}

// ListArticles returns a page of articles. Anonymous callers only see public ones.
func (a *ArticleController) ListArticles(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if !allowed(ctx, actor, policy.Resource{Kind: policy.KindArticle}, policy.ActionList) {
		return
	}
	ascending, ok := parseSort(ctx)
	if !ok {
		utils.FieldErrors(ctx, 40001, "validation error",
			dto.FieldErrors{"sort": {`Sort header must be "ASC" or "DESC".`}})
		return
	}
	limit, offset := parseLimitOffset(ctx, a.page.ArticlesDefaultLimit, a.page.ArticlesMaxLimit)

	// Only the anonymous view is shared between callers, so only it is cached.
	cacheKey, cacheable := "", false
	if !actor.Authenticated {
		cacheKey, cacheable = a.pages.key(ctx.Request.Context(), ascending, limit, offset)
		if cacheable {
			if b, ok := a.pages.get(ctx.Request.Context(), cacheKey); ok {
				ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
				return
			}
		}
	}

	articles, total, err := a.articles.List(ctx.Request.Context(), repository.ArticleListOptions{
		PublicOnly: !actor.Authenticated,
		Ascending:  ascending,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		respondError(ctx, err, "article")
		return
	}

	payload := limitOffsetPage(dto.ToArticles(articles), total, limit, offset)
	if cacheable {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		if b, err := json.Marshal(wrapper); err == nil {
			a.pages.put(ctx.Request.Context(), cacheKey, b)
		}
	}
	utils.Success(ctx, payload)
}

// CreateArticle stores a new article authored by the caller.
func (a *ArticleController) CreateArticle(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if !allowed(ctx, actor, policy.Resource{Kind: policy.KindArticle}, policy.ActionCreate) {
		return
	}
	var in dto.ArticleInput
	if !decode(ctx, dto.ArticleFields, false, &in) {
		return
	}

	article := models.Article{AuthorID: actor.UserID}
	in.Apply(&article)
	if errs := sanitizeArticle(&article); errs != nil {
		respondError(ctx, errs, "article")
		return
	}
	if err := a.articles.Create(ctx.Request.Context(), &article); err != nil {
		respondError(ctx, err, "article")
		return
	}
	a.invalidate(ctx.Request.Context())
	utils.Created(ctx, dto.ToArticle(&article))
}

// GetArticle returns one article. Private articles need an authenticated caller.
func (a *ArticleController) GetArticle(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	article, err := a.articles.GetByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "article")
		return
	}
	res := policy.Resource{Kind: policy.KindArticle, OwnerID: article.AuthorID, IsPublic: article.IsPublic}
	if !allowed(ctx, middleware.GetActor(ctx), res, policy.ActionRead) {
		return
	}
	utils.Success(ctx, dto.ToArticle(article))
}

// UpdateArticle handles PUT and PATCH. The author never changes.
func (a *ArticleController) UpdateArticle(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if !allowed(ctx, actor, policy.Resource{Kind: policy.KindArticle}, policy.ActionUpdate) {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	article, err := a.articles.GetByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "article")
		return
	}

	var in dto.ArticleInput
	if !decode(ctx, dto.ArticleFields, partialUpdate(ctx), &in) {
		return
	}
	in.Apply(article)
	if errs := sanitizeArticle(article); errs != nil {
		respondError(ctx, errs, "article")
		return
	}
	if err := a.articles.Update(ctx.Request.Context(), article); err != nil {
		respondError(ctx, err, "article")
		return
	}
	a.invalidate(ctx.Request.Context())
	utils.Success(ctx, dto.ToArticle(article))
}

// DeleteArticle removes an article with its comments and reports.
func (a *ArticleController) DeleteArticle(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if !allowed(ctx, actor, policy.Resource{Kind: policy.KindArticle}, policy.ActionDelete) {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := a.articles.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, "article")
		return
	}
	a.invalidate(ctx.Request.Context())
	utils.Logger.Info("article deleted", zap.Uint("article_id", id), zap.String("by", actor.Username))
	utils.NoContent(ctx)
}

// ArticleThread returns every comment of an article arranged as reply trees.
func (a *ArticleController) ArticleThread(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if !allowed(ctx, actor, policy.Resource{Kind: policy.KindComment}, policy.ActionList) {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if _, err := a.articles.GetByID(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, "article")
		return
	}
	comments, err := a.comments.ListByArticle(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "comment")
		return
	}
	utils.Success(ctx, gin.H{"article": id, "count": len(comments), "comments": dto.BuildThread(comments)})
}

func (a *ArticleController) invalidate(ctx context.Context) {
	a.pages.invalidate(ctx)
}

// sanitizeArticle strips markup and re-checks the fields the sanitizer may have emptied.
func sanitizeArticle(article *models.Article) dto.FieldErrors {
	article.Title = utils.SanitizePlain(article.Title)
	article.Text = utils.Sanitize(article.Text)
	errs := dto.FieldErrors{}
	if article.Title == "" {
		errs.Add("title", dto.MsgBlank)
	}
	errs.CheckMaxLength("title", article.Title, models.TitleMaxLength)
	if strings.TrimSpace(article.Text) == "" {
		errs.Add("text", dto.MsgBlank)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

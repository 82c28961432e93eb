package controllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/articles/config"
	"github.com/cppla/articles/dto"
	"github.com/cppla/articles/middleware"
	"github.com/cppla/articles/models"
	"github.com/cppla/articles/policy"
	"github.com/cppla/articles/repository"
	"github.com/cppla/articles/utils"
)

// CommentController manages comments and replies.
type CommentController struct {
	comments *repository.CommentRepository
	page     config.PaginationSection
}

// NewCommentController creates a CommentController.
func NewCommentController(comments *repository.CommentRepository, page config.PaginationSection) *CommentController {
	return &CommentController{comments: comments, page: page}
}

// ListComments returns a page of comments, optionally for one article (?article=<id>).
func (c *CommentController) ListComments(ctx *gin.Context) {
	if !allowed(ctx, middleware.GetActor(ctx), policy.Resource{Kind: policy.KindComment}, policy.ActionList) {
		return
	}
	opts := repository.CommentListOptions{}
	if v := strings.TrimSpace(ctx.Query("article")); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			utils.FieldErrors(ctx, 40001, "validation error", dto.FieldErrors{"article": {"A valid integer is required."}})
			return
		}
		articleID := uint(id)
		opts.ArticleID = &articleID
	}
	opts.Limit, opts.Offset = parseLimitOffset(ctx, c.page.CommentsDefaultLimit, c.page.CommentsMaxLimit)

	comments, total, err := c.comments.List(ctx.Request.Context(), opts)
	if err != nil {
		respondError(ctx, err, "comment")
		return
	}
	utils.Success(ctx, limitOffsetPage(dto.ToComments(comments), total, opts.Limit, opts.Offset))
}

// CreateComment attaches a top-level comment to an article.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if !allowed(ctx, actor, policy.Resource{Kind: policy.KindComment}, policy.ActionCreate) {
		return
	}
	var in dto.CommentInput
	if !decode(ctx, dto.CommentFields, false, &in) {
		return
	}
	if (in.IsReply != nil && *in.IsReply) || in.CommentReply != nil {
		utils.FieldErrors(ctx, 40001, "validation error",
			dto.FieldErrors{"is_reply": {"Replies must be posted to /reply/articles-comments."}})
		return
	}

	comment := models.Comment{Message: *in.Message, ArticleID: *in.Article, AuthorID: actor.UserID}
	if !sanitizeMessage(ctx, &comment) {
		return
	}
	if err := c.comments.Create(ctx.Request.Context(), &comment); err != nil {
		respondError(ctx, err, "comment")
		return
	}
	utils.Created(ctx, dto.ToComment(&comment))
}

// CreateReply answers an existing comment. The article is always the parent's.
func (c *CommentController) CreateReply(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if !allowed(ctx, actor, policy.Resource{Kind: policy.KindComment}, policy.ActionCreate) {
		return
	}
	var in dto.CommentInput
	if !decode(ctx, dto.ReplyFields, false, &in) {
		return
	}

	comment := models.Comment{Message: *in.Message, AuthorID: actor.UserID}
	if !sanitizeMessage(ctx, &comment) {
		return
	}
	if err := c.comments.CreateReply(ctx.Request.Context(), *in.CommentReply, &comment); err != nil {
		respondError(ctx, err, "comment")
		return
	}
	utils.Created(ctx, dto.ToComment(&comment))
}

// GetComment returns one comment.
func (c *CommentController) GetComment(ctx *gin.Context) {
	comment, ok := c.load(ctx)
	if !ok {
		return
	}
	if !allowed(ctx, middleware.GetActor(ctx), commentResource(comment), policy.ActionRead) {
		return
	}
	utils.Success(ctx, dto.ToComment(comment))
}

// UpdateComment edits the message. Moving a comment to another article or parent is rejected.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	comment, ok := c.load(ctx)
	if !ok {
		return
	}
	if !allowed(ctx, middleware.GetActor(ctx), commentResource(comment), policy.ActionUpdate) {
		return
	}
	var in dto.CommentInput
	if !decode(ctx, dto.CommentFields, partialUpdate(ctx), &in) {
		return
	}
	if errs := in.FrozenChanges(comment); errs != nil {
		respondError(ctx, errs, "comment")
		return
	}
	if in.Message != nil {
		comment.Message = *in.Message
		if !sanitizeMessage(ctx, comment) {
			return
		}
		if err := c.comments.UpdateMessage(ctx.Request.Context(), comment); err != nil {
			respondError(ctx, err, "comment")
			return
		}
	}
	utils.Success(ctx, dto.ToComment(comment))
}

// DeleteComment removes a comment and every reply below it.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	comment, ok := c.load(ctx)
	if !ok {
		return
	}
	if !allowed(ctx, middleware.GetActor(ctx), commentResource(comment), policy.ActionDelete) {
		return
	}
	if err := c.comments.Delete(ctx.Request.Context(), comment.ID); err != nil {
		respondError(ctx, err, "comment")
		return
	}
	utils.NoContent(ctx)
}

// ListReplies returns a page of the direct replies to a comment.
func (c *CommentController) ListReplies(ctx *gin.Context) {
	parent, ok := c.load(ctx)
	if !ok {
		return
	}
	if !allowed(ctx, middleware.GetActor(ctx), policy.Resource{Kind: policy.KindComment}, policy.ActionList) {
		return
	}
	opts := repository.CommentListOptions{ReplyTo: &parent.ID}
	opts.Limit, opts.Offset = parseLimitOffset(ctx, c.page.CommentsDefaultLimit, c.page.CommentsMaxLimit)
	replies, total, err := c.comments.List(ctx.Request.Context(), opts)
	if err != nil {
		respondError(ctx, err, "comment")
		return
	}
	utils.Success(ctx, limitOffsetPage(dto.ToComments(replies), total, opts.Limit, opts.Offset))
}

// Like increments the like counter.
func (c *CommentController) Like(ctx *gin.Context) {
	c.react(ctx, true)
}

// Dislike increments the dislike counter.
func (c *CommentController) Dislike(ctx *gin.Context) {
	c.react(ctx, false)
}

func (c *CommentController) react(ctx *gin.Context, like bool) {
	if !allowed(ctx, middleware.GetActor(ctx), policy.Resource{Kind: policy.KindComment}, policy.ActionRead) {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	comment, err := c.comments.React(ctx.Request.Context(), id, like)
	if err != nil {
		respondError(ctx, err, "comment")
		return
	}
	utils.Success(ctx, dto.ToComment(comment))
}

func (c *CommentController) load(ctx *gin.Context) (*models.Comment, bool) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return nil, false
	}
	comment, err := c.comments.GetByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "comment")
		return nil, false
	}
	return comment, true
}

func commentResource(c *models.Comment) policy.Resource {
	return policy.Resource{Kind: policy.KindComment, OwnerID: c.AuthorID}
}

func sanitizeMessage(ctx *gin.Context, comment *models.Comment) bool {
	comment.Message = utils.Sanitize(comment.Message)
	if strings.TrimSpace(comment.Message) == "" {
		utils.FieldErrors(ctx, 40001, "validation error", dto.FieldErrors{"message": {dto.MsgBlank}})
		return false
	}
	return true
}

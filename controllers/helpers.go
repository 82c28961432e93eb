package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/articles/dto"
	"github.com/cppla/articles/policy"
	"github.com/cppla/articles/repository"
	"github.com/cppla/articles/utils"
)

// duplicateMessages gives the field message for each unique constraint.
var duplicateMessages = map[string]string{
	"username": "user with this username already exists.",
	"email":    "user with this email address already exists.",
	"title":    "article with this title already exists.",
}

const maxBodyBytes = 1 << 20

// readBody reads the request body up to maxBodyBytes.
func readBody(ctx *gin.Context) ([]byte, dto.FieldErrors) {
	if ctx.Request.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxBodyBytes+1))
	if err != nil || len(body) > maxBodyBytes {
		return nil, dto.FieldErrors{dto.NonFieldErrors: {dto.MsgBadJSON}}
	}
	return body, nil
}

// decode reads the body and decodes it through fields into dst. It writes the
// 400 response itself and returns false when the body is invalid.
func decode(ctx *gin.Context, fields dto.Fields, partial bool, dst interface{}) bool {
	body, errs := readBody(ctx)
	if errs == nil {
		errs = fields.Decode(body, partial, dst)
	}
	if errs != nil {
		utils.FieldErrors(ctx, 40001, "validation error", errs)
		return false
	}
	return true
}

// partialUpdate reports whether the request is a PATCH.
func partialUpdate(ctx *gin.Context) bool {
	return ctx.Request.Method == http.MethodPatch
}

// parseID reads a positive integer path parameter. Anything else is a 404, like an unknown route.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
		return 0, false
	}
	return uint(id), true
}

// deny writes the response for a refused policy decision.
func deny(ctx *gin.Context, d policy.Decision) {
	switch d {
	case policy.DenyUnauthenticated:
		ctx.Header("WWW-Authenticate", "Token")
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication credentials were not provided")
	default:
		utils.Error(ctx, http.StatusForbidden, 40300, "you do not have permission to perform this action")
	}
}

// allowed evaluates the policy and writes the refusal when the action is denied.
func allowed(ctx *gin.Context, actor policy.Actor, res policy.Resource, action policy.Action) bool {
	d := policy.Decide(actor, res, action)
	if !d.Allowed() {
		deny(ctx, d)
		return false
	}
	return true
}

// respondError maps store and validation errors to HTTP responses.
func respondError(ctx *gin.Context, err error, what string) {
	var (
		fieldErrs dto.FieldErrors
		dup       *repository.DuplicateKeyError
		ref       *repository.InvalidReferenceError
	)
	switch {
	case errors.As(err, &fieldErrs):
		utils.FieldErrors(ctx, 40001, "validation error", fieldErrs)
	case errors.As(err, &dup):
		msg, ok := duplicateMessages[dup.Field]
		if !ok {
			msg = "The fields must make a unique set."
		}
		utils.FieldErrors(ctx, 40002, "duplicate key", dto.FieldErrors{dup.Field: {msg}})
	case errors.Is(err, repository.ErrAlreadyReported):
		utils.FieldErrors(ctx, 40003, "article already reported",
			dto.FieldErrors{dto.NonFieldErrors: {"You have already reported this article."}})
	case errors.As(err, &ref):
		utils.FieldErrors(ctx, 40004, "invalid reference",
			dto.FieldErrors{ref.Field: {fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", ref.ID)}})
	case errors.Is(err, repository.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, what+" not found")
	default:
		utils.Logger.Error("request failed", zap.String("path", ctx.FullPath()), zap.String("resource", what), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}

// parseLimitOffset reads limit/offset query parameters. A malformed limit falls back to
// the default, an oversized one is clamped to max, a malformed offset becomes zero.
func parseLimitOffset(ctx *gin.Context, def, max int) (limit, offset int) {
	limit = def
	if v := strings.TrimSpace(ctx.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > max {
		limit = max
	}
	if v := strings.TrimSpace(ctx.Query("offset")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}

// parsePage reads page/size query parameters for page-number pagination.
func parsePage(ctx *gin.Context, def, max int) (page, size int) {
	page, size = 1, def
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(ctx.Query("size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	if size > max {
		size = max
	}
	return page, size
}

func limitOffsetPage(items interface{}, total int64, limit, offset int) gin.H {
	return gin.H{
		"items": items,
		"pagination": gin.H{
			"count":  total,
			"limit":  limit,
			"offset": offset,
		},
	}
}

func numberedPage(items interface{}, total int64, page, size int) gin.H {
	return gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   size,
			"total":       total,
			"total_pages": int((total + int64(size) - 1) / int64(size)),
		},
	}
}

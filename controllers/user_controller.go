package controllers

import (
	"context"
	"errors"
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
	"github.com/cppla/articles/services"
	"github.com/cppla/articles/utils"
)

// UserController handles account registration and the /users resource.
type UserController struct {
	identity *services.IdentityService
	users    *repository.UserRepository
	pages    articlePages
	cfg      config.AppConfig
}

// NewUserController creates a UserController.
func NewUserController(identity *services.IdentityService, users *repository.UserRepository, cache utils.Cache, cfg config.AppConfig) *UserController {
	return &UserController{identity: identity, users: users, pages: articlePages{cache: cache}, cfg: cfg}
}

type registerResponse struct {
	dto.UserResponse
	Token string `json:"token"`
}

// Register creates an account and issues its token. It is the only unauthenticated write.
func (u *UserController) Register(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if !allowed(ctx, actor, policy.Resource{Kind: policy.KindUser}, policy.ActionCreate) {
		return
	}

	var in dto.UserInput
	if !decode(ctx, dto.UserFields, false, &in) {
		return
	}
	// open_staff_signup only waives the staff flags; account flags always need an admin.
	needsGrant := in.AccountFlags() || (in.StaffFlags() && !u.cfg.App.OpenStaffSignup)
	if needsGrant && !allowed(ctx, actor, policy.Resource{Kind: policy.KindUser}, policy.ActionGrant) {
		return
	}

	user := models.User{IsActive: true}
	in.Apply(&user)
	if errs := sanitizeNames(&user); errs != nil {
		respondError(ctx, errs, "user")
		return
	}

	token, err := u.identity.CreateUser(ctx.Request.Context(), &user, *in.Password)
	if err != nil {
		respondError(ctx, err, "user")
		return
	}
	utils.Logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	utils.Created(ctx, registerResponse{UserResponse: dto.ToUser(&user), Token: token.Key})
}

// ListUsers returns one page of users.
func (u *UserController) ListUsers(ctx *gin.Context) {
	if !allowed(ctx, middleware.GetActor(ctx), policy.Resource{Kind: policy.KindUser}, policy.ActionList) {
		return
	}
	page, size := parsePage(ctx, u.cfg.Pagination.UsersPageSize, u.cfg.Pagination.UsersMaxPageSize)
	users, total, err := u.users.List(ctx.Request.Context(), (page-1)*size, size)
	if err != nil {
		respondError(ctx, err, "user")
		return
	}
	utils.Success(ctx, numberedPage(dto.ToUsers(users), total, page, size))
}

// GetUser returns one user by username.
func (u *UserController) GetUser(ctx *gin.Context) {
	user, ok := u.load(ctx)
	if !ok {
		return
	}
	if !allowed(ctx, middleware.GetActor(ctx), userResource(user), policy.ActionRead) {
		return
	}
	utils.Success(ctx, dto.ToUser(user))
}

// UpdateUser handles PUT (full, 202) and PATCH (partial, 200).
func (u *UserController) UpdateUser(ctx *gin.Context) {
	user, ok := u.load(ctx)
	if !ok {
		return
	}
	actor := middleware.GetActor(ctx)
	if !allowed(ctx, actor, userResource(user), policy.ActionUpdate) {
		return
	}

	var in dto.UserInput
	if !decode(ctx, dto.UserFields, partialUpdate(ctx), &in) {
		return
	}
	if in.Privileged() && !allowed(ctx, actor, userResource(user), policy.ActionGrant) {
		return
	}

	oldUsername := user.Username
	in.Apply(user)
	if errs := sanitizeNames(user); errs != nil {
		respondError(ctx, errs, "user")
		return
	}
	if err := u.identity.UpdateUser(ctx.Request.Context(), user, in.Password); err != nil {
		respondError(ctx, err, "user")
		return
	}
	if user.Username != oldUsername {
		// Cached article pages embed author usernames.
		u.invalidateArticles(ctx.Request.Context())
	}

	if partialUpdate(ctx) {
		utils.Success(ctx, dto.ToUser(user))
		return
	}
	utils.Accepted(ctx, dto.ToUser(user))
}

// DeleteUser removes the account with everything it owns.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	user, ok := u.load(ctx)
	if !ok {
		return
	}
	if !allowed(ctx, middleware.GetActor(ctx), userResource(user), policy.ActionDelete) {
		return
	}
	if err := u.identity.DeleteUser(ctx.Request.Context(), user); err != nil {
		respondError(ctx, err, "user")
		return
	}
	u.invalidateArticles(ctx.Request.Context())
	utils.Logger.Info("user deleted", zap.Uint("user_id", user.ID), zap.String("by", middleware.GetActor(ctx).Username))
	utils.NoContent(ctx)
}

func (u *UserController) load(ctx *gin.Context) (*models.User, bool) {
	username := strings.TrimSpace(ctx.Param("username"))
	user, err := u.users.GetByUsername(ctx.Request.Context(), username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return nil, false
		}
		respondError(ctx, err, "user")
		return nil, false
	}
	return user, true
}

func (u *UserController) invalidateArticles(ctx context.Context) {
	u.pages.invalidate(ctx)
}

func userResource(u *models.User) policy.Resource {
	return policy.Resource{Kind: policy.KindUser, OwnerID: u.ID}
}

// sanitizeNames strips markup from the display names and re-checks their stored length.
func sanitizeNames(user *models.User) dto.FieldErrors {
	user.FirstName = utils.SanitizePlain(user.FirstName)
	user.LastName = utils.SanitizePlain(user.LastName)
	errs := dto.FieldErrors{}
	errs.CheckMaxLength("first_name", user.FirstName, models.NameMaxLength)
	errs.CheckMaxLength("last_name", user.LastName, models.NameMaxLength)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

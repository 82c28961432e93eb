package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/articles/dto"
	"github.com/cppla/articles/middleware"
	"github.com/cppla/articles/services"
	"github.com/cppla/articles/utils"
)

// AuthController exchanges credentials for tokens.
type AuthController struct {
	identity *services.IdentityService
}

// NewAuthController creates an AuthController.
func NewAuthController(identity *services.IdentityService) *AuthController {
	return &AuthController{identity: identity}
}

// Login returns the caller's opaque token and a fresh access JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var in dto.LoginInput
	if !decode(ctx, dto.LoginFields, false, &in) {
		return
	}

	result, err := a.identity.Authenticate(ctx.Request.Context(), *in.Username, *in.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		utils.FieldErrors(ctx, 40005, "invalid credentials",
			dto.FieldErrors{dto.NonFieldErrors: {"Unable to log in with provided credentials."}})
		return
	}
	if err != nil {
		respondError(ctx, err, "user")
		return
	}

	utils.Success(ctx, dto.LoginResponse{
		Token:     result.Token.Key,
		Access:    result.Access,
		ExpiresAt: result.ExpiresAt,
	})
}

// RotateToken replaces the caller's opaque token. Previously issued access tokens stop working.
func (a *AuthController) RotateToken(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	token, err := a.identity.Rotate(ctx.Request.Context(), actor.UserID)
	if err != nil {
		respondError(ctx, err, "token")
		return
	}
	utils.Logger.Info("token rotated", zap.Uint("user_id", actor.UserID))
	utils.Success(ctx, gin.H{"token": token.Key})
}

// Logout revokes the access JWT used for this request.
func (a *AuthController) Logout(ctx *gin.Context) {
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40006, "logout requires a Bearer access token")
		return
	}
	if err := a.identity.Logout(ctx.Request.Context(), claims); err != nil {
		respondError(ctx, err, "token")
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

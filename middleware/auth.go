package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/articles/models"
	"github.com/cppla/articles/policy"
	"github.com/cppla/articles/services"
	"github.com/cppla/articles/utils"
)

const (
	// ContextActorKey stores the policy.Actor of the request.
	ContextActorKey = "actor"
	// ContextUsernameKey stores the username for access logs.
	ContextUsernameKey = "actor_username"
	// ContextClaimsKey stores the access JWT claims when the request used one.
	ContextClaimsKey = "access_claims"
)

// ResolveActor turns the Authorization header into an actor. A missing header yields the
// anonymous actor; a malformed or unknown credential is rejected with 401 even on public routes.
// Accepted schemes are "Token <key>" and "Bearer <access jwt>".
func ResolveActor(identity *services.IdentityService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := strings.TrimSpace(ctx.GetHeader("Authorization"))
		if authHeader == "" {
			ctx.Set(ContextActorKey, policy.Anonymous)
			ctx.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			unauthorized(ctx, 40102, "invalid authorization header format")
			return
		}
		credential := strings.TrimSpace(parts[1])

		var (
			user   *models.User
			claims *utils.Claims
			err    error
		)
		switch {
		case strings.EqualFold(parts[0], "Token"):
			user, err = identity.ResolveToken(ctx.Request.Context(), credential)
		case strings.EqualFold(parts[0], "Bearer"):
			user, claims, err = identity.ResolveAccess(ctx.Request.Context(), credential)
		default:
			unauthorized(ctx, 40102, "invalid authorization header format")
			return
		}
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) {
				unauthorized(ctx, 40105, "invalid token")
				return
			}
			utils.Logger.Error("resolve credential", zap.Error(err))
			utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to resolve credential")
			ctx.Abort()
			return
		}

		ctx.Set(ContextActorKey, ActorFor(user))
		ctx.Set(ContextUsernameKey, user.Username)
		if claims != nil {
			ctx.Set(ContextClaimsKey, claims)
		}
		ctx.Next()
	}
}

// AuthRequired rejects anonymous requests. It must run after ResolveActor.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !GetActor(ctx).Authenticated {
			unauthorized(ctx, 40101, "authentication credentials were not provided")
			return
		}
		ctx.Next()
	}
}

// ActorFor builds the policy actor of an authenticated user.
func ActorFor(u *models.User) policy.Actor {
	return policy.Actor{
		UserID:        u.ID,
		Username:      u.Username,
		Authenticated: true,
		Staff:         u.IsStaff,
		Superuser:     u.IsSuperuser,
	}
}

// GetActor returns the request actor, anonymous when none was resolved.
func GetActor(ctx *gin.Context) policy.Actor {
	if v, ok := ctx.Get(ContextActorKey); ok {
		if actor, ok := v.(policy.Actor); ok {
			return actor
		}
	}
	return policy.Anonymous
}

// GetClaims returns the access JWT claims of the request, if any.
func GetClaims(ctx *gin.Context) (*utils.Claims, bool) {
	v, ok := ctx.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}

func unauthorized(ctx *gin.Context, code int, message string) {
	ctx.Header("WWW-Authenticate", "Token")
	utils.Error(ctx, http.StatusUnauthorized, code, message)
	ctx.Abort()
}

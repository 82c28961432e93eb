package main

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/articles/config"
	"github.com/cppla/articles/repository"
	"github.com/cppla/articles/services"
	"github.com/cppla/articles/utils"
)

// seedAdmin creates the superuser named in the admin section when it is missing.
func seedAdmin(cfg config.AppConfig, db *gorm.DB, cache utils.Cache) error {
	if cfg.Admin.Username == "" {
		return nil
	}
	identity := services.NewIdentityService(
		repository.NewUserRepository(db),
		repository.NewTokenRepository(db),
		utils.NewJWTManager(cfg.App.JWTSecret, cfg.App.AccessTokenTTL),
		cache,
		cfg.App.TokenCacheTTL,
	)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	created, err := identity.EnsureAdmin(ctx, cfg.Admin)
	if err != nil {
		return err
	}
	if created {
		utils.Logger.Info("admin account created", zap.String("username", cfg.Admin.Username))
	}
	return nil
}

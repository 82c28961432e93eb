package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/articles/config"
	"github.com/cppla/articles/controllers"
	"github.com/cppla/articles/middleware"
	"github.com/cppla/articles/repository"
	"github.com/cppla/articles/services"
	"github.com/cppla/articles/utils"
)

// SetupRouter builds the repositories and services once and wires them into the handlers.
func SetupRouter(cfg config.AppConfig, db *gorm.DB, cache utils.Cache) *gin.Engine {
	switch strings.ToLower(cfg.App.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access logs go to their own rolling file when configured, else to the app logger
	gl, err := utils.NewRollingFileLogger(cfg.Log.GinPath, cfg.Log.Level, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays, cfg.Log.Compress)
	if err != nil {
		gl = utils.Logger
	}
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Sort"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.App.AllowedOrigins) == 0 || (len(cfg.App.AllowedOrigins) == 1 && cfg.App.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.App.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	articles := repository.NewArticleRepository(db)
	comments := repository.NewCommentRepository(db)
	reports := repository.NewReportRepository(db)
	stats := repository.NewStatsRepository(db)

	identity := services.NewIdentityService(users, tokens, utils.NewJWTManager(cfg.App.JWTSecret, cfg.App.AccessTokenTTL), cache, cfg.App.TokenCacheTTL)

	authController := controllers.NewAuthController(identity)
	userController := controllers.NewUserController(identity, users, cache, cfg)
	articleController := controllers.NewArticleController(articles, comments, cache, cfg.Pagination)
	commentController := controllers.NewCommentController(comments, cfg.Pagination)
	reportController := controllers.NewReportController(reports)
	statsController := controllers.NewStatsController(stats)

	// each throttled route keeps its own budget
	loginLimiter := middleware.NewRateLimiter(cfg.App.RateLimitPerMinute).Middleware()
	signupLimiter := middleware.NewRateLimiter(cfg.App.RateLimitPerMinute).Middleware()
	reportLimiter := middleware.NewRateLimiter(cfg.App.RateLimitPerMinute).Middleware()

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	r.Use(middleware.ResolveActor(identity))
	// Record article views after each request
	r.Use(middleware.ArticleViewRecorder(stats))

	r.POST("/api/login", loginLimiter, authController.Login)
	r.POST("/api/token/rotate", middleware.AuthRequired(), authController.RotateToken)
	r.POST("/api/logout", middleware.AuthRequired(), authController.Logout)

	r.POST("/users", signupLimiter, userController.Register)
	usersGroup := r.Group("/users", middleware.AuthRequired())
	usersGroup.GET("", userController.ListUsers)
	usersGroup.GET("/:username", userController.GetUser)
	usersGroup.PUT("/:username", userController.UpdateUser)
	usersGroup.PATCH("/:username", userController.UpdateUser)
	usersGroup.DELETE("/:username", userController.DeleteUser)

	r.GET("/articles", articleController.ListArticles)
	r.POST("/articles", articleController.CreateArticle)
	r.GET("/articles/:id", articleController.GetArticle)
	r.PUT("/articles/:id", articleController.UpdateArticle)
	r.PATCH("/articles/:id", articleController.UpdateArticle)
	r.DELETE("/articles/:id", articleController.DeleteArticle)
	r.GET("/articles/:id/comments", middleware.AuthRequired(), articleController.ArticleThread)

	commentsGroup := r.Group("/articles-comments", middleware.AuthRequired())
	commentsGroup.GET("", commentController.ListComments)
	commentsGroup.POST("", commentController.CreateComment)
	commentsGroup.GET("/:id", commentController.GetComment)
	commentsGroup.PUT("/:id", commentController.UpdateComment)
	commentsGroup.PATCH("/:id", commentController.UpdateComment)
	commentsGroup.DELETE("/:id", commentController.DeleteComment)
	commentsGroup.GET("/:id/replies", commentController.ListReplies)
	commentsGroup.POST("/:id/like", commentController.Like)
	commentsGroup.POST("/:id/dislike", commentController.Dislike)
	r.POST("/reply/articles-comments", middleware.AuthRequired(), commentController.CreateReply)

	reportGroup := r.Group("/report", middleware.AuthRequired())
	reportGroup.GET("", reportController.ListAllReports)
	reportGroup.GET("/:article_id", reportController.ListReports)
	reportGroup.POST("/:article_id", reportLimiter, reportController.Report)

	r.GET("/stats", statsController.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}

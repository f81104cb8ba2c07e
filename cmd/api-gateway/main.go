package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/humna-mustafa/pakuni-api/api/swagger"
	"github.com/humna-mustafa/pakuni-api/internal/handler"
	"github.com/humna-mustafa/pakuni-api/internal/middleware"
	"github.com/humna-mustafa/pakuni-api/internal/models"
	"github.com/humna-mustafa/pakuni-api/internal/repository"
	"github.com/humna-mustafa/pakuni-api/internal/service"
	"github.com/humna-mustafa/pakuni-api/pkg/cache"
	"github.com/humna-mustafa/pakuni-api/pkg/config"
	"github.com/humna-mustafa/pakuni-api/pkg/database"
	"github.com/humna-mustafa/pakuni-api/pkg/logger"
	corsmiddleware "github.com/humna-mustafa/pakuni-api/pkg/middleware/cors"
	reqidmiddleware "github.com/humna-mustafa/pakuni-api/pkg/middleware/requestid"
	"github.com/humna-mustafa/pakuni-api/pkg/notify"
)

// @title PakUni Moderation API
// @version 1.0.0
// @description Crowdsourced data-correction pipeline for the PakUni guidance app
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	// Redis is optional: without it the service runs with caching disabled
	// and admin notifications discarded.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without cache and notifications", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	submissionRepo := repository.NewSubmissionRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	var notifier notify.Notifier = notify.Nop{}
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		notifier = notify.NewRedisNotifier(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Moderation.StatisticsCacheTTL, logr, cacheRepo != nil)

	applySvc := service.NewApplyService(recordRepo, cacheRepo, logr, cfg.Moderation.ApplyStepTimeout)

	autoApprovalSvc := service.NewAutoApprovalService(service.AutoApprovalServiceParams{
		Rules:        ruleRepo,
		Submissions:  submissionRepo,
		Apply:        applySvc,
		Audit:        auditRepo,
		Notifier:     notifier,
		Metrics:      metricsSvc,
		Logger:       logr,
		AdminChannel: cfg.Moderation.AdminChannel,
	})

	submissionSvc := service.NewSubmissionService(submissionRepo, autoApprovalSvc, auditRepo, logr, cfg.Moderation.AutoApprovalEnabled)
	reviewSvc := service.NewReviewService(submissionRepo, applySvc, auditRepo, metricsSvc, logr)
	ruleSvc := service.NewRuleService(ruleRepo, auditRepo, logr)
	statisticsSvc := service.NewStatisticsService(submissionRepo, cacheSvc, cfg.Moderation.StatisticsCacheTTL, logr)
	authSvc := service.NewAuthService(userRepo, auditRepo, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "pakuni-api",
	})

	authHandler := handler.NewAuthHandler(authSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, reviewSvc)
	ruleHandler := handler.NewRuleHandler(ruleSvc)
	statisticsHandler := handler.NewStatisticsHandler(statisticsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// The dashboard statistics are cached; drop the aggregate after any
	// successful review decision so counts converge quickly.
	invalidateStats := func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() < 400 {
			statisticsSvc.InvalidateCache(c.Request.Context())
		}
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		submissions := api.Group("/submissions")
		{
			submissions.POST("", middleware.OptionalJWT(authSvc), submissionHandler.Create)

			reviewers := submissions.Group("")
			reviewers.Use(middleware.JWT(authSvc))
			reviewers.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleModerator))
			{
				reviewers.GET("", submissionHandler.List)
				reviewers.GET("/pending-ids", submissionHandler.PendingIDs)
				reviewers.GET("/:id", submissionHandler.Get)
				reviewers.GET("/:id/impact", submissionHandler.Impact)
				reviewers.POST("/:id/claim",
					middleware.Audit(auditRepo, models.AuditActionClaim, "submission"),
					submissionHandler.Claim)
				reviewers.POST("/:id/review", invalidateStats, submissionHandler.Review)
				reviewers.POST("/bulk-review", invalidateStats, submissionHandler.ReviewBulk)
			}
		}

		rules := api.Group("/rules")
		rules.Use(middleware.JWT(authSvc))
		rules.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
		{
			rules.GET("", ruleHandler.List)
			rules.PUT("/:id", ruleHandler.Upsert)
			rules.DELETE("/:id", ruleHandler.Delete)
			rules.POST("/:id/toggle", ruleHandler.Toggle)
		}

		statistics := api.Group("/statistics")
		statistics.Use(middleware.JWT(authSvc))
		statistics.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleModerator))
		{
			statistics.GET("", statisticsHandler.Get)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

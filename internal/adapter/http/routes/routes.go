package routes

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/Sarrabentardeit/Auditalex/docs" // generated by swag init
	"github.com/Sarrabentardeit/Auditalex/internal/adapter/http/handlers"
	"github.com/Sarrabentardeit/Auditalex/internal/adapter/http/middleware"
	"github.com/Sarrabentardeit/Auditalex/internal/adapter/persistence/repository"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/catalog"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/scoring"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/config"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/database"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/logging"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/ratelimit"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/security"
	"github.com/Sarrabentardeit/Auditalex/internal/report"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

var router = gin.New()

// Run loads configuration, wires the application and serves until SIGINT or
// SIGTERM.
func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err.Error())
	}

	logger := logging.MustNewLogger(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	setMiddlewares(cfg, logger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	scheduler, err := getRoutes(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire application", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to startup the application", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// getRoutes wires repositories, use cases and handlers. The returned cron
// scheduler is nil when no background job is configured.
func getRoutes(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*cron.Cron, error) {
	ddb, err := database.ConnectDynamoDB(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	if cfg.AWS.CreateTables {
		if err := database.EnsureTables(ctx, ddb, cfg.AWS); err != nil {
			return nil, err
		}
	}

	auditRepo := repository.NewAuditDynamoRepository(ddb, cfg.AWS.AuditsTable)
	userRepo := repository.NewUserDynamoRepository(ddb, cfg.AWS.UsersTable)

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL)
	source := catalog.NewSource()

	auditUseCase := usecase.NewAuditUseCase(auditRepo, userRepo, source, scoring.New(cfg.Scoring.FinePerKO), logger)
	userUseCase := usecase.NewUserUseCase(userRepo, hasher, logger)
	authUseCase := usecase.NewAuthUseCase(userRepo, hasher, tokens, logger)

	auditHandler := handlers.NewAuditHandler(auditUseCase, report.NewFormatter())
	userHandler := handlers.NewUserHandler(userUseCase)
	authHandler := handlers.NewAuthHandler(authUseCase)
	catalogHandler := handlers.NewCatalogHandler(source)

	loginLimiter := newLoginLimiter(ctx, cfg, logger)

	v1 := router.Group("/v1")
	addPingRoutes(router, v1)
	addAuthRoutes(v1, authHandler, authUseCase, loginLimiter, logger)

	authed := v1.Group("")
	authed.Use(middleware.Auth(authUseCase))
	addAuditRoutes(authed, auditHandler)
	addCatalogRoutes(authed, catalogHandler)
	addUserRoutes(authed, userHandler)

	return newCleanupScheduler(cfg.Cleanup.Cron, auditUseCase, logger)
}

func setMiddlewares(cfg *config.Config, logger *zap.Logger) {
	httpLogger := logger.Named("http")
	router.Use(middleware.Recovery(httpLogger))
	router.Use(middleware.RequestLogger(httpLogger))
	router.Use(middleware.CORS(cfg.CORS.Origins()))
	router.Use(middleware.RateLimit(ratelimit.NewMemoryLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst), httpLogger))
}

// newLoginLimiter shares login attempts across instances through Redis when
// configured and falls back to a per-process window otherwise.
func newLoginLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) ratelimit.Limiter {
	if cfg.Redis.Addr != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err == nil {
			return ratelimit.NewRedisLimiter(client, "auditalex:login", cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow)
		}
		logger.Warn("redis unavailable, using in-memory login limiter", zap.Error(err))
	}
	return ratelimit.NewWindowLimiter(cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow)
}

func newCleanupScheduler(spec string, uc usecase.IAuditUseCase, logger *zap.Logger) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}
	sweepLog := logger.Named("cleanup")
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		rep, err := uc.CleanupDuplicates(ctx, false)
		if err != nil {
			sweepLog.Error("duplicate sweep failed", zap.Error(err))
			return
		}
		sweepLog.Info("duplicate sweep done", zap.Int("groups", rep.Groups), zap.Int("deleted", len(rep.Deleted)))
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

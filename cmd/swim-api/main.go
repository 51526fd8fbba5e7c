package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/lovableswim/swim-api/api/swagger"
	"github.com/lovableswim/swim-api/internal/booking"
	"github.com/lovableswim/swim-api/internal/handler"
	internalmiddleware "github.com/lovableswim/swim-api/internal/middleware"
	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	"github.com/lovableswim/swim-api/internal/repository/local"
	"github.com/lovableswim/swim-api/internal/repository/postgres"
	"github.com/lovableswim/swim-api/internal/service"
	"github.com/lovableswim/swim-api/pkg/cache"
	"github.com/lovableswim/swim-api/pkg/config"
	"github.com/lovableswim/swim-api/pkg/database"
	"github.com/lovableswim/swim-api/pkg/jobs"
	"github.com/lovableswim/swim-api/pkg/logger"
	"github.com/lovableswim/swim-api/pkg/messaging"
	corsmiddleware "github.com/lovableswim/swim-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lovableswim/swim-api/pkg/middleware/requestid"
)

// @title Lovable Swim API
// @version 1.0.0
// @description Swim lesson scheduling, enrollment and package sales
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settingsDefaults := models.Settings{
		PoolCapacity:      cfg.Settings.PoolCapacity,
		CancellationHours: cfg.Settings.CancellationHours,
		ContactEmail:      cfg.Settings.ContactEmail,
	}

	store, err := openStore(ctx, cfg, settingsDefaults, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to open store", "driver", cfg.Store.Driver, "error", err)
	}
	defer store.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	cacheRepo := openCache(cfg, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	queries := service.NewQueryCache(cacheSvc, logr)

	publisher := openPublisher(cfg, logr)
	events := service.NewEventService(publisher, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		BufferSize: cfg.Events.BufferSize,
		MaxRetries: cfg.Events.MaxRetries,
		RetryDelay: cfg.Events.RetryDelay,
	}, metrics, logr)
	events.Start(ctx)

	validate := validator.New()
	authSvc := service.NewAuthService(store.Users(), cacheRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(store, queries, events, metrics, validate, logr)
	settingsSvc := service.NewSettingsService(store.Settings(), settingsDefaults, queries, validate, logr)
	classTypeSvc := service.NewClassTypeService(store, queries, events, metrics, validate, logr)
	packageSvc := service.NewPackageService(store.Packages(), queries, validate, logr)
	scheduleSvc := service.NewScheduleService(store, settingsSvc, queries, events, metrics, validate, logr, cfg.Schedule.Location())
	enrollmentSvc := service.NewEnrollmentService(store, settingsSvc, queries, events, metrics, logr)
	availabilitySvc := service.NewAvailabilityService(store, queries, validate, logr)
	purchaseSvc := service.NewPurchaseService(store, events, metrics, logr)
	progressSvc := service.NewProgressService(store.Progress(), validate, logr)
	bookingSvc := service.NewBookingService(store, booking.NewDraftStore(cacheRepo, cfg.Booking.DraftTTL), queries, events, metrics, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Users:        userSvc,
		Schedule:     scheduleSvc,
		Availability: availabilitySvc,
		Purchases:    purchaseSvc,
		Progress:     progressSvc,
		Logger:       logr,
	})

	if err := userSvc.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
		logr.Sugar().Fatalw("failed to bootstrap admin", "error", err)
	}

	metricsHandler := handler.NewMetricsHandler(metrics, store)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Users:        handler.NewUserHandler(userSvc),
		ClassTypes:   handler.NewClassTypeHandler(classTypeSvc),
		Packages:     handler.NewPackageHandler(packageSvc),
		Sessions:     handler.NewSessionHandler(scheduleSvc, enrollmentSvc),
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Purchases:    handler.NewPurchaseHandler(purchaseSvc),
		Progress:     handler.NewProgressHandler(progressSvc),
		Settings:     handler.NewSettingsHandler(settingsSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
		Booking:      handler.NewBookingHandler(bookingSvc),
		Metrics:      metricsHandler,
	}, handler.RouteGuards{
		Auth:         internalmiddleware.JWT(authSvc),
		OptionalAuth: internalmiddleware.OptionalJWT(authSvc),
		Maintenance:  internalmiddleware.Maintenance(settingsSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown incomplete", zap.Error(err))
	}
	events.Stop(10 * time.Second)
}

func openStore(ctx context.Context, cfg *config.Config, defaults models.Settings, logr *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverLocal:
		opts := local.Options{Path: cfg.Local.Path, Logger: logr}
		if cfg.Local.Seed {
			hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Local.DemoPassword), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hash demo password: %w", err)
			}
			opts.Seed = local.DemoSeed(string(hash), defaults)
		}
		store, err := local.Open(ctx, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			migrator, err := database.NewMigrator(db.DB, cfg.Database.MigrationsDir, logr)
			if err != nil {
				_ = db.Close()
				return nil, err
			}
			if err := migrator.Up(ctx); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return postgres.NewStore(db, logr), nil
	}
}

func openCache(cfg *config.Config, logr *zap.Logger) service.CacheRepository {
	if !cfg.Redis.Enabled {
		return repository.NewMemoryCacheRepository()
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, falling back to in-process cache", zap.Error(err))
		return repository.NewMemoryCacheRepository()
	}
	return repository.NewCacheRepository(client, logr)
}

func openPublisher(cfg *config.Config, logr *zap.Logger) messaging.Publisher {
	if !cfg.Events.Enabled() {
		return messaging.NewNoopPublisher(logr)
	}
	publisher, err := messaging.NewRabbitMQPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, logr)
	if err != nil {
		logr.Warn("event broker unavailable, events will be logged only", zap.Error(err))
		return messaging.NewNoopPublisher(logr)
	}
	return publisher
}

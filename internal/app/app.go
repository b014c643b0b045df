package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/postforge/server/internal/module/billing"
	"github.com/postforge/server/internal/module/content"
	"github.com/postforge/server/internal/module/entitlement"
	"github.com/postforge/server/internal/module/payment"
	paymentprovider "github.com/postforge/server/internal/module/payment/provider"
	"github.com/postforge/server/internal/module/user"
	sharedcache "github.com/postforge/server/internal/shared/cache"
	"github.com/postforge/server/internal/shared/config"
	"github.com/postforge/server/internal/shared/database"
	"github.com/postforge/server/internal/shared/logger"
	"github.com/postforge/server/internal/utils/metrics"
	"github.com/postforge/server/internal/utils/middleware"
)

// App wires configuration, storage, and modules into a running HTTP API.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     redis.UniversalClient
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	// Handlers
	userHandler        *user.Handler
	entitlementHandler *entitlement.Handler
	billingHandler     *billing.Handler
	paymentHandler     *payment.Handler
	webhookHandler     *payment.WebhookHandler
	contentHandler     *content.Handler

	// Services kept for cross-module dependencies and background jobs.
	jwtManager         *user.JWTManager
	userService        *user.Service
	entitlementService *entitlement.Service
	billingService     *billing.Service
	paymentService     *payment.Service
	contentService     *content.Service
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	// Zap logger for modules that use zap
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    log,
		zapLogger: zapLog,
		metrics:   metrics.New("postforge"),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	if err := app.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// Redis is optional. Without it: no OTP delivery, no login rate limit.
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis connection failed, otp and rate limiting disabled", logger.Err(err))
		} else {
			app.redis = redisClient
		}
	}

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// migrate creates and updates the schema. The daily usage model backs two
// tables, one per scope, so it is migrated once per table name.
func (a *App) migrate() error {
	if err := a.db.AutoMigrate(
		&user.User{},
		&billing.Subscription{},
		&billing.Plan{},
		&payment.CheckoutSession{},
	); err != nil {
		return err
	}
	for _, scope := range []entitlement.UsageScope{entitlement.UsageScopeTrial, entitlement.UsageScopeSubscriber} {
		if err := a.db.Table(scope.TableName()).AutoMigrate(&entitlement.DailyUsage{}); err != nil {
			return err
		}
	}
	return nil
}

// initModules constructs repositories, services, and handlers.
func (a *App) initModules() error {
	cfg := a.config

	// User module
	userRepo := user.NewRepository(a.db)
	jwtManager := user.NewJWTManager(&user.JWTConfig{
		Secret:            cfg.Auth.JWTSecret,
		AccessTokenExpiry: cfg.Auth.AccessTokenExpiry,
		Issuer:            "postforge",
	})
	a.jwtManager = jwtManager

	var otpStore user.OTPStore
	if a.redis != nil {
		otpStore = user.NewRedisOTPStore(a.redis)
	}
	emailSender := user.NewSMTPEmailSender(&user.SMTPConfig{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		User:        cfg.SMTP.User,
		Password:    cfg.SMTP.Password,
		FromAddress: cfg.SMTP.FromAddress,
		FromName:    cfg.SMTP.FromName,
	}, a.zapLogger)

	a.userService = user.NewService(userRepo, otpStore, emailSender, jwtManager, cfg.Auth.OTPExpiryMinutes, a.zapLogger)
	a.userHandler = user.NewHandler(a.userService)

	// Billing module
	billingRepo := billing.NewRepository(a.db)
	a.billingService = billing.NewService(billingRepo, userRepo, emailSender, a.metrics, a.logger)
	a.billingHandler = billing.NewHandler(a.billingService)

	// Entitlement module
	clock := entitlement.NewClock()
	usageRepo := entitlement.NewRepository(a.db, clock)
	fairness := entitlement.NewFairUsageChecker(usageRepo, entitlement.FairUsageConfig{
		Enforce:           cfg.FairUsage.Enforce,
		ChatWarnAt:        cfg.FairUsage.ChatWarn,
		ContentWarnAt:     cfg.FairUsage.ContentWarn,
		ChatThrottleAt:    cfg.FairUsage.ChatHard,
		ContentThrottleAt: cfg.FairUsage.ContentHard,
	}, a.logger)
	a.entitlementService = entitlement.NewService(
		usageRepo,
		userRepo,
		a.billingService,
		fairness,
		entitlement.Config{
			MaxChatPerDay:    cfg.Entitlement.MaxChatPerDay,
			MaxContentPerDay: cfg.Entitlement.MaxContentPerDay,
			AdminEmail:       cfg.Entitlement.AdminEmail,
		},
		clock,
		a.metrics,
		a.logger,
	)
	a.entitlementHandler = entitlement.NewHandler(a.entitlementService)

	// Payment module
	registry := payment.NewRegistry()
	registry.Register(paymentprovider.NewStubProvider(cfg.Server.BaseURL))
	registry.Register(paymentprovider.NewStripeProvider(&paymentprovider.StripeConfig{
		APIKey:        cfg.Payment.StripeSecretKey,
		WebhookSecret: cfg.Payment.StripeWebhookSecret,
	}))
	paymentRepo := payment.NewRepository(a.db)
	a.paymentService = payment.NewService(
		paymentRepo,
		registry,
		a.billingService,
		a.billingService,
		payment.Config{
			DefaultProvider: cfg.Payment.Provider,
			SuccessURL:      cfg.Payment.SuccessURL,
			CancelURL:       cfg.Payment.CancelURL,
		},
		a.metrics,
		a.logger,
	)
	a.paymentHandler = payment.NewHandler(a.paymentService)
	a.webhookHandler = payment.NewWebhookHandler(a.paymentService)

	// Content module
	aiClient := content.NewOpenAIClient(content.ClientConfig{
		BaseURL:          cfg.AI.BaseURL,
		APIKey:           cfg.AI.APIKey,
		Model:            cfg.AI.Model,
		RequestTimeout:   cfg.AI.RequestTimeout,
		FailureThreshold: cfg.AI.FailureThreshold,
		CircuitTimeout:   cfg.AI.CircuitTimeout,
	}, a.logger)
	a.contentService = content.NewService(aiClient, a.entitlementService, a.metrics, a.logger)
	a.contentHandler = content.NewHandler(a.contentService)

	return nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	api := a.router.Group("/api/v1")

	public := api.Group("")
	if a.redis != nil && a.config.Auth.LoginRateLimit > 0 {
		limiter := middleware.NewRateLimiter(a.redis, a.config.Auth.LoginRateLimit, a.config.Auth.LoginRateWindow)
		public.Use(limiter.Middleware())
	}
	a.userHandler.RegisterPublicRoutes(public)
	a.billingHandler.RegisterPublicRoutes(api)
	a.paymentHandler.RegisterCallbackRoutes(api)
	a.webhookHandler.RegisterRoutes(api)

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(a.jwtManager))
	a.userHandler.RegisterRoutes(authed)
	a.entitlementHandler.RegisterRoutes(authed)
	a.billingHandler.RegisterRoutes(authed)
	a.paymentHandler.RegisterRoutes(authed)
	a.contentHandler.RegisterRoutes(authed)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases database and cache connections.
func (a *App) Stop() {
	if a.redis != nil {
		if err := sharedcache.Close(a.redis); err != nil {
			a.logger.Warn("close redis", logger.Err(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("close database", logger.Err(err))
		}
	}
}

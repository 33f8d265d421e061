package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/config"
	"github.com/tutorhub/tutorhub-api/internal/cache"
	"github.com/tutorhub/tutorhub-api/internal/handlers"
	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/paygate"
	"github.com/tutorhub/tutorhub-api/internal/repository"
	"github.com/tutorhub/tutorhub-api/internal/services"
	"github.com/tutorhub/tutorhub-api/pkg/db"
	"github.com/tutorhub/tutorhub-api/pkg/httpclient"
	"github.com/tutorhub/tutorhub-api/pkg/jwt"
	"github.com/tutorhub/tutorhub-api/pkg/logger"
	"github.com/tutorhub/tutorhub-api/pkg/metrics"
	"github.com/tutorhub/tutorhub-api/pkg/profiling"
	"github.com/tutorhub/tutorhub-api/pkg/tracing"
)

// registerPublicRoutes registers routes that require no session
func registerPublicRoutes(
	api *gin.RouterGroup,
	generalRateLimiter, authRateLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	trainerHandler *handlers.TrainerHandler,
	reviewHandler *handlers.ReviewHandler,
	webhookHandler *handlers.WebhookHandler,
) {
	auth := api.Group("/auth")
	auth.POST("/register", authRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(64*1024), authHandler.Register)
	auth.POST("/login", authRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(64*1024), authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/forgot-password", authRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(64*1024), authHandler.ForgotPassword)
	auth.POST("/reset-password", authRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(64*1024), authHandler.ResetPassword)
	// Decision links arrive from reviewer emails; the signed token is the authorization
	auth.GET("/verify-trainer/:token", generalRateLimiter.Middleware(), authHandler.VerifyTrainer)

	api.GET("/trainers", generalRateLimiter.Middleware(), trainerHandler.ListVerified)
	api.GET("/trainers/:id", generalRateLimiter.Middleware(), trainerHandler.GetTrainer)
	api.GET("/trainers/:id/reviews", generalRateLimiter.Middleware(), reviewHandler.ListTrainerReviews)

	// Raw body endpoint: signature is verified before any JSON decoding
	api.POST("/payments/webhook", middleware.BodySizeLimitMiddleware(256*1024), webhookHandler.HandlePaymentWebhook)
}

// registerSessionRoutes registers routes behind the user session middleware
func registerSessionRoutes(
	api *gin.RouterGroup,
	cfg *config.Config,
	tokenManager *jwt.TokenManager,
	generalRateLimiter, paymentRateLimiter *middleware.RateLimiter,
	trainerHandler *handlers.TrainerHandler,
	bookingHandler *handlers.BookingHandler,
	paymentHandler *handlers.PaymentHandler,
	sessionHandler *handlers.SessionHandler,
	reviewHandler *handlers.ReviewHandler,
) {
	authed := api.Group("")
	authed.Use(middleware.UserSessionMiddleware(tokenManager, cfg.Session.CookieDomain, cfg.Session.CookieSecure))
	authed.Use(middleware.BodySizeLimitMiddleware(256 * 1024))

	authed.POST("/trainers/apply", generalRateLimiter.Middleware(), trainerHandler.Apply)
	authed.GET("/trainers/me", generalRateLimiter.Middleware(), trainerHandler.GetOwnProfile)

	authed.POST("/bookings", paymentRateLimiter.Middleware(), bookingHandler.CreateBooking)
	authed.GET("/bookings", generalRateLimiter.Middleware(), bookingHandler.ListBookings)
	authed.GET("/bookings/:id", generalRateLimiter.Middleware(), bookingHandler.GetBooking)
	authed.POST("/bookings/confirm-payment", paymentRateLimiter.Middleware(), bookingHandler.ConfirmPayment)

	authed.POST("/payments/create-payment-intent", paymentRateLimiter.Middleware(), paymentHandler.CreatePaymentIntent)

	authed.POST("/sessions", generalRateLimiter.Middleware(), middleware.RequireRole(models.RoleTrainer), sessionHandler.CreateSession)
	authed.GET("/sessions", generalRateLimiter.Middleware(), middleware.RequireRole(models.RoleTrainer), sessionHandler.ListSessions)
	authed.GET("/sessions/:id", generalRateLimiter.Middleware(), sessionHandler.GetSession)
	authed.PUT("/sessions/:id/status", generalRateLimiter.Middleware(), middleware.RequireRole(models.RoleTrainer), sessionHandler.UpdateStatus)

	authed.POST("/reviews", generalRateLimiter.Middleware(), middleware.RequireRole(models.RoleStudent), reviewHandler.SubmitReview)
	authed.PUT("/reviews/:id", generalRateLimiter.Middleware(), middleware.RequireRole(models.RoleStudent), reviewHandler.UpdateReview)
	authed.DELETE("/reviews/:id", generalRateLimiter.Middleware(), middleware.RequireRole(models.RoleStudent), reviewHandler.DeleteReview)

	admin := api.Group("/admin")
	admin.Use(middleware.UserSessionMiddleware(tokenManager, cfg.Session.CookieDomain, cfg.Session.CookieSecure))
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.PUT("/trainers/:id/verification", generalRateLimiter.Middleware(), trainerHandler.OverrideVerification)
	admin.GET("/trainers/:id/audit", generalRateLimiter.Middleware(), trainerHandler.AuditTrail)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting TutorHub API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.CollectorEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Continuous profiling is opt-in
	if cfg.Profiling.Enabled {
		stopProfiler, err := profiling.InitProfiler(
			cfg.Profiling,
			cfg.Observability.ServiceName,
			cfg.Observability.ServiceNamespace,
			cfg.Observability.ServiceVersion,
			cfg.Observability.ServiceInstanceID,
			cfg.Server.AppEnv,
		)
		if err != nil {
			logger.Fatal("Failed to initialize profiler", zap.Error(err))
		}
		defer stopProfiler()
	}

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	// Initialize PostgreSQL connection pool
	pool, err := db.NewPool(context.Background(), db.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
	}
	defer pool.Close()

	// NOTE: Database migrations run separately via the migrate command

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	trainerRepo := repository.NewTrainerRepository(pool)
	auditRepo := repository.NewVerificationAuditRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)

	// Read-through cache over the verified trainer listing
	trainerCache := cache.NewTrainerCache(trainerRepo, cfg.Cache.TrainerTTLSeconds, cfg.Cache.DisableTrainersCache)

	// Session and decision-link tokens share one signing key
	tokenManager := jwt.NewTokenManager(cfg.Session.JWTSecret, cfg.Session.JWTIssuer, cfg.Session.SessionTTLHours)

	// HTTP client for the payment provider and event triggers
	httpClient := httpclient.NewStandardClient()

	// Payment gateway adapter
	gateway := paygate.NewClient(cfg.Payments, httpClient)

	// Initialize services
	authService := services.NewAuthService(userRepo, resetRepo, tokenManager, cfg, httpClient)
	verificationService := services.NewVerificationService(trainerRepo, auditRepo, tokenManager, trainerCache, cfg, httpClient)
	trainerService := services.NewTrainerService(trainerRepo, trainerCache)
	bookingService := services.NewBookingService(bookingRepo, trainerRepo, gateway, cfg, httpClient)
	webhookService := services.NewWebhookService(bookingRepo, gateway)
	sessionService := services.NewSessionService(sessionRepo, trainerRepo, cfg, httpClient)
	reviewService := services.NewReviewService(reviewRepo, sessionRepo, trainerCache, cfg, httpClient)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, verificationService, cfg.Session.CookieDomain, cfg.Session.CookieSecure, cfg.Session.SessionTTLHours)
	trainerHandler := handlers.NewTrainerHandler(trainerService, verificationService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(bookingService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	healthHandler := handlers.NewHealthHandler(pool.Ping)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS: only allow configured origins
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Paygate-Signature", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true, // Required for session cookies
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiters: tighter limits where abuse hurts most
	generalRateLimiter := middleware.NewRateLimiter(100, 200) // 100 req/sec, burst of 200
	authRateLimiter := middleware.NewRateLimiter(1, 5)        // 1 req/sec, burst of 5 (credential abuse)
	paymentRateLimiter := middleware.NewRateLimiter(5, 10)    // 5 req/sec, burst of 10

	api := router.Group("/api")
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	registerPublicRoutes(api, generalRateLimiter, authRateLimiter,
		authHandler, trainerHandler, reviewHandler, webhookHandler)
	registerSessionRoutes(api, cfg, tokenManager, generalRateLimiter, paymentRateLimiter,
		trainerHandler, bookingHandler, paymentHandler, sessionHandler, reviewHandler)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

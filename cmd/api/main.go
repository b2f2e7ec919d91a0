package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"sharematch-backend/internal/common/config"
	"sharematch-backend/internal/common/logger"
	"sharematch-backend/internal/common/middleware"
	complianceHTTP "sharematch-backend/internal/features/compliance/delivery/http"
	complianceRepo "sharematch-backend/internal/features/compliance/repository/redis"
	complianceService "sharematch-backend/internal/features/compliance/service"
	"sharematch-backend/internal/features/compliance/signature"
	identityRepo "sharematch-backend/internal/features/identity/repository/redis"
	identityService "sharematch-backend/internal/features/identity/service"
	"sharematch-backend/internal/platform/authgateway"
	natsplatform "sharematch-backend/internal/platform/nats"
	redisplatform "sharematch-backend/internal/platform/redis"
	"sharematch-backend/internal/platform/sumsub"
)

// @title           ShareMatch Compliance API
// @version         1.0
// @description     KYC verification state machine and webhook reconciliation service for the ShareMatch trading platform.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey ServiceToken
// @in header
// @name X-Service-Token
// @description Static token for internal tooling endpoints

// @securityDefinitions.apikey BearerToken
// @in header
// @name Authorization
// @description OIDC bearer token issued by the auth identity provider

// @tag.name kyc
// @tag.description Identity verification - webhook intake, manual pushes and status queries

func main() {
	cfg := config.Load()
	logger.Init("sharematch-compliance", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisplatform.Open(ctx, fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	events, err := natsplatform.Connect(cfg.Nats.URL, cfg.Nats.Subject)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer events.Close()

	provider := sumsub.NewClient(cfg.Sumsub.BaseURL, cfg.Sumsub.AppToken, cfg.Sumsub.APISecret, cfg.Sumsub.Timeout)
	authDirectory := authgateway.NewClient(cfg.Auth.AdminURL, cfg.Auth.AdminKey)
	verifier := signature.NewVerifier(cfg.Sumsub.WebhookSecret)

	userRepository := identityRepo.NewUserRepository(rdb.Client)
	complianceRepository := complianceRepo.NewComplianceRepository(rdb.Client)

	linker := identityService.NewLinkageService(userRepository, authDirectory, events)
	complianceSvc := complianceService.NewComplianceService(complianceRepository, provider, linker, events, cfg.CoolingOff)

	// The status endpoint is only guarded when an OIDC issuer is
	// configured; local development runs open.
	var userAuth gin.HandlerFunc
	if cfg.Auth.IssuerURL != "" {
		authMw, err := middleware.NewAuthMiddleware(ctx, cfg.Auth.IssuerURL, cfg.Auth.ClientID)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize OIDC middleware")
		}
		userAuth = authMw.UserAuth()
	} else {
		logger.Warn().Msg("AUTH_ISSUER_URL not set, status endpoint is unauthenticated")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	handler := complianceHTTP.NewComplianceHandler(complianceSvc, verifier)
	handler.RegisterRoutes(v1, cfg.Auth.ServiceToken, userAuth)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerProbes(router, rdb)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	logger.Info().Msg("Server exited")
}

func registerProbes(router *gin.Engine, rdb *redisplatform.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "sharematch-compliance",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := rdb.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "sharematch-compliance",
		})
	})
}

// Package bootstrap wires configuration, storage, services and the HTTP
// layer together and runs the server under graceful shutdown.
package bootstrap

import (
	"net/http"

	"github.com/go-authcore/authcore/internal/config"
	"github.com/go-authcore/authcore/internal/metrics"
	"github.com/go-authcore/authcore/internal/services"
	"github.com/go-authcore/authcore/internal/store"
	"github.com/go-authcore/authcore/internal/token"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	RateLimitRedisClient *redis.Client
	Signer               *token.Signer

	// Services
	AuditService         *services.AuditService
	ClientRegistry       *services.ClientRegistry
	ClientAuthenticator  *services.ClientAuthenticator
	AuthorizationEngine  *services.AuthorizationEngine
	TokenService         *services.TokenService
	IntrospectionService *services.IntrospectionService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, and Redis
func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = initializeDatabase(app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = metrics.Init(app.Config.MetricsEnabled)
	app.Signer = token.NewSigner(app.Config.JWTSecret, app.Config.BaseURL)

	app.RateLimitRedisClient, err = initializeRedisClient(app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	// Audit service first; every other service depends on it
	app.AuditService = services.NewAuditService(app.DB, app.Config.AuditEnabled, app.Config.AuditBufferSize)

	app.ClientRegistry = services.NewClientRegistry(app.DB, app.AuditService, app.MetricsRecorder)
	app.ClientAuthenticator = services.NewClientAuthenticator(app.DB, app.AuditService, app.MetricsRecorder)
	app.AuthorizationEngine = services.NewAuthorizationEngine(app.DB, app.Config, app.AuditService, app.MetricsRecorder)
	app.TokenService = services.NewTokenService(app.DB, app.Config, app.Signer, app.AuditService, app.MetricsRecorder)
	app.IntrospectionService = services.NewIntrospectionService(app.DB, app.AuditService, app.MetricsRecorder)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.DB,
		app.ClientRegistry,
		app.AuthorizationEngine,
		app.TokenService,
		app.IntrospectionService,
	)

	app.Router = setupRouter(
		app.Config,
		app.HandlerSet,
		app.ClientAuthenticator,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient)
	addAuditServiceShutdownJob(m, app.AuditService)
	addAuditLogCleanupJob(m, app.Config, app.AuditService)
	addExpirySweepJob(m, app.Config, app.DB)

	<-m.Done()
}

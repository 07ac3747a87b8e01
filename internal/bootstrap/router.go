package bootstrap

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-authcore/authcore/internal/config"
	"github.com/go-authcore/authcore/internal/metrics"
	"github.com/go-authcore/authcore/internal/middleware"
	"github.com/go-authcore/authcore/internal/services"
	"github.com/go-authcore/authcore/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	authenticator *services.ClientAuthenticator,
	rec metrics.Recorder,
	redisClient *redis.Client,
) *gin.Engine {
	setupGinMode()
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(rec))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(util.IPMiddleware())

	// Health and discovery endpoints stay outside rate limiting
	r.GET("/health", h.Health.Health)
	r.GET("/.well-known/oauth-authorization-server", h.WellKnown.Metadata)

	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	oauth := r.Group("/oauth")
	if cfg.RateLimitEnabled {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			Rate:        cfg.RateLimitRate,
			RedisClient: redisClient,
		})
		if err != nil {
			log.Fatalf("Failed to create rate limiter: %v", err)
		}
		oauth.Use(limiter)
	}

	if cfg.OpenRegistration {
		oauth.POST("/register", h.Register.Register)
	}

	oauth.GET("/authorize", h.Authorization.ShowConsent)
	oauth.POST("/authorize", h.Authorization.Authorize)

	// The token endpoint admits unauthenticated requests; public clients
	// prove possession with PKCE. Introspection and revocation always
	// require client credentials.
	oauth.POST("/token", middleware.ClientAuth(authenticator, false), h.Token.Token)
	oauth.POST("/introspect", middleware.ClientAuth(authenticator, true), h.Introspection.Introspect)
	oauth.POST("/revoke", middleware.ClientAuth(authenticator, true), h.Introspection.Revoke)

	log.Printf("[Bootstrap] listening on %s (base URL %s)", cfg.ServerAddr, cfg.BaseURL)

	return r
}

func setupGinMode() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

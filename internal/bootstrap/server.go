package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-authcore/authcore/internal/config"
	"github.com/go-authcore/authcore/internal/services"
	"github.com/go-authcore/authcore/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
)

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		log.Println("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
			return err
		}
		return nil
	})
}

// addAuditServiceShutdownJob adds audit service shutdown handler
func addAuditServiceShutdownJob(m *graceful.Manager, auditService *services.AuditService) {
	m.AddShutdownJob(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := auditService.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down audit service: %v", err)
			return err
		}
		return nil
	})
}

// addAuditLogCleanupJob adds periodic audit log cleanup job
func addAuditLogCleanupJob(
	m *graceful.Manager,
	cfg *config.Config,
	auditService *services.AuditService,
) {
	if cfg.AuditRetention <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		cleanup := func() {
			if deleted, err := auditService.CleanupOldLogs(cfg.AuditRetention); err != nil {
				log.Printf("Failed to cleanup old audit logs: %v", err)
			} else if deleted > 0 {
				log.Printf("Cleaned up %d old audit logs", deleted)
			}
		}

		// Run cleanup immediately on startup
		cleanup()

		for {
			select {
			case <-ticker.C:
				cleanup()
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addExpirySweepJob periodically removes expired codes and tokens.
// Reads already treat expired rows as absent; the sweep just keeps the
// tables from growing without bound.
func addExpirySweepJob(m *graceful.Manager, cfg *config.Config, db *store.Store) {
	if cfg.SweepInterval <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()

		sweep := func() {
			if n, err := db.DeleteExpiredAuthorizationCodes(); err != nil {
				log.Printf("Failed to sweep expired authorization codes: %v", err)
			} else if n > 0 {
				log.Printf("Swept %d expired authorization codes", n)
			}
			if n, err := db.DeleteExpiredAccessTokens(); err != nil {
				log.Printf("Failed to sweep expired access tokens: %v", err)
			} else if n > 0 {
				log.Printf("Swept %d expired access tokens", n)
			}
			if n, err := db.MarkExpiredRefreshTokens(); err != nil {
				log.Printf("Failed to mark expired refresh tokens: %v", err)
			} else if n > 0 {
				log.Printf("Marked %d refresh tokens expired", n)
			}
		}

		for {
			select {
			case <-ticker.C:
				sweep()
			case <-ctx.Done():
				return nil
			}
		}
	})
}

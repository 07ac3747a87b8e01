package bootstrap

import (
	"github.com/go-authcore/authcore/internal/config"
	"github.com/go-authcore/authcore/internal/handlers"
	"github.com/go-authcore/authcore/internal/services"
	"github.com/go-authcore/authcore/internal/store"
)

// handlerSet groups all HTTP handlers
type handlerSet struct {
	Register      *handlers.RegisterHandler
	Authorization *handlers.AuthorizationHandler
	Token         *handlers.TokenHandler
	Introspection *handlers.IntrospectionHandler
	WellKnown     *handlers.WellKnownHandler
	Health        *handlers.HealthHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	db *store.Store,
	registry *services.ClientRegistry,
	authorization *services.AuthorizationEngine,
	tokens *services.TokenService,
	introspection *services.IntrospectionService,
) handlerSet {
	return handlerSet{
		Register:      handlers.NewRegisterHandler(registry),
		Authorization: handlers.NewAuthorizationHandler(authorization),
		Token:         handlers.NewTokenHandler(tokens),
		Introspection: handlers.NewIntrospectionHandler(introspection),
		WellKnown:     handlers.NewWellKnownHandler(cfg),
		Health:        handlers.NewHealthHandler(db),
	}
}

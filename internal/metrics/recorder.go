package metrics

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Registration
	RecordClientRegistered(success bool)

	// Authorization
	RecordAuthorizationRequest(result string)

	// Token Operations
	RecordTokenIssued(tokenType, grantType string, generationTime time.Duration)
	RecordTokenRefresh(success bool)
	RecordTokenRevoked(tokenType string)

	// Client Authentication
	RecordClientAuth(method string, success bool)

	// Introspection
	RecordIntrospection(active bool)
}

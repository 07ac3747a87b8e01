package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Registration Metrics
	ClientsRegisteredTotal *prometheus.CounterVec

	// Authorization Metrics
	AuthorizationRequestsTotal *prometheus.CounterVec

	// Token Metrics
	TokensIssuedTotal       *prometheus.CounterVec
	TokensRefreshedTotal    *prometheus.CounterVec
	TokensRevokedTotal      *prometheus.CounterVec
	TokenGenerationDuration *prometheus.HistogramVec

	// Client Authentication Metrics
	ClientAuthTotal *prometheus.CounterVec

	// Introspection Metrics
	IntrospectionTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		ClientsRegisteredTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_clients_registered_total",
				Help: "Total number of dynamic client registrations",
			},
			[]string{"result"}, // success, error
		),
		AuthorizationRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_authorization_requests_total",
				Help: "Total number of authorization requests",
			},
			[]string{"result"}, // granted, invalid_client, invalid_redirect, error
		),
		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_issued_total",
				Help: "Total number of tokens issued",
			},
			[]string{
				"token_type",
				"grant_type",
			}, // token_type: access, refresh; grant_type: authorization_code, refresh_token
		),
		TokensRefreshedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_refreshed_total",
				Help: "Total number of token refresh attempts",
			},
			[]string{"result"}, // success, error
		),
		TokensRevokedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_revoked_total",
				Help: "Total number of tokens revoked",
			},
			[]string{"token_type"}, // access, refresh
		),
		TokenGenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oauth_token_generation_duration_seconds",
				Help:    "Time taken to generate and persist tokens",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"grant_type"},
		),
		ClientAuthTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_client_auth_total",
				Help: "Total number of client authentication attempts",
			},
			[]string{"method", "result"},
		),
		IntrospectionTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_introspection_total",
				Help: "Total number of introspection requests",
			},
			[]string{"active"},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
	}
}

// RecordClientRegistered records a dynamic registration attempt
func (m *Metrics) RecordClientRegistered(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.ClientsRegisteredTotal.WithLabelValues(result).Inc()
}

// RecordAuthorizationRequest records an authorization request outcome
func (m *Metrics) RecordAuthorizationRequest(result string) {
	m.AuthorizationRequestsTotal.WithLabelValues(result).Inc()
}

// RecordTokenIssued records token issuance with generation time
func (m *Metrics) RecordTokenIssued(tokenType, grantType string, generationTime time.Duration) {
	m.TokensIssuedTotal.WithLabelValues(tokenType, grantType).Inc()
	m.TokenGenerationDuration.WithLabelValues(grantType).Observe(generationTime.Seconds())
}

// RecordTokenRefresh records a refresh grant attempt
func (m *Metrics) RecordTokenRefresh(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.TokensRefreshedTotal.WithLabelValues(result).Inc()
}

// RecordTokenRevoked records a token revocation
func (m *Metrics) RecordTokenRevoked(tokenType string) {
	m.TokensRevokedTotal.WithLabelValues(tokenType).Inc()
}

// RecordClientAuth records a client authentication attempt
func (m *Metrics) RecordClientAuth(method string, success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.ClientAuthTotal.WithLabelValues(method, result).Inc()
}

// RecordIntrospection records an introspection lookup
func (m *Metrics) RecordIntrospection(active bool) {
	m.IntrospectionTotal.WithLabelValues(strconv.FormatBool(active)).Inc()
}

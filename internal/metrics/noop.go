package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder.
// All methods are empty, providing zero overhead when metrics are disabled.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordClientRegistered(success bool)          {}
func (n *NoopMetrics) RecordAuthorizationRequest(result string)     {}
func (n *NoopMetrics) RecordTokenRefresh(success bool)              {}
func (n *NoopMetrics) RecordTokenRevoked(tokenType string)          {}
func (n *NoopMetrics) RecordClientAuth(method string, success bool) {}
func (n *NoopMetrics) RecordIntrospection(active bool)              {}

func (n *NoopMetrics) RecordTokenIssued(
	tokenType, grantType string,
	generationTime time.Duration,
) {
}

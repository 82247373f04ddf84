package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the application's timeout hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//
//	HTTP Handler (60s)
//	  ↓
//	Service Layer (50s)
//	  ↓
//	External API (30s - payment processor)
//	  ↓
//	Database Query (bounded by the service context)
//
// Each layer must complete before its parent times out, preventing
// cascading timeout failures.
type TimeoutConfig struct {
	// Handler layer timeouts
	HTTPHandler time.Duration // Overall request timeout (default: 60s)

	// Service layer timeouts
	Service           time.Duration // Service operation timeout (default: 50s)
	ServiceNonCritial time.Duration // Best-effort secondary updates (default: 10s)

	// External API timeouts (adapters)
	ExternalAPI time.Duration // Processor calls (default: 30s)
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:       60 * time.Second,
		Service:           50 * time.Second,
		ServiceNonCritial: 10 * time.Second,
		ExternalAPI:       30 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:       5 * time.Second,
		Service:           4 * time.Second,
		ServiceNonCritial: 1 * time.Second,
		ExternalAPI:       2 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// ServiceContext creates a context with timeout for service layer operations
func (tc *TimeoutConfig) ServiceContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Service)
}

// NonCriticalContext creates a context for best-effort secondary operations
func (tc *TimeoutConfig) NonCriticalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.ServiceNonCritial)
}

// ExternalAPIContext creates a context for external API calls
func (tc *TimeoutConfig) ExternalAPIContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.ExternalAPI)
}

package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc is a component teardown hook invoked during graceful shutdown
type ShutdownFunc func(ctx context.Context) error

type component struct {
	name string
	fn   ShutdownFunc
}

// Manager coordinates graceful shutdown of registered components.
// Components are shut down in reverse registration order, so dependents
// (HTTP servers) registered after their dependencies (DB pools) stop first.
type Manager struct {
	mu         sync.Mutex
	components []component
	logger     *zap.Logger
	timeout    time.Duration
	once       sync.Once
}

// NewManager creates a shutdown manager with an overall teardown timeout
func NewManager(logger *zap.Logger, timeout time.Duration) *Manager {
	return &Manager{
		logger:  logger,
		timeout: timeout,
	}
}

// Register adds a named shutdown hook
func (sm *Manager) Register(name string, fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.components = append(sm.components, component{name: name, fn: fn})
}

// RegisterHTTPServer registers anything with a context-aware Shutdown method
func (sm *Manager) RegisterHTTPServer(name string, server interface{ Shutdown(context.Context) error }) {
	sm.Register(name, server.Shutdown)
}

// RegisterCloser registers anything with a Close method
func (sm *Manager) RegisterCloser(name string, closer interface{ Close() error }) {
	sm.Register(name, func(context.Context) error { return closer.Close() })
}

// RegisterNoErr registers a teardown function with no error return
func (sm *Manager) RegisterNoErr(name string, fn func()) {
	sm.Register(name, func(context.Context) error {
		fn()
		return nil
	})
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then tears everything down
func (sm *Manager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	sm.logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	sm.Shutdown()
}

// Shutdown tears down all registered components in LIFO order.
// Safe to call more than once; only the first call runs the hooks.
func (sm *Manager) Shutdown() {
	sm.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
		defer cancel()

		sm.mu.Lock()
		components := make([]component, len(sm.components))
		copy(components, sm.components)
		sm.mu.Unlock()

		for i := len(components) - 1; i >= 0; i-- {
			c := components[i]
			sm.logger.Info("Shutting down component", zap.String("component", c.name))

			if err := c.fn(ctx); err != nil {
				sm.logger.Error("Component shutdown failed",
					zap.String("component", c.name),
					zap.Error(err),
				)
				continue
			}
		}

		sm.logger.Info("Shutdown complete")
	})
}

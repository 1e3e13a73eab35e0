package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ShutdownHook is a function called during graceful shutdown, after the
// server stopped accepting requests
type ShutdownHook func(ctx context.Context) error

// GracefulShutdown runs a server until its context is cancelled, then shuts
// it down and runs the cleanup hooks
type GracefulShutdown struct {
	server  *Server
	timeout time.Duration
	logger  *zap.Logger

	mu           sync.Mutex
	hooks        []ShutdownHook
	shutdownOnce sync.Once
	done         chan struct{}
	err          error
}

// NewGracefulShutdown creates a graceful shutdown handler. A zero timeout
// waits 30 seconds for in-flight requests.
func NewGracefulShutdown(server *Server, timeout time.Duration, logger *zap.Logger) *GracefulShutdown {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GracefulShutdown{
		server:  server,
		timeout: timeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// RegisterHook registers a shutdown hook to be called during shutdown
func (gs *GracefulShutdown) RegisterHook(hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, hook)
}

// Run serves until ctx is done or the server fails, then shuts down.
func (gs *GracefulShutdown) Run(ctx context.Context) error {
	if gs.server == nil {
		return fmt.Errorf("server cannot be nil")
	}
	if err := gs.server.Listen(); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- gs.server.Serve()
	}()

	select {
	case <-ctx.Done():
		gs.logger.Info("shutdown signal received")
		return gs.Shutdown()
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return gs.Shutdown()
	}
}

// Shutdown stops the server and runs the hooks once. Hook failures are
// logged and do not stop the remaining hooks.
func (gs *GracefulShutdown) Shutdown() error {
	gs.shutdownOnce.Do(func() {
		defer close(gs.done)

		ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
		defer cancel()

		if gs.server != nil {
			if err := gs.server.Shutdown(ctx); err != nil {
				gs.err = fmt.Errorf("server shutdown error: %w", err)
				gs.logger.Error("server shutdown failed", zap.Error(err))
			}
		}

		gs.mu.Lock()
		hooks := make([]ShutdownHook, len(gs.hooks))
		copy(hooks, gs.hooks)
		gs.mu.Unlock()

		for i, hook := range hooks {
			if err := hook(ctx); err != nil {
				gs.logger.Warn("shutdown hook failed", zap.Int("hook", i), zap.Error(err))
			}
		}

		gs.logger.Info("shutdown completed", zap.Int("hooks", len(hooks)))
	})

	<-gs.done
	return gs.err
}

// Wait blocks until shutdown is complete
func (gs *GracefulShutdown) Wait() error {
	<-gs.done
	return gs.err
}

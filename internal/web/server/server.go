package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Server wraps an http.Server serving a JSON:API handler
type Server struct {
	httpServer *http.Server
	config     *Config
	logger     *zap.Logger

	mu       sync.Mutex
	listener net.Listener
}

// Config holds server configuration
type Config struct {
	// Address is the server listen address (e.g., ":8080")
	Address string

	// Handler is the HTTP handler for the server
	Handler http.Handler

	// Timeouts
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration

	// Connection limits
	MaxHeaderBytes int

	// Database configuration for connection pooling
	Database *DatabaseConfig

	Logger *zap.Logger
}

// DatabaseConfig holds database connection pool configuration
type DatabaseConfig struct {
	// DB is the database connection
	DB *sql.DB

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// ConnMaxLifetime is the maximum amount of time a connection may be reused
	ConnMaxLifetime time.Duration

	// ConnMaxIdleTime is the maximum amount of time a connection may be idle
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns a production-ready server configuration
func DefaultConfig(handler http.Handler) *Config {
	return &Config{
		Address:           ":8080",
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// DefaultDatabaseConfig returns connection pool settings for db
func DefaultDatabaseConfig(db *sql.DB) *DatabaseConfig {
	return &DatabaseConfig{
		DB:              db,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// New creates a server. The database pool, when configured, is tuned and
// pinged before the server is returned.
func New(config *Config) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("server config cannot be nil")
	}

	if config.Handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	if config.Database != nil {
		if err := configureDatabasePool(config.Database); err != nil {
			return nil, fmt.Errorf("failed to configure database pool: %w", err)
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpServer := &http.Server{
		Addr:              config.Address,
		Handler:           config.Handler,
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		MaxHeaderBytes:    config.MaxHeaderBytes,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}

	return &Server{
		httpServer: httpServer,
		config:     config,
		logger:     logger,
	}, nil
}

// Listen binds the listen address without serving yet
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener
	return nil
}

// Serve accepts connections until the server is shut down. It binds the
// listen address first when Listen was not called. A graceful shutdown is
// not an error.
func (s *Server) Serve() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	s.logger.Info("server listening", zap.String("address", listener.Addr().String()))
	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Close immediately closes the server
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// Addr returns the server's network address
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}

// configureDatabasePool configures the database connection pool
func configureDatabasePool(config *DatabaseConfig) error {
	if config.DB == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	config.DB.SetMaxOpenConns(config.MaxOpenConns)
	config.DB.SetMaxIdleConns(config.MaxIdleConns)
	config.DB.SetConnMaxLifetime(config.ConnMaxLifetime)
	config.DB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := config.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/conduit-lang/jsonapi/pkg/web/response"
)

// RecoveryConfig holds configuration for the recovery middleware
type RecoveryConfig struct {
	Logger *zap.Logger
	// EnableStackTrace determines whether to log stack traces
	EnableStackTrace bool
	// Renderer writes the error document, a default renderer when nil
	Renderer *response.Renderer
}

// Recovery creates a middleware that turns panics into JSON:API internal
// error documents
func Recovery(logger *zap.Logger) Middleware {
	return RecoveryWithConfig(RecoveryConfig{Logger: logger, EnableStackTrace: true})
}

// RecoveryWithConfig creates a recovery middleware with custom configuration
func RecoveryWithConfig(config RecoveryConfig) Middleware {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := config.Renderer
	if renderer == nil {
		renderer = response.NewRenderer()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				value := recover()
				if value == nil {
					return
				}
				if value == http.ErrAbortHandler {
					panic(value)
				}

				err := panicError(value)
				fields := []zap.Field{
					zap.Error(err),
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("path", r.URL.Path),
				}
				if config.EnableStackTrace {
					fields = append(fields, zap.ByteString("stack", debug.Stack()))
				}
				logger.Error("panic recovered", fields...)

				_ = renderer.Error(w, nil, err)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func panicError(value any) error {
	if err, ok := value.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", value)
}

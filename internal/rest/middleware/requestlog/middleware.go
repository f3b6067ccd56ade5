package requestlog

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

type requestIDCtxKey struct{}

// FromContext retrieves the request ID from context.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// Middleware tags every request with an ID and logs its completion.
type Middleware struct {
	logger *zap.Logger
}

// New creates a new request logging middleware.
func New(logger *zap.Logger) *Middleware {
	return &Middleware{
		logger: logger.Named("http"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for request logging in REST server.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		requestID := req.Header.Get(headerRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		err := next(recorder, req.WithContext(context.WithValue(req.Context(), requestIDCtxKey{}, requestID)))

		fields := []zap.Field{
			zap.String("requestID", requestID),
			zap.String("method", req.Method),
			zap.String("route", req.Route()),
			zap.Int("status", recorder.status),
			zap.Duration("duration", time.Since(start)),
		}
		switch {
		case err != nil:
			m.logger.Error("Request failed", append(fields, zap.Error(err))...)
		case recorder.status >= http.StatusInternalServerError:
			m.logger.Warn("Handled request", fields...)
		default:
			m.logger.Debug("Handled request", fields...)
		}

		return err
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

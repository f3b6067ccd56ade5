package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mythril-io/mythril/internal/rest/middleware/bearer"
	"github.com/mythril-io/mythril/internal/rest/reply"
	"github.com/mythril-io/mythril/internal/setup/config"
	"github.com/redis/rueidis"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const (
	errRateLimit  = "rate limit exceeded"
	headerRetryAt = "Retry-After"
	keyPrefix     = "ratelimit:reaction:"
)

// Middleware limits reaction writes per user with a fixed window counter in Redis.
type Middleware struct {
	client rueidis.Client
	config *config.RateLimit
	logger *zap.Logger
}

// New creates a new rate limiting middleware.
func New(client rueidis.Client, config *config.RateLimit, logger *zap.Logger) *Middleware {
	return &Middleware{
		client: client,
		config: config,
		logger: logger.Named("ratelimit"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for rate limiting in REST server.
// It must run after the bearer middleware has resolved the user.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		if !m.config.Enabled {
			return next(w, req)
		}

		userID, ok := bearer.UserID(req.Context())
		if !ok {
			return next(w, req)
		}

		allowed, retryAfter, err := m.Allow(req.Context(), userID)
		if err != nil {
			// Writes stay available when Redis is down.
			m.logger.Warn("Rate limit check failed", zap.Int64("userID", userID), zap.Error(err))
			return next(w, req)
		}

		if !allowed {
			w.Header().Set(headerRetryAt, strconv.FormatInt(int64(retryAfter.Seconds()), 10))
			return reply.Error(w, http.StatusTooManyRequests, errRateLimit)
		}

		return next(w, req)
	}
}

// Allow counts one write for the user and reports whether it fits in the
// current window. A rejected write also returns the time until the window resets.
func (m *Middleware) Allow(ctx context.Context, userID int64) (bool, time.Duration, error) {
	key := keyPrefix + strconv.FormatInt(userID, 10)
	window := time.Duration(m.config.Window) * time.Second

	count, err := m.client.Do(ctx, m.client.B().Incr().Key(key).Build()).AsInt64()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	if count == 1 {
		if err := m.expire(ctx, key); err != nil {
			return false, 0, err
		}
	}

	if count <= m.config.MaxRequests {
		return true, 0, nil
	}

	ttl, err := m.client.Do(ctx, m.client.B().Ttl().Key(key).Build()).AsInt64()
	if err != nil {
		return false, 0, fmt.Errorf("failed to read counter ttl: %w", err)
	}

	// A counter without expiry would block the user forever.
	if ttl < 0 {
		if err := m.expire(ctx, key); err != nil {
			return false, 0, err
		}
		ttl = int64(m.config.Window)
	}

	m.logger.Debug("Rate limit exceeded",
		zap.Int64("userID", userID),
		zap.Int64("count", count),
		zap.Duration("window", window))

	return false, time.Duration(ttl) * time.Second, nil
}

func (m *Middleware) expire(ctx context.Context, key string) error {
	err := m.client.Do(ctx, m.client.B().Expire().Key(key).Seconds(int64(m.config.Window)).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to set counter expiry: %w", err)
	}
	return nil
}

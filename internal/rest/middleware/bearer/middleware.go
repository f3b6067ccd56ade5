package bearer

import (
	"context"
	"net/http"
	"strings"

	"github.com/mythril-io/mythril/internal/rest/reply"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const (
	headerAuthorization = "Authorization"
	errUnauthorized     = "authentication required"
	errInvalidToken     = "invalid access token"
)

type userIDCtxKey struct{}

// Verifier checks an access token and returns the user it was issued to.
type Verifier interface {
	Verify(token string) (int64, error)
}

// UserID retrieves the authenticated user from context.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDCtxKey{}).(int64)
	return id, ok && id > 0
}

// WithUserID stores an authenticated user in context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDCtxKey{}, userID)
}

// Middleware resolves bearer tokens into user identities.
type Middleware struct {
	verifier Verifier
	logger   *zap.Logger
}

// New creates a new bearer token middleware.
func New(verifier Verifier, logger *zap.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		logger:   logger.Named("bearer"),
	}
}

// AsRESTMiddleware attaches the token's user to the request context.
// Requests without an Authorization header pass through anonymously,
// while malformed or rejected tokens are answered with 401.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		header := req.Header.Get(headerAuthorization)
		if header == "" {
			return next(w, req)
		}

		token, ok := tokenFromHeader(header)
		if !ok {
			return reply.Error(w, http.StatusUnauthorized, errInvalidToken)
		}

		userID, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.Debug("Rejected access token", zap.Error(err))
			return reply.Error(w, http.StatusUnauthorized, errInvalidToken)
		}

		return next(w, req.WithContext(WithUserID(req.Context(), userID)))
	}
}

// Require rejects requests that carry no authenticated user.
func (m *Middleware) Require(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		if _, ok := UserID(req.Context()); !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			return reply.Error(w, http.StatusUnauthorized, errUnauthorized)
		}
		return next(w, req)
	}
}

// tokenFromHeader extracts the token of a "Bearer <token>" header.
func tokenFromHeader(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

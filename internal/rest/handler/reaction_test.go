package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/getsentry/sentry-go"
	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/mythril-io/mythril/internal/database/types/enum"
	"github.com/mythril-io/mythril/internal/rest/handler"
	"github.com/mythril-io/mythril/internal/rest/middleware/bearer"
	restTypes "github.com/mythril-io/mythril/internal/rest/types"
	"github.com/mythril-io/mythril/internal/setup/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// fakeLedger is an in-memory ledger with the toggle semantics of the real service.
type fakeLedger struct {
	mu        sync.Mutex
	reactions map[types.ReactionKey]enum.ReactionValue
	targets   map[string]map[int64]bool
	failWith  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		reactions: make(map[types.ReactionKey]enum.ReactionValue),
		targets: map[string]map[int64]bool{
			types.TargetReview: {1: true, 2: true},
			types.TargetPost:   {5: true},
		},
	}
}

func (l *fakeLedger) checkType(targetType string) error {
	if _, ok := l.targets[targetType]; !ok {
		return types.ErrUnknownTargetType
	}
	return nil
}

func (l *fakeLedger) React(
	_ context.Context, userID int64, targetType string, targetID int64, value enum.ReactionValue,
) (types.ReactionOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failWith != nil {
		return "", l.failWith
	}
	if !value.Valid() {
		return "", types.ErrInvalidReactionValue
	}
	if err := l.checkType(targetType); err != nil {
		return "", err
	}

	key := types.ReactionKey{UserID: userID, TargetType: targetType, TargetID: targetID}
	existing, ok := l.reactions[key]
	switch {
	case !ok:
		l.reactions[key] = value
		return types.OutcomeCreated, nil
	case existing == value:
		delete(l.reactions, key)
		return types.OutcomeRemoved, nil
	default:
		l.reactions[key] = value
		return types.OutcomeUpdated, nil
	}
}

func (l *fakeLedger) Remove(_ context.Context, userID int64, targetType string, targetID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := types.ReactionKey{UserID: userID, TargetType: targetType, TargetID: targetID}
	if _, ok := l.reactions[key]; !ok {
		return types.ErrReactionNotFound
	}
	delete(l.reactions, key)
	return nil
}

func (l *fakeLedger) GetCount(_ context.Context, targetType string, targetID int64) (*types.ReactionCount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkType(targetType); err != nil {
		return nil, err
	}
	return l.countLocked(targetType, targetID), nil
}

func (l *fakeLedger) countLocked(targetType string, targetID int64) *types.ReactionCount {
	count := &types.ReactionCount{TargetID: targetID}
	for key, value := range l.reactions {
		if key.TargetType != targetType || key.TargetID != targetID {
			continue
		}
		if value == enum.ReactionLike {
			count.LikeCount++
		} else {
			count.DislikeCount++
		}
	}
	return count
}

func (l *fakeLedger) CountMany(
	_ context.Context, targetType string, targetIDs []int64,
) (map[int64]*types.ReactionCount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkType(targetType); err != nil {
		return nil, err
	}
	counts := make(map[int64]*types.ReactionCount, len(targetIDs))
	for _, id := range targetIDs {
		counts[id] = l.countLocked(targetType, id)
	}
	return counts, nil
}

func (l *fakeLedger) GetUserSentiment(
	_ context.Context, userID int64, targetType string, targetID int64,
) (enum.Sentiment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	value, ok := l.reactions[types.ReactionKey{UserID: userID, TargetType: targetType, TargetID: targetID}]
	if !ok {
		return enum.SentimentNone, nil
	}
	return enum.SentimentFromValue(value), nil
}

func (l *fakeLedger) TargetExists(_ context.Context, targetType string, targetID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkType(targetType); err != nil {
		return false, err
	}
	return l.targets[targetType][targetID], nil
}

// asUser authenticates every request as the given user when userID is positive.
func asUser(userID int64) bunrouter.MiddlewareFunc {
	return func(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
		return func(w http.ResponseWriter, req bunrouter.Request) error {
			if userID > 0 {
				req = req.WithContext(bearer.WithUserID(req.Context(), userID))
			}
			return next(w, req)
		}
	}
}

func newReactionRouter(ledger handler.ReactionLedger, userID int64) *bunrouter.Router {
	return newLoggedReactionRouter(ledger, userID, zap.NewNop())
}

func newLoggedReactionRouter(ledger handler.ReactionLedger, userID int64, logger *zap.Logger) *bunrouter.Router {
	h := handler.NewReactionHandler(ledger, logger)
	auth := bearer.New(nil, zap.NewNop())

	router := bunrouter.New(bunrouter.Use(asUser(userID)))
	router.GET("/likeables/:type", h.GetCounts)
	router.GET("/likeables/:type/:id", h.GetCount)
	authed := router.WithMiddleware(auth.Require)
	authed.GET("/likeables/:type/:id/sentiment", h.GetSentiment)
	authed.POST("/likeables/:type/:id", h.React)
	authed.DELETE("/likeables/:type/:id", h.Remove)
	return router
}

func serve(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestReactToggleFlow(t *testing.T) {
	t.Parallel()

	router := newReactionRouter(newFakeLedger(), 10)

	rec := serve(t, router, http.MethodPost, "/likeables/review/1", `{"value":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decode[restTypes.ReactionStateResponse](t, rec)
	assert.Equal(t, "created", state.Outcome)
	assert.Equal(t, int64(1), state.LikeCount)
	assert.Equal(t, enum.SentimentLike, state.UserSentiment)

	rec = serve(t, router, http.MethodPost, "/likeables/review/1", `{"value":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[restTypes.ReactionStateResponse](t, rec)
	assert.Equal(t, "updated", state.Outcome)
	assert.Zero(t, state.LikeCount)
	assert.Equal(t, int64(1), state.DislikeCount)
	assert.Equal(t, enum.SentimentDislike, state.UserSentiment)

	rec = serve(t, router, http.MethodPost, "/likeables/review/1", `{"value":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"outcome":"removed","like_count":0,"dislike_count":0,"user_sentiment":null}`,
		rec.Body.String())
}

func TestReactAcceptsCaseInsensitiveType(t *testing.T) {
	t.Parallel()

	router := newReactionRouter(newFakeLedger(), 10)

	rec := serve(t, router, http.MethodPost, "/likeables/Review/2", `{"value":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReactRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		userID int64
		target string
		body   string
		status int
	}{
		{name: "anonymous", userID: 0, target: "/likeables/review/1", body: `{"value":1}`, status: http.StatusUnauthorized},
		{name: "missing value", userID: 3, target: "/likeables/review/1", body: `{}`, status: http.StatusBadRequest},
		{name: "value out of range", userID: 3, target: "/likeables/review/1", body: `{"value":2}`, status: http.StatusBadRequest},
		{name: "negative value", userID: 3, target: "/likeables/review/1", body: `{"value":-1}`, status: http.StatusBadRequest},
		{name: "malformed body", userID: 3, target: "/likeables/review/1", body: `{"value":`, status: http.StatusBadRequest},
		{name: "bad id", userID: 3, target: "/likeables/review/abc", body: `{"value":1}`, status: http.StatusBadRequest},
		{name: "zero id", userID: 3, target: "/likeables/review/0", body: `{"value":1}`, status: http.StatusBadRequest},
		{name: "unknown type", userID: 3, target: "/likeables/game/1", body: `{"value":1}`, status: http.StatusBadRequest},
		{name: "missing target", userID: 3, target: "/likeables/review/99", body: `{"value":1}`, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(t, newReactionRouter(newFakeLedger(), tt.userID), http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestReactPersistenceFailure(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	ledger.failWith = &types.PersistenceError{Op: "commit", Err: errors.New("connection lost")}
	router := newReactionRouter(ledger, 4)

	rec := serve(t, router, http.MethodPost, "/likeables/review/1", `{"value":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection lost")
}

func TestServerErrorsAreReported(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:        "https://public@sentry.example.com/1",
		SampleRate: 1.0,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, event)
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())
	logger := zap.New(telemetry.NewSentryCore(zapcore.ErrorLevel, hub))

	ledger := newFakeLedger()
	ledger.failWith = &types.PersistenceError{Op: "commit", Err: errors.New("connection lost")}
	router := newLoggedReactionRouter(ledger, 4, logger)

	rec := serve(t, router, http.MethodPost, "/likeables/review/1", `{"value":1}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Client errors are not reported.
	rec = serve(t, router, http.MethodPost, "/likeables/review/1", `{"value":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "Request failed", events[0].Message)
	assert.EqualValues(t, http.StatusServiceUnavailable, events[0].Extra["status"])
	assert.Contains(t, events[0].Exception[0].Value, "connection lost")
}

func TestReactConflict(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	ledger.failWith = &types.PersistenceError{Op: "insert", Err: types.ErrReactionConflict}

	rec := serve(t, newReactionRouter(ledger, 4), http.MethodPost, "/likeables/review/1", `{"value":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	router := newReactionRouter(newFakeLedger(), 6)

	rec := serve(t, router, http.MethodDelete, "/likeables/post/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, router, http.MethodPost, "/likeables/post/5", `{"value":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, router, http.MethodDelete, "/likeables/post/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"outcome":"removed","like_count":0,"dislike_count":0,"user_sentiment":null}`,
		rec.Body.String())
}

func TestGetCountAndSentiment(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	ctx := t.Context()
	for userID := int64(1); userID <= 3; userID++ {
		_, err := ledger.React(ctx, userID, types.TargetReview, 1, enum.ReactionLike)
		require.NoError(t, err)
	}
	_, err := ledger.React(ctx, 4, types.TargetReview, 1, enum.ReactionDislike)
	require.NoError(t, err)

	router := newReactionRouter(ledger, 4)

	rec := serve(t, router, http.MethodGet, "/likeables/review/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"like_count":3,"dislike_count":1}`, rec.Body.String())

	rec = serve(t, router, http.MethodGet, "/likeables/review/1/sentiment", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_sentiment":0}`, rec.Body.String())

	rec = serve(t, router, http.MethodGet, "/likeables/review/2/sentiment", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_sentiment":null}`, rec.Body.String())
}

func TestGetSentimentRequiresAuth(t *testing.T) {
	t.Parallel()

	rec := serve(t, newReactionRouter(newFakeLedger(), 0), http.MethodGet, "/likeables/review/1/sentiment", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCounts(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	_, err := ledger.React(t.Context(), 1, types.TargetReview, 2, enum.ReactionLike)
	require.NoError(t, err)

	router := newReactionRouter(ledger, 0)

	rec := serve(t, router, http.MethodGet, "/likeables/review?ids=2,1,2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"target_type": "review",
		"counts": [
			{"target_id": 2, "like_count": 1, "dislike_count": 0},
			{"target_id": 1, "like_count": 0, "dislike_count": 0}
		]
	}`, rec.Body.String())

	rec = serve(t, router, http.MethodGet, "/likeables/review", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, router, http.MethodGet, "/likeables/review?ids=1,x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

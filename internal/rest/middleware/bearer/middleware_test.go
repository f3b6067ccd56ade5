package bearer_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/mythril-io/mythril/internal/rest/middleware/bearer"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

var errBadToken = errors.New("bad token")

type staticVerifier map[string]int64

func (v staticVerifier) Verify(token string) (int64, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return 0, errBadToken
}

func newRouter(required bool) *bunrouter.Router {
	m := bearer.New(staticVerifier{"good": 42}, zap.NewNop())

	handler := func(w http.ResponseWriter, req bunrouter.Request) error {
		id, ok := bearer.UserID(req.Context())
		if !ok {
			_, err := w.Write([]byte("anonymous"))
			return err
		}
		_, err := w.Write([]byte(strconv.FormatInt(id, 10)))
		return err
	}

	router := bunrouter.New(bunrouter.Use(m.AsRESTMiddleware))
	if required {
		router.WithMiddleware(m.Require).GET("/", handler)
	} else {
		router.GET("/", handler)
	}
	return router
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		required bool
		status   int
		body     string
	}{
		{name: "anonymous optional", status: http.StatusOK, body: "anonymous"},
		{name: "anonymous required", required: true, status: http.StatusUnauthorized, body: `{"message":"authentication required"}`},
		{name: "valid token", header: "Bearer good", required: true, status: http.StatusOK, body: "42"},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusOK, body: "42"},
		{name: "rejected token", header: "Bearer nope", status: http.StatusUnauthorized, body: `{"message":"invalid access token"}`},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized, body: `{"message":"invalid access token"}`},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized, body: `{"message":"invalid access token"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			newRouter(tt.required).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
				assert.JSONEq(t, tt.body, rec.Body.String())
			} else if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

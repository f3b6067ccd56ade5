package reply_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mythril-io/mythril/internal/rest/reply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	require.NoError(t, reply.Error(rec, http.StatusTooManyRequests, "rate limit exceeded"))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"rate limit exceeded"}`, rec.Body.String())
}

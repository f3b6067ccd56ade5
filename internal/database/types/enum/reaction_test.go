package enum_test

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/mythril-io/mythril/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionValueValid(t *testing.T) {
	t.Parallel()

	assert.True(t, enum.ReactionLike.Valid())
	assert.True(t, enum.ReactionDislike.Valid())
	assert.False(t, enum.ReactionValue(2).Valid())
	assert.False(t, enum.ReactionValue(-1).Valid())
}

func TestSentimentJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		sentiment enum.Sentiment
		want      string
	}{
		{name: "like", sentiment: enum.SentimentLike, want: "1"},
		{name: "dislike", sentiment: enum.SentimentDislike, want: "0"},
		{name: "none", sentiment: enum.SentimentNone, want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := sonic.Marshal(struct {
				S enum.Sentiment `json:"s"`
			}{S: tt.sentiment})
			require.NoError(t, err)
			assert.JSONEq(t, `{"s":`+tt.want+`}`, string(data))

			var decoded enum.Sentiment
			require.NoError(t, decoded.UnmarshalJSON([]byte(tt.want)))
			assert.Equal(t, tt.sentiment, decoded)
		})
	}
}

func TestSentimentDistinguishesDislikeFromNone(t *testing.T) {
	t.Parallel()

	v, ok := enum.SentimentDislike.Value()
	assert.True(t, ok)
	assert.Equal(t, enum.ReactionDislike, v)

	_, ok = enum.SentimentNone.Value()
	assert.False(t, ok)
	assert.NotEqual(t, enum.SentimentNone, enum.SentimentDislike)
	assert.Equal(t, enum.SentimentLike, enum.SentimentFromValue(enum.ReactionLike))
}

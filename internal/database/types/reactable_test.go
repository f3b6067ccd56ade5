package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTargetType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already folded", input: "review", want: "review"},
		{name: "type name", input: "Review", want: "review"},
		{name: "upper case", input: "DISCUSSION", want: "discussion"},
		{name: "surrounding spaces", input: " Post ", want: "post"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeTargetType(tt.input))
		})
	}
}

func TestEntitiesAreReactable(t *testing.T) {
	t.Parallel()

	entities := []struct {
		entity Reactable
		kind   string
		id     int64
	}{
		{entity: &Review{ID: 3}, kind: TargetReview, id: 3},
		{entity: &Discussion{ID: 4}, kind: TargetDiscussion, id: 4},
		{entity: &Post{ID: 5}, kind: TargetPost, id: 5},
	}

	for _, e := range entities {
		assert.Equal(t, e.kind, e.entity.ReactableType())
		assert.Equal(t, e.id, e.entity.ReactableID())
		assert.Equal(t, e.kind, NormalizeTargetType(e.kind))
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, ErrInvalidReactionValue, ErrInvalidArgument)
	assert.ErrorIs(t, ErrUnknownTargetType, ErrInvalidArgument)
	assert.NotErrorIs(t, ErrReactionNotFound, ErrInvalidArgument)

	cause := errors.New("connection reset")
	var err error = &PersistenceError{Op: "insert", Err: cause}

	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to insert reaction: connection reset", err.Error())
}

func TestPagePaging(t *testing.T) {
	t.Parallel()

	page := &Page[int]{Page: 1, PerPage: 8, Total: 17}
	assert.Equal(t, 3, page.Pages())
	assert.True(t, page.HasNext())
	assert.False(t, page.HasPrev())

	page.Page = 3
	assert.False(t, page.HasNext())
	assert.True(t, page.HasPrev())

	empty := &Page[int]{Page: 1, PerPage: 8}
	assert.Equal(t, 0, empty.Pages())
	assert.False(t, empty.HasNext())
}

package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/mythril-io/mythril/internal/database/types/enum"
)

var (
	// ErrInvalidArgument is the parent of every caller-side validation failure.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidReactionValue is returned when a reaction value is neither like nor dislike.
	ErrInvalidReactionValue = fmt.Errorf("%w: reaction value must be 0 or 1", ErrInvalidArgument)
	// ErrUnknownTargetType is returned when a discriminator was never registered.
	ErrUnknownTargetType = fmt.Errorf("%w: unknown reactable type", ErrInvalidArgument)
	// ErrInvalidIdentifier is returned when a user or target ID is not positive.
	ErrInvalidIdentifier = fmt.Errorf("%w: identifiers must be positive", ErrInvalidArgument)
	// ErrReactionNotFound is returned when no reaction exists for an identity key.
	ErrReactionNotFound = errors.New("reaction not found")
	// ErrReactionConflict is returned when a concurrent insert already created the reaction.
	ErrReactionConflict = errors.New("reaction already exists")
	// ErrTargetNotFound is returned when a reactable entity does not exist.
	ErrTargetNotFound = errors.New("target not found")
)

// PersistenceError reports that the store rejected or failed to commit an operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s reaction: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ReactionKey is the composite identity of a reaction.
type ReactionKey struct {
	UserID     int64
	TargetType string
	TargetID   int64
}

// Reaction is a single user's sentiment toward one reactable entity.
type Reaction struct {
	UserID     int64              `bun:",pk"                json:"userId"`
	TargetType string             `bun:",pk"                json:"targetType"`
	TargetID   int64              `bun:",pk"                json:"targetId"`
	Value      enum.ReactionValue `bun:",notnull"           json:"value"`
	CreatedAt  time.Time          `bun:",notnull"           json:"createdAt"`
	UpdatedAt  time.Time          `bun:",notnull"           json:"updatedAt"`
}

// Key returns the identity key of the reaction.
func (r *Reaction) Key() ReactionKey {
	return ReactionKey{UserID: r.UserID, TargetType: r.TargetType, TargetID: r.TargetID}
}

// ReactionCount holds the like and dislike totals of one target.
type ReactionCount struct {
	TargetID     int64 `bun:"target_id"     json:"targetId"`
	LikeCount    int64 `bun:"like_count"    json:"likeCount"`
	DislikeCount int64 `bun:"dislike_count" json:"dislikeCount"`
}

// ReactionOutcome describes what a React call did to the ledger.
type ReactionOutcome string

const (
	OutcomeCreated ReactionOutcome = "created"
	OutcomeUpdated ReactionOutcome = "updated"
	OutcomeRemoved ReactionOutcome = "removed"
)

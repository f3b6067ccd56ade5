package types

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Discriminators of the entity types that accept reactions.
const (
	TargetReview     = "review"
	TargetDiscussion = "discussion"
	TargetPost       = "post"
)

// Reactable is implemented by every entity that users can like or dislike.
type Reactable interface {
	// ReactableType returns the discriminator stored in reactions.target_type.
	ReactableType() string
	// ReactableID returns the primary key of the entity.
	ReactableID() int64
}

// ReactionTally is embedded by reactable entities to receive live counts on read.
// The fields are filled by correlated subqueries and are never written.
type ReactionTally struct {
	Likes    int64 `bun:",scanonly" json:"likes"`
	Dislikes int64 `bun:",scanonly" json:"dislikes"`
}

// NormalizeTargetType returns the discriminator for a type name, such as "Review" -> "review".
// Returns an empty string if the name folds to nothing.
func NormalizeTargetType(name string) string {
	if name == "" {
		return ""
	}

	// Chained transformers hold state, so each call builds its own.
	folder := transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Space)), cases.Fold())

	result, _, err := transform.String(folder, name)
	if err != nil {
		return ""
	}
	return result
}

package enum

import "fmt"

// ReactionValue is the stored value of a reaction.
type ReactionValue int16

const (
	// ReactionDislike marks a negative reaction.
	ReactionDislike ReactionValue = 0
	// ReactionLike marks a positive reaction.
	ReactionLike ReactionValue = 1
)

// Valid reports whether the value is a like or a dislike.
func (v ReactionValue) Valid() bool {
	return v == ReactionDislike || v == ReactionLike
}

func (v ReactionValue) String() string {
	switch v {
	case ReactionDislike:
		return "Dislike"
	case ReactionLike:
		return "Like"
	default:
		return fmt.Sprintf("ReactionValue(%d)", int16(v))
	}
}

// Sentiment is a user's current reaction toward a target, including the absence of one.
type Sentiment int8

const (
	// SentimentNone means the user has not reacted.
	SentimentNone Sentiment = -1
	// SentimentDislike means the user dislikes the target.
	SentimentDislike Sentiment = 0
	// SentimentLike means the user likes the target.
	SentimentLike Sentiment = 1
)

// SentimentFromValue converts a stored reaction value into a sentiment.
func SentimentFromValue(v ReactionValue) Sentiment {
	if v == ReactionLike {
		return SentimentLike
	}
	return SentimentDislike
}

// Value returns the reaction value and whether the sentiment holds one.
func (s Sentiment) Value() (ReactionValue, bool) {
	switch s {
	case SentimentLike:
		return ReactionLike, true
	case SentimentDislike:
		return ReactionDislike, true
	case SentimentNone:
		return 0, false
	default:
		return 0, false
	}
}

func (s Sentiment) String() string {
	switch s {
	case SentimentNone:
		return "None"
	case SentimentDislike:
		return "Dislike"
	case SentimentLike:
		return "Like"
	default:
		return fmt.Sprintf("Sentiment(%d)", int8(s))
	}
}

// MarshalJSON encodes a missing sentiment as null and the others as 0 or 1.
func (s Sentiment) MarshalJSON() ([]byte, error) {
	switch s {
	case SentimentLike:
		return []byte("1"), nil
	case SentimentDislike:
		return []byte("0"), nil
	case SentimentNone:
		return []byte("null"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null, 0 or 1.
func (s *Sentiment) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		*s = SentimentNone
	case "0":
		*s = SentimentDislike
	case "1":
		*s = SentimentLike
	default:
		return fmt.Errorf("invalid sentiment %q", data)
	}
	return nil
}

package types

import (
	"errors"
	"time"
)

var ErrReviewNotFound = errors.New("review not found")

// Review is a user's written review of a game release.
type Review struct {
	ID        int64     `bun:",pk,autoincrement" json:"id"`
	Summary   string    `bun:",notnull"          json:"summary"`
	Content   string    `bun:",notnull"          json:"content"`
	Score     int       `bun:",notnull"          json:"score"`
	UserID    int64     `bun:",notnull"          json:"userId"`
	GameID    int64     `bun:",notnull"          json:"gameId"`
	ReleaseID int64     `bun:",notnull"          json:"releaseId"`
	CreatedAt time.Time `bun:",notnull"          json:"createdAt"`
	UpdatedAt time.Time `bun:",notnull"          json:"updatedAt"`

	ReactionTally
}

func (r *Review) ReactableType() string { return TargetReview }
func (r *Review) ReactableID() int64    { return r.ID }

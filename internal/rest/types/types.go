package types

import (
	"time"

	"github.com/mythril-io/mythril/internal/database/types/enum"
)

// ErrorResponse is the body of every failed JSON request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ReactRequest is the body of a reaction write.
type ReactRequest struct {
	// Value is 1 for like and 0 for dislike.
	Value *int `json:"value"`
}

// ReactionCount holds the like and dislike totals of a target.
type ReactionCount struct {
	LikeCount    int64 `json:"like_count"`
	DislikeCount int64 `json:"dislike_count"`
}

// TargetCount holds the totals of one target in a batch.
type TargetCount struct {
	TargetID     int64 `json:"target_id"`
	LikeCount    int64 `json:"like_count"`
	DislikeCount int64 `json:"dislike_count"`
}

// BatchCountResponse holds the totals of several targets of one type.
type BatchCountResponse struct {
	TargetType string        `json:"target_type"`
	Counts     []TargetCount `json:"counts"`
}

// SentimentResponse holds the caller's current reaction to a target.
// UserSentiment encodes as null when the caller has not reacted.
type SentimentResponse struct {
	UserSentiment enum.Sentiment `json:"user_sentiment"`
}

// ReactionStateResponse is returned after a reaction write.
type ReactionStateResponse struct {
	Outcome       string         `json:"outcome"`
	LikeCount     int64          `json:"like_count"`
	DislikeCount  int64          `json:"dislike_count"`
	UserSentiment enum.Sentiment `json:"user_sentiment"`
}

// Review represents a review with its live reaction totals.
type Review struct {
	ID        int64     `json:"id"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	Score     int       `json:"score"`
	UserID    int64     `json:"user_id"`
	GameID    int64     `json:"game_id"`
	ReleaseID int64     `json:"release_id"`
	Likes     int64     `json:"likes"`
	Dislikes  int64     `json:"dislikes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Discussion represents a forum thread with its live reaction totals.
type Discussion struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Body         string     `json:"body"`
	UserID       int64      `json:"user_id"`
	ViewCount    int64      `json:"view_count"`
	PostCount    int64      `json:"post_count"`
	IsPinned     bool       `json:"is_pinned"`
	IsLocked     bool       `json:"is_locked"`
	Likes        int64      `json:"likes"`
	Dislikes     int64      `json:"dislikes"`
	LastPostedAt *time.Time `json:"last_posted_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Post represents a discussion reply with its live reaction totals.
type Post struct {
	ID           int64     `json:"id"`
	Body         string    `json:"body"`
	UserID       int64     `json:"user_id"`
	DiscussionID int64     `json:"discussion_id"`
	ParentPostID *int64    `json:"parent_post_id"`
	EditCount    int64     `json:"edit_count"`
	Likes        int64     `json:"likes"`
	Dislikes     int64     `json:"dislikes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DiscussionThread is a discussion together with one page of its posts.
type DiscussionThread struct {
	Discussion Discussion `json:"discussion"`
	Posts      Page[Post] `json:"posts"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items   []T  `json:"items"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
	NextNum *int `json:"next_num"`
	PrevNum *int `json:"prev_num"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Pages   int  `json:"pages"`
	Total   int  `json:"total"`
}

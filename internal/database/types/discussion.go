package types

import (
	"errors"
	"time"
)

var (
	ErrDiscussionNotFound = errors.New("discussion not found")
	ErrPostNotFound       = errors.New("post not found")
)

// Discussion is a forum thread.
type Discussion struct {
	ID           int64      `bun:",pk,autoincrement"      json:"id"`
	Title        string     `bun:",unique,notnull"        json:"title"`
	Slug         string     `bun:",unique,notnull"        json:"slug"`
	Body         string     `bun:",notnull"               json:"body"`
	UserID       int64      `bun:",notnull"               json:"userId"`
	ViewCount    int64      `bun:",notnull,default:0"     json:"viewCount"`
	PostCount    int64      `bun:",notnull,default:0"     json:"postCount"`
	IsPinned     bool       `bun:",notnull,default:false" json:"isPinned"`
	IsLocked     bool       `bun:",notnull,default:false" json:"isLocked"`
	LastPostedAt *time.Time `bun:",nullzero"              json:"lastPostedAt,omitempty"`
	CreatedAt    time.Time  `bun:",notnull"               json:"createdAt"`
	UpdatedAt    time.Time  `bun:",notnull"               json:"updatedAt"`

	ReactionTally
}

func (d *Discussion) ReactableType() string { return TargetDiscussion }
func (d *Discussion) ReactableID() int64    { return d.ID }

// Post is a reply inside a discussion.
type Post struct {
	ID           int64     `bun:",pk,autoincrement"  json:"id"`
	Body         string    `bun:",notnull"           json:"body"`
	UserID       int64     `bun:",notnull"           json:"userId"`
	DiscussionID int64     `bun:",notnull"           json:"discussionId"`
	ParentPostID *int64    `bun:",nullzero"          json:"parentPostId,omitempty"`
	EditCount    int64     `bun:",notnull,default:0" json:"editCount"`
	CreatedAt    time.Time `bun:",notnull"           json:"createdAt"`
	UpdatedAt    time.Time `bun:",notnull"           json:"updatedAt"`

	ReactionTally
}

func (p *Post) ReactableType() string { return TargetPost }
func (p *Post) ReactableID() int64    { return p.ID }

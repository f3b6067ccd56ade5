package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// DiscussionModel handles database operations for discussions.
type DiscussionModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewDiscussion creates a new discussion model.
func NewDiscussion(db *bun.DB, logger *zap.Logger) *DiscussionModel {
	return &DiscussionModel{
		db:     db,
		logger: logger.Named("db_discussion"),
	}
}

// TargetTable returns the table discussions are stored in.
func (r *DiscussionModel) TargetTable() string {
	return "discussions"
}

// Exists reports whether a discussion exists.
func (r *DiscussionModel) Exists(ctx context.Context, id int64) (bool, error) {
	return existsByID(ctx, r.db, (*types.Discussion)(nil), id)
}

// GetByID retrieves a discussion with its live reaction totals.
func (r *DiscussionModel) GetByID(ctx context.Context, id int64) (*types.Discussion, error) {
	var discussion types.Discussion
	err := WithReactionCounts(r.db.NewSelect().Model(&discussion), types.TargetDiscussion).
		Where("discussion.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrDiscussionNotFound
		}
		return nil, fmt.Errorf("failed to get discussion: %w", err)
	}
	return &discussion, nil
}

// PostModel handles database operations for discussion posts.
type PostModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPost creates a new post model.
func NewPost(db *bun.DB, logger *zap.Logger) *PostModel {
	return &PostModel{
		db:     db,
		logger: logger.Named("db_post"),
	}
}

// TargetTable returns the table posts are stored in.
func (r *PostModel) TargetTable() string {
	return "posts"
}

// Exists reports whether a post exists.
func (r *PostModel) Exists(ctx context.Context, id int64) (bool, error) {
	return existsByID(ctx, r.db, (*types.Post)(nil), id)
}

// GetByID retrieves a post with its live reaction totals.
func (r *PostModel) GetByID(ctx context.Context, id int64) (*types.Post, error) {
	var post types.Post
	err := WithReactionCounts(r.db.NewSelect().Model(&post), types.TargetPost).
		Where("post.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// ListByDiscussion returns one page of the posts of a discussion in posting order.
func (r *PostModel) ListByDiscussion(
	ctx context.Context, discussionID int64, page, perPage int,
) (*types.Page[*types.Post], error) {
	page, perPage = normalizePage(page, perPage)

	var posts []*types.Post
	total, err := WithReactionCounts(r.db.NewSelect().Model(&posts), types.TargetPost).
		Where("post.discussion_id = ?", discussionID).
		Order("post.created_at ASC", "post.id ASC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		ScanAndCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return &types.Page[*types.Post]{
		Items:   posts,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	}, nil
}

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ReviewModel handles database operations for reviews.
type ReviewModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewReview creates a new review model.
func NewReview(db *bun.DB, logger *zap.Logger) *ReviewModel {
	return &ReviewModel{
		db:     db,
		logger: logger.Named("db_review"),
	}
}

// TargetTable returns the table reviews are stored in.
func (r *ReviewModel) TargetTable() string {
	return "reviews"
}

// Exists reports whether a review exists.
func (r *ReviewModel) Exists(ctx context.Context, id int64) (bool, error) {
	return existsByID(ctx, r.db, (*types.Review)(nil), id)
}

// GetByID retrieves a review with its live reaction totals.
func (r *ReviewModel) GetByID(ctx context.Context, id int64) (*types.Review, error) {
	var review types.Review
	err := WithReactionCounts(r.db.NewSelect().Model(&review), types.TargetReview).
		Where("review.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// List returns one page of the newest reviews.
func (r *ReviewModel) List(ctx context.Context, page, perPage int) (*types.Page[*types.Review], error) {
	return r.listWhere(ctx, page, perPage, "", 0)
}

// ListByGame returns one page of the reviews of a game, newest first.
func (r *ReviewModel) ListByGame(ctx context.Context, gameID int64, page, perPage int) (*types.Page[*types.Review], error) {
	return r.listWhere(ctx, page, perPage, "review.game_id = ?", gameID)
}

// ListByUser returns one page of the reviews written by a user, newest first.
func (r *ReviewModel) ListByUser(ctx context.Context, userID int64, page, perPage int) (*types.Page[*types.Review], error) {
	return r.listWhere(ctx, page, perPage, "review.user_id = ?", userID)
}

func (r *ReviewModel) listWhere(
	ctx context.Context, page, perPage int, where string, arg int64,
) (*types.Page[*types.Review], error) {
	page, perPage = normalizePage(page, perPage)

	var reviews []*types.Review
	q := WithReactionCounts(r.db.NewSelect().Model(&reviews), types.TargetReview).
		Order("review.created_at DESC", "review.id DESC").
		Limit(perPage).
		Offset((page - 1) * perPage)
	if where != "" {
		q = q.Where(where, arg)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return &types.Page[*types.Review]{
		Items:   reviews,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	}, nil
}

// normalizePage clamps paging arguments to usable values. The page is
// capped so the offset (page-1)*perPage never overflows.
func normalizePage(page, perPage int) (int, int) {
	if perPage < 1 {
		perPage = 1
	}
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt / perPage; page > maxPage {
		page = maxPage
	}
	return page, perPage
}

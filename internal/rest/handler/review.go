package handler

import (
	"context"
	"net/http"

	"github.com/mythril-io/mythril/internal/database/dbretry"
	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/mythril-io/mythril/internal/rest/convert"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// ReviewReader is the part of the review model the handlers use.
type ReviewReader interface {
	GetByID(ctx context.Context, id int64) (*types.Review, error)
	List(ctx context.Context, page, perPage int) (*types.Page[*types.Review], error)
	ListByGame(ctx context.Context, gameID int64, page, perPage int) (*types.Page[*types.Review], error)
	ListByUser(ctx context.Context, userID int64, page, perPage int) (*types.Page[*types.Review], error)
}

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	reviews ReviewReader
	perPage int
	logger  *zap.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(reviews ReviewReader, perPage int, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		perPage: perPage,
		logger:  logger.Named("review_handler"),
	}
}

// GetReview returns a review with its live reaction totals.
func (h *ReviewHandler) GetReview(w http.ResponseWriter, req bunrouter.Request) error {
	id, err := parseID(req.Param("id"))
	if err != nil {
		return writeError(w, h.logger, err)
	}

	review, err := dbretry.Operation(req.Context(), func(ctx context.Context) (*types.Review, error) {
		return h.reviews.GetByID(ctx, id)
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, convert.Review(review))
}

// ListReviews returns one page of the newest reviews.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, req bunrouter.Request) error {
	page := pageOf(req)
	return h.writePage(w, req, func(ctx context.Context) (*types.Page[*types.Review], error) {
		return h.reviews.List(ctx, page, h.perPage)
	})
}

// ListGameReviews returns one page of the reviews of a game.
func (h *ReviewHandler) ListGameReviews(w http.ResponseWriter, req bunrouter.Request) error {
	gameID, err := parseID(req.Param("id"))
	if err != nil {
		return writeError(w, h.logger, err)
	}

	page := pageOf(req)
	return h.writePage(w, req, func(ctx context.Context) (*types.Page[*types.Review], error) {
		return h.reviews.ListByGame(ctx, gameID, page, h.perPage)
	})
}

// ListUserReviews returns one page of the reviews written by a user.
func (h *ReviewHandler) ListUserReviews(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := parseID(req.Param("id"))
	if err != nil {
		return writeError(w, h.logger, err)
	}

	page := pageOf(req)
	return h.writePage(w, req, func(ctx context.Context) (*types.Page[*types.Review], error) {
		return h.reviews.ListByUser(ctx, userID, page, h.perPage)
	})
}

func (h *ReviewHandler) writePage(
	w http.ResponseWriter, req bunrouter.Request, fetch func(context.Context) (*types.Page[*types.Review], error),
) error {
	page, err := dbretry.Operation(req.Context(), fetch)
	if err != nil {
		return writeError(w, h.logger, err)
	}
	return writeJSON(w, http.StatusOK, convert.Page(page, convert.Review))
}

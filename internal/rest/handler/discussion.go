package handler

import (
	"context"
	"net/http"

	"github.com/mythril-io/mythril/internal/database/dbretry"
	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/mythril-io/mythril/internal/rest/convert"
	restTypes "github.com/mythril-io/mythril/internal/rest/types"
	"github.com/sourcegraph/conc/pool"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// DiscussionReader is the part of the discussion model the handlers use.
type DiscussionReader interface {
	GetByID(ctx context.Context, id int64) (*types.Discussion, error)
}

// PostReader is the part of the post model the handlers use.
type PostReader interface {
	GetByID(ctx context.Context, id int64) (*types.Post, error)
	ListByDiscussion(ctx context.Context, discussionID int64, page, perPage int) (*types.Page[*types.Post], error)
}

// DiscussionHandler handles discussion and post endpoints.
type DiscussionHandler struct {
	discussions DiscussionReader
	posts       PostReader
	perPage     int
	logger      *zap.Logger
}

// NewDiscussionHandler creates a new discussion handler.
func NewDiscussionHandler(
	discussions DiscussionReader, posts PostReader, perPage int, logger *zap.Logger,
) *DiscussionHandler {
	return &DiscussionHandler{
		discussions: discussions,
		posts:       posts,
		perPage:     perPage,
		logger:      logger.Named("discussion_handler"),
	}
}

// GetDiscussion returns a discussion with its live reaction totals.
func (h *DiscussionHandler) GetDiscussion(w http.ResponseWriter, req bunrouter.Request) error {
	id, err := parseID(req.Param("id"))
	if err != nil {
		return writeError(w, h.logger, err)
	}

	discussion, err := dbretry.Operation(req.Context(), func(ctx context.Context) (*types.Discussion, error) {
		return h.discussions.GetByID(ctx, id)
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, convert.Discussion(discussion))
}

// GetThread returns a discussion together with one page of its posts.
// Both are loaded concurrently.
func (h *DiscussionHandler) GetThread(w http.ResponseWriter, req bunrouter.Request) error {
	id, err := parseID(req.Param("id"))
	if err != nil {
		return writeError(w, h.logger, err)
	}
	page := pageOf(req)

	var (
		discussion *types.Discussion
		posts      *types.Page[*types.Post]
	)

	p := pool.New().WithContext(req.Context()).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		var err error
		discussion, err = dbretry.Operation(ctx, func(ctx context.Context) (*types.Discussion, error) {
			return h.discussions.GetByID(ctx, id)
		})
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		posts, err = dbretry.Operation(ctx, func(ctx context.Context) (*types.Page[*types.Post], error) {
			return h.posts.ListByDiscussion(ctx, id, page, h.perPage)
		})
		return err
	})
	if err := p.Wait(); err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, restTypes.DiscussionThread{
		Discussion: convert.Discussion(discussion),
		Posts:      convert.Page(posts, convert.Post),
	})
}

// GetPost returns a post with its live reaction totals.
func (h *DiscussionHandler) GetPost(w http.ResponseWriter, req bunrouter.Request) error {
	id, err := parseID(req.Param("id"))
	if err != nil {
		return writeError(w, h.logger, err)
	}

	post, err := dbretry.Operation(req.Context(), func(ctx context.Context) (*types.Post, error) {
		return h.posts.GetByID(ctx, id)
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, convert.Post(post))
}

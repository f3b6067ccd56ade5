package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/mythril-io/mythril/internal/rest/handler"
	restTypes "github.com/mythril-io/mythril/internal/rest/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

type fakeReviews struct {
	reviews []*types.Review
}

func (f *fakeReviews) GetByID(_ context.Context, id int64) (*types.Review, error) {
	for _, review := range f.reviews {
		if review.ID == id {
			return review, nil
		}
	}
	return nil, types.ErrReviewNotFound
}

func (f *fakeReviews) List(_ context.Context, page, perPage int) (*types.Page[*types.Review], error) {
	return paginate(f.reviews, page, perPage), nil
}

func (f *fakeReviews) ListByGame(_ context.Context, gameID int64, page, perPage int) (*types.Page[*types.Review], error) {
	var matched []*types.Review
	for _, review := range f.reviews {
		if review.GameID == gameID {
			matched = append(matched, review)
		}
	}
	return paginate(matched, page, perPage), nil
}

func (f *fakeReviews) ListByUser(_ context.Context, userID int64, page, perPage int) (*types.Page[*types.Review], error) {
	var matched []*types.Review
	for _, review := range f.reviews {
		if review.UserID == userID {
			matched = append(matched, review)
		}
	}
	return paginate(matched, page, perPage), nil
}

type fakeDiscussions struct {
	discussions map[int64]*types.Discussion
	posts       []*types.Post
}

func (f *fakeDiscussions) GetByID(_ context.Context, id int64) (*types.Discussion, error) {
	if discussion, ok := f.discussions[id]; ok {
		return discussion, nil
	}
	return nil, types.ErrDiscussionNotFound
}

type fakePosts struct {
	*fakeDiscussions
}

func (f fakePosts) GetByID(_ context.Context, id int64) (*types.Post, error) {
	for _, post := range f.posts {
		if post.ID == id {
			return post, nil
		}
	}
	return nil, types.ErrPostNotFound
}

func (f fakePosts) ListByDiscussion(
	_ context.Context, discussionID int64, page, perPage int,
) (*types.Page[*types.Post], error) {
	var matched []*types.Post
	for _, post := range f.posts {
		if post.DiscussionID == discussionID {
			matched = append(matched, post)
		}
	}
	return paginate(matched, page, perPage), nil
}

func paginate[T any](items []T, page, perPage int) *types.Page[T] {
	start := min((page-1)*perPage, len(items))
	end := min(start+perPage, len(items))
	return &types.Page[T]{Items: items[start:end], Page: page, PerPage: perPage, Total: len(items)}
}

func newContentRouter() *bunrouter.Router {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	reviews := &fakeReviews{}
	for id := int64(1); id <= 10; id++ {
		reviews.reviews = append(reviews.reviews, &types.Review{
			ID:            id,
			Summary:       "summary",
			UserID:        id%2 + 1,
			GameID:        7,
			CreatedAt:     now,
			ReactionTally: types.ReactionTally{Likes: id, Dislikes: 1},
		})
	}

	discussions := &fakeDiscussions{
		discussions: map[int64]*types.Discussion{
			3: {ID: 3, Title: "Patch notes", Slug: "patch-notes", CreatedAt: now},
		},
		posts: []*types.Post{
			{ID: 11, DiscussionID: 3, Body: "first", ReactionTally: types.ReactionTally{Likes: 4}},
			{ID: 12, DiscussionID: 3, Body: "second"},
		},
	}

	reviewHandler := handler.NewReviewHandler(reviews, 8, zap.NewNop())
	discussionHandler := handler.NewDiscussionHandler(discussions, fakePosts{discussions}, 20, zap.NewNop())

	router := bunrouter.New()
	router.GET("/reviews", reviewHandler.ListReviews)
	router.GET("/reviews/page/:page", reviewHandler.ListReviews)
	router.GET("/reviews/:id", reviewHandler.GetReview)
	router.GET("/reviews/game/:id", reviewHandler.ListGameReviews)
	router.GET("/reviews/game/:id/page/:page", reviewHandler.ListGameReviews)
	router.GET("/reviews/user/:id", reviewHandler.ListUserReviews)
	router.GET("/reviews/user/:id/page/:page", reviewHandler.ListUserReviews)
	router.GET("/discussions/:id", discussionHandler.GetDiscussion)
	router.GET("/discussions/:id/posts", discussionHandler.GetThread)
	router.GET("/posts/:id", discussionHandler.GetPost)
	return router
}

func TestGetReview(t *testing.T) {
	t.Parallel()

	router := newContentRouter()

	rec := serve(t, router, http.MethodGet, "/reviews/4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	review := decode[restTypes.Review](t, rec)
	assert.Equal(t, int64(4), review.ID)
	assert.Equal(t, int64(4), review.Likes)
	assert.Equal(t, int64(1), review.Dislikes)

	rec = serve(t, router, http.MethodGet, "/reviews/40", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"review not found"}`, rec.Body.String())
}

func TestListGameReviewsPaginates(t *testing.T) {
	t.Parallel()

	router := newContentRouter()

	rec := serve(t, router, http.MethodGet, "/reviews/game/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[restTypes.Page[restTypes.Review]](t, rec)
	assert.Len(t, page.Items, 8)
	assert.Equal(t, 2, page.Pages)
	assert.True(t, page.HasNext)
	require.NotNil(t, page.NextNum)
	assert.Equal(t, 2, *page.NextNum)

	rec = serve(t, router, http.MethodGet, "/reviews/game/7?page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[restTypes.Page[restTypes.Review]](t, rec)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)

	rec = serve(t, router, http.MethodGet, "/reviews/game/7?page=bogus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[restTypes.Page[restTypes.Review]](t, rec)
	assert.Equal(t, 1, page.Page)
}

func TestListUserReviews(t *testing.T) {
	t.Parallel()

	rec := serve(t, newContentRouter(), http.MethodGet, "/reviews/user/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[restTypes.Page[restTypes.Review]](t, rec)
	assert.Equal(t, 5, page.Total)
	for _, review := range page.Items {
		assert.Equal(t, int64(1), review.UserID)
	}
}

func TestGetThread(t *testing.T) {
	t.Parallel()

	router := newContentRouter()

	rec := serve(t, router, http.MethodGet, "/discussions/3/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	thread := decode[restTypes.DiscussionThread](t, rec)
	assert.Equal(t, "patch-notes", thread.Discussion.Slug)
	require.Len(t, thread.Posts.Items, 2)
	assert.Equal(t, int64(4), thread.Posts.Items[0].Likes)

	rec = serve(t, router, http.MethodGet, "/discussions/9/posts", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDiscussionAndPost(t *testing.T) {
	t.Parallel()

	router := newContentRouter()

	rec := serve(t, router, http.MethodGet, "/discussions/3", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, router, http.MethodGet, "/posts/12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	post := decode[restTypes.Post](t, rec)
	assert.Equal(t, "second", post.Body)

	rec = serve(t, router, http.MethodGet, "/posts/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, router, http.MethodGet, "/posts/-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPageInRoutePath(t *testing.T) {
	t.Parallel()

	router := newContentRouter()

	rec := serve(t, router, http.MethodGet, "/reviews/page/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[restTypes.Page[restTypes.Review]](t, rec)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 2)

	rec = serve(t, router, http.MethodGet, "/reviews/game/7/page/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[restTypes.Page[restTypes.Review]](t, rec)
	assert.Equal(t, 2, page.Page)
	assert.True(t, page.HasPrev)

	rec = serve(t, router, http.MethodGet, "/reviews/user/2/page/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[restTypes.Page[restTypes.Review]](t, rec)
	assert.Equal(t, 5, page.Total)

	rec = serve(t, router, http.MethodGet, "/reviews/page/0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[restTypes.Page[restTypes.Review]](t, rec)
	assert.Equal(t, 1, page.Page)
}

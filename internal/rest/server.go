package rest

import (
	"net/http"

	"github.com/mythril-io/mythril/internal/database"
	"github.com/mythril-io/mythril/internal/rest/handler"
	"github.com/mythril-io/mythril/internal/rest/middleware/bearer"
	"github.com/mythril-io/mythril/internal/rest/middleware/ratelimit"
	"github.com/mythril-io/mythril/internal/rest/middleware/requestlog"
	"github.com/mythril-io/mythril/internal/setup/config"
	"github.com/redis/rueidis"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Server implements the REST API service.
type Server struct {
	reactionHandler   *handler.ReactionHandler
	reviewHandler     *handler.ReviewHandler
	discussionHandler *handler.DiscussionHandler
}

// NewServer creates a new REST API server.
func NewServer(
	db database.Client, limiterClient rueidis.Client, verifier bearer.Verifier,
	logger *zap.Logger, config *config.APIConfig,
) (http.Handler, error) {
	server := &Server{
		reactionHandler: handler.NewReactionHandler(db.Service().Reaction(), logger),
		reviewHandler: handler.NewReviewHandler(
			db.Model().Review(), config.Pagination.ReviewsPerPage, logger,
		),
		discussionHandler: handler.NewDiscussionHandler(
			db.Model().Discussion(), db.Model().Post(), config.Pagination.PostsPerPage, logger,
		),
	}

	return server.routes(
		requestlog.New(logger),
		bearer.New(verifier, logger),
		ratelimit.New(limiterClient, &config.RateLimit, logger),
	), nil
}

// routes registers every endpoint under /v1.
func (s *Server) routes(
	requestLog *requestlog.Middleware, auth *bearer.Middleware, limiter *ratelimit.Middleware,
) http.Handler {
	router := bunrouter.New()

	router.Use(
		requestLog.AsRESTMiddleware,
		auth.AsRESTMiddleware,
	).WithGroup("/v1", func(g *bunrouter.Group) {
		g.GET("/likeables/:type", s.reactionHandler.GetCounts)
		g.GET("/likeables/:type/:id", s.reactionHandler.GetCount)

		g.GET("/reviews", s.reviewHandler.ListReviews)
		g.GET("/reviews/page/:page", s.reviewHandler.ListReviews)
		g.GET("/reviews/:id", s.reviewHandler.GetReview)
		g.GET("/reviews/game/:id", s.reviewHandler.ListGameReviews)
		g.GET("/reviews/game/:id/page/:page", s.reviewHandler.ListGameReviews)
		g.GET("/reviews/user/:id", s.reviewHandler.ListUserReviews)
		g.GET("/reviews/user/:id/page/:page", s.reviewHandler.ListUserReviews)

		g.GET("/discussions/:id", s.discussionHandler.GetDiscussion)
		g.GET("/discussions/:id/posts", s.discussionHandler.GetThread)
		g.GET("/posts/:id", s.discussionHandler.GetPost)

		authed := g.Use(auth.Require)
		authed.GET("/likeables/:type/:id/sentiment", s.reactionHandler.GetSentiment)

		writes := authed.Use(limiter.AsRESTMiddleware)
		writes.POST("/likeables/:type/:id", s.reactionHandler.React)
		writes.DELETE("/likeables/:type/:id", s.reactionHandler.Remove)
	})

	return router
}

package database

import (
	"github.com/mythril-io/mythril/internal/database/models"
	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	user       *models.UserModel
	review     *models.ReviewModel
	discussion *models.DiscussionModel
	post       *models.PostModel
	reaction   *models.ReactionModel
	reactables *models.ReactableRegistry
}

// NewRepository creates a new repository instance with all models.
// Every entity type that accepts reactions is registered here.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	repo := &Repository{
		user:       models.NewUser(db, logger),
		review:     models.NewReview(db, logger),
		discussion: models.NewDiscussion(db, logger),
		post:       models.NewPost(db, logger),
		reaction:   models.NewReaction(db, logger),
		reactables: models.NewReactableRegistry(),
	}

	repo.reactables.Register(types.TargetReview, repo.review)
	repo.reactables.Register(types.TargetDiscussion, repo.discussion)
	repo.reactables.Register(types.TargetPost, repo.post)

	return repo
}

// User returns the user model repository.
func (r *Repository) User() *models.UserModel {
	return r.user
}

// Review returns the review model repository.
func (r *Repository) Review() *models.ReviewModel {
	return r.review
}

// Discussion returns the discussion model repository.
func (r *Repository) Discussion() *models.DiscussionModel {
	return r.discussion
}

// Post returns the post model repository.
func (r *Repository) Post() *models.PostModel {
	return r.post
}

// Reaction returns the reaction model repository.
func (r *Repository) Reaction() *models.ReactionModel {
	return r.reaction
}

// Reactables returns the registry of entity types that accept reactions.
func (r *Repository) Reactables() *models.ReactableRegistry {
	return r.reactables
}

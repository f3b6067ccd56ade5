package database

import (
	"github.com/mythril-io/mythril/internal/database/service"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	reaction *service.ReactionService
}

// NewService creates a new service instance with all services.
func NewService(repository *Repository, logger *zap.Logger) *Service {
	return &Service{
		reaction: service.NewReaction(repository.Reaction(), repository.Reactables(), logger),
	}
}

// Reaction returns the reaction service.
func (s *Service) Reaction() *service.ReactionService {
	return s.reaction
}

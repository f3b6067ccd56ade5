package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mythril-io/mythril/internal/database/models"
	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/mythril-io/mythril/internal/database/types/enum"
	"go.uber.org/zap"
)

// MaxBatchTargets is the largest number of targets CountMany accepts.
const MaxBatchTargets = 50

// ErrTooManyTargets is returned when a batch count asks for too many targets.
var ErrTooManyTargets = fmt.Errorf("%w: at most %d targets per batch", types.ErrInvalidArgument, MaxBatchTargets)

// ReactionService handles the like and dislike ledger.
type ReactionService struct {
	store    models.ReactionStore
	registry *models.ReactableRegistry
	logger   *zap.Logger
}

// NewReaction creates a new reaction service.
func NewReaction(store models.ReactionStore, registry *models.ReactableRegistry, logger *zap.Logger) *ReactionService {
	return &ReactionService{
		store:    store,
		registry: registry,
		logger:   logger.Named("reaction_service"),
	}
}

// React records a user's like or dislike of a target.
//
// A first reaction is created. Repeating the stored value removes the
// reaction, and the opposite value replaces it in place. The whole
// read-decide-write sequence runs in one transaction.
func (s *ReactionService) React(
	ctx context.Context, userID int64, targetType string, targetID int64, value enum.ReactionValue,
) (types.ReactionOutcome, error) {
	if !value.Valid() {
		return "", types.ErrInvalidReactionValue
	}
	key := types.ReactionKey{UserID: userID, TargetType: targetType, TargetID: targetID}
	if err := s.validateKey(key); err != nil {
		return "", err
	}

	var outcome types.ReactionOutcome
	err := s.store.WithTx(ctx, func(ctx context.Context, store models.ReactionStore) error {
		existing, err := store.Find(ctx, key)
		switch {
		case errors.Is(err, types.ErrReactionNotFound):
			err = store.Insert(ctx, &types.Reaction{
				UserID:     userID,
				TargetType: targetType,
				TargetID:   targetID,
				Value:      value,
			})
			if err != nil {
				return persistenceError("insert", err)
			}
			outcome = types.OutcomeCreated

		case err != nil:
			return persistenceError("find", err)

		case existing.Value == value:
			if err := store.Delete(ctx, key); err != nil {
				return persistenceError("delete", err)
			}
			outcome = types.OutcomeRemoved

		default:
			if err := store.UpdateValue(ctx, key, value); err != nil {
				return persistenceError("update", err)
			}
			outcome = types.OutcomeUpdated
		}
		return nil
	})
	if err != nil {
		return "", persistenceError("commit", err)
	}

	s.logger.Debug("Recorded reaction",
		zap.Int64("userID", userID),
		zap.String("targetType", targetType),
		zap.Int64("targetID", targetID),
		zap.Stringer("value", value),
		zap.String("outcome", string(outcome)))

	return outcome, nil
}

// Remove deletes a user's reaction to a target.
func (s *ReactionService) Remove(ctx context.Context, userID int64, targetType string, targetID int64) error {
	key := types.ReactionKey{UserID: userID, TargetType: targetType, TargetID: targetID}
	if err := s.validateKey(key); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, store models.ReactionStore) error {
		if err := store.Delete(ctx, key); err != nil {
			return persistenceError("delete", err)
		}
		return nil
	})
	if err != nil {
		return persistenceError("commit", err)
	}

	s.logger.Debug("Removed reaction",
		zap.Int64("userID", userID),
		zap.String("targetType", targetType),
		zap.Int64("targetID", targetID))

	return nil
}

// GetCount returns the current like and dislike totals of a target.
func (s *ReactionService) GetCount(ctx context.Context, targetType string, targetID int64) (*types.ReactionCount, error) {
	if err := s.validateTarget(targetType, targetID); err != nil {
		return nil, err
	}

	count, err := s.store.Count(ctx, targetType, targetID)
	if err != nil {
		return nil, persistenceError("count", err)
	}
	return count, nil
}

// CountMany returns the totals of up to MaxBatchTargets targets of one type.
func (s *ReactionService) CountMany(
	ctx context.Context, targetType string, targetIDs []int64,
) (map[int64]*types.ReactionCount, error) {
	if len(targetIDs) > MaxBatchTargets {
		return nil, ErrTooManyTargets
	}
	for _, id := range targetIDs {
		if err := s.validateTarget(targetType, id); err != nil {
			return nil, err
		}
	}

	counts, err := s.store.CountMany(ctx, targetType, targetIDs)
	if err != nil {
		return nil, persistenceError("count", err)
	}
	return counts, nil
}

// GetUserSentiment returns the user's current reaction to a target, or
// enum.SentimentNone when the user has not reacted.
func (s *ReactionService) GetUserSentiment(
	ctx context.Context, userID int64, targetType string, targetID int64,
) (enum.Sentiment, error) {
	key := types.ReactionKey{UserID: userID, TargetType: targetType, TargetID: targetID}
	if err := s.validateKey(key); err != nil {
		return enum.SentimentNone, err
	}

	reaction, err := s.store.Find(ctx, key)
	if err != nil {
		if errors.Is(err, types.ErrReactionNotFound) {
			return enum.SentimentNone, nil
		}
		return enum.SentimentNone, persistenceError("find", err)
	}
	return enum.SentimentFromValue(reaction.Value), nil
}

// ReactionsOf returns every reaction attached to an entity.
func (s *ReactionService) ReactionsOf(ctx context.Context, target types.Reactable) ([]*types.Reaction, error) {
	if err := s.validateTarget(target.ReactableType(), target.ReactableID()); err != nil {
		return nil, err
	}

	reactions, err := s.store.ListByTarget(ctx, target.ReactableType(), target.ReactableID())
	if err != nil {
		return nil, persistenceError("list", err)
	}
	return reactions, nil
}

// TargetExists reports whether the target of a reaction exists.
func (s *ReactionService) TargetExists(ctx context.Context, targetType string, targetID int64) (bool, error) {
	if err := s.validateTarget(targetType, targetID); err != nil {
		return false, err
	}

	exists, err := s.registry.Exists(ctx, targetType, targetID)
	if err != nil {
		return false, fmt.Errorf("failed to look up %s %d: %w", targetType, targetID, err)
	}
	return exists, nil
}

// validateKey checks the identifiers and discriminator of a reaction key.
func (s *ReactionService) validateKey(key types.ReactionKey) error {
	if key.UserID <= 0 {
		return types.ErrInvalidIdentifier
	}
	return s.validateTarget(key.TargetType, key.TargetID)
}

// validateTarget checks a target identifier and that its discriminator is registered.
func (s *ReactionService) validateTarget(targetType string, targetID int64) error {
	if !s.registry.Has(targetType) {
		return types.ErrUnknownTargetType
	}
	if targetID <= 0 {
		return types.ErrInvalidIdentifier
	}
	return nil
}

// persistenceError wraps a store failure unless it is already a ledger error.
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrReactionNotFound) {
		return types.ErrReactionNotFound
	}

	var perr *types.PersistenceError
	if errors.As(err, &perr) {
		return err
	}
	return &types.PersistenceError{Op: op, Err: err}
}

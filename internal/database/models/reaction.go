package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/mythril-io/mythril/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ReactionStore is the persistence contract the reaction ledger runs on.
type ReactionStore interface {
	// WithTx runs fn inside a single transaction with a store bound to it.
	WithTx(ctx context.Context, fn func(ctx context.Context, store ReactionStore) error) error
	// Find returns the reaction for a key or types.ErrReactionNotFound.
	Find(ctx context.Context, key types.ReactionKey) (*types.Reaction, error)
	// Insert creates a reaction or returns types.ErrReactionConflict if one already exists.
	Insert(ctx context.Context, reaction *types.Reaction) error
	// UpdateValue changes the value of an existing reaction.
	UpdateValue(ctx context.Context, key types.ReactionKey, value enum.ReactionValue) error
	// Delete removes a reaction.
	Delete(ctx context.Context, key types.ReactionKey) error
	// Count returns the like and dislike totals of one target.
	Count(ctx context.Context, targetType string, targetID int64) (*types.ReactionCount, error)
	// CountMany returns the totals of several targets of one type.
	CountMany(ctx context.Context, targetType string, targetIDs []int64) (map[int64]*types.ReactionCount, error)
	// ListByTarget returns every reaction attached to a target.
	ListByTarget(ctx context.Context, targetType string, targetID int64) ([]*types.Reaction, error)
}

// ReactionModel handles database operations for reactions.
type ReactionModel struct {
	db     bun.IDB
	logger *zap.Logger
}

// NewReaction creates a new reaction model.
func NewReaction(db *bun.DB, logger *zap.Logger) *ReactionModel {
	return &ReactionModel{
		db:     db,
		logger: logger.Named("db_reaction"),
	}
}

// WithTx runs fn in a transaction. Nested calls reuse the outer transaction.
func (r *ReactionModel) WithTx(ctx context.Context, fn func(ctx context.Context, store ReactionStore) error) error {
	if _, ok := r.db.(bun.Tx); ok {
		return fn(ctx, r)
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &ReactionModel{db: tx, logger: r.logger})
	})
}

// Find retrieves the reaction stored under a key.
func (r *ReactionModel) Find(ctx context.Context, key types.ReactionKey) (*types.Reaction, error) {
	var reaction types.Reaction
	err := r.db.NewSelect().
		Model(&reaction).
		Where("user_id = ?", key.UserID).
		Where("target_type = ?", key.TargetType).
		Where("target_id = ?", key.TargetID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrReactionNotFound
		}
		return nil, fmt.Errorf("failed to get reaction: %w", err)
	}
	return &reaction, nil
}

// Insert creates a new reaction. A concurrent insert of the same key is not
// overwritten and is reported as types.ErrReactionConflict.
func (r *ReactionModel) Insert(ctx context.Context, reaction *types.Reaction) error {
	now := time.Now()
	reaction.CreatedAt = now
	reaction.UpdatedAt = now

	result, err := r.db.NewInsert().
		Model(reaction).
		On("CONFLICT (user_id, target_type, target_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert reaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return types.ErrReactionConflict
	}

	r.logger.Debug("Inserted reaction",
		zap.Int64("userID", reaction.UserID),
		zap.String("targetType", reaction.TargetType),
		zap.Int64("targetID", reaction.TargetID),
		zap.Stringer("value", reaction.Value))

	return nil
}

// UpdateValue changes the value of an existing reaction in place.
func (r *ReactionModel) UpdateValue(ctx context.Context, key types.ReactionKey, value enum.ReactionValue) error {
	result, err := r.db.NewUpdate().
		Model((*types.Reaction)(nil)).
		Set("value = ?", value).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", key.UserID).
		Where("target_type = ?", key.TargetType).
		Where("target_id = ?", key.TargetID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update reaction: %w", err)
	}

	return requireAffected(result)
}

// Delete removes the reaction stored under a key.
func (r *ReactionModel) Delete(ctx context.Context, key types.ReactionKey) error {
	result, err := r.db.NewDelete().
		Model((*types.Reaction)(nil)).
		Where("user_id = ?", key.UserID).
		Where("target_type = ?", key.TargetType).
		Where("target_id = ?", key.TargetID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete reaction: %w", err)
	}

	return requireAffected(result)
}

// Count returns the like and dislike totals of one target.
func (r *ReactionModel) Count(ctx context.Context, targetType string, targetID int64) (*types.ReactionCount, error) {
	count := types.ReactionCount{TargetID: targetID}
	err := r.db.NewSelect().
		Model((*types.Reaction)(nil)).
		ColumnExpr("COUNT(*) FILTER (WHERE value = ?) AS like_count", enum.ReactionLike).
		ColumnExpr("COUNT(*) FILTER (WHERE value = ?) AS dislike_count", enum.ReactionDislike).
		Where("target_type = ?", targetType).
		Where("target_id = ?", targetID).
		Scan(ctx, &count.LikeCount, &count.DislikeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count reactions: %w", err)
	}
	return &count, nil
}

// CountMany returns the totals of several targets of one type. Targets
// without reactions are present with zero counts.
func (r *ReactionModel) CountMany(
	ctx context.Context, targetType string, targetIDs []int64,
) (map[int64]*types.ReactionCount, error) {
	result := make(map[int64]*types.ReactionCount, len(targetIDs))
	for _, id := range targetIDs {
		result[id] = &types.ReactionCount{TargetID: id}
	}
	if len(targetIDs) == 0 {
		return result, nil
	}

	var counts []types.ReactionCount
	err := r.db.NewSelect().
		Model((*types.Reaction)(nil)).
		Column("target_id").
		ColumnExpr("COUNT(*) FILTER (WHERE value = ?) AS like_count", enum.ReactionLike).
		ColumnExpr("COUNT(*) FILTER (WHERE value = ?) AS dislike_count", enum.ReactionDislike).
		Where("target_type = ?", targetType).
		Where("target_id IN (?)", bun.In(targetIDs)).
		Group("target_id").
		Scan(ctx, &counts)
	if err != nil {
		return nil, fmt.Errorf("failed to count reactions: %w", err)
	}

	for i := range counts {
		result[counts[i].TargetID] = &counts[i]
	}
	return result, nil
}

// ListByTarget returns every reaction attached to a target, newest first.
func (r *ReactionModel) ListByTarget(ctx context.Context, targetType string, targetID int64) ([]*types.Reaction, error) {
	var reactions []*types.Reaction
	err := r.db.NewSelect().
		Model(&reactions).
		Where("target_type = ?", targetType).
		Where("target_id = ?", targetID).
		Order("updated_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return reactions, nil
}

// ListOrphans returns reactions whose target row no longer exists or whose
// discriminator has no registered table. The tables map is keyed by discriminator.
func (r *ReactionModel) ListOrphans(
	ctx context.Context, tables map[string]string, limit int,
) ([]*types.Reaction, error) {
	var orphans []*types.Reaction
	err := r.db.NewSelect().
		Model(&orphans).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return orphanFilter(q, tables)
		}).
		Order("reaction.target_type", "reaction.target_id").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphaned reactions: %w", err)
	}
	return orphans, nil
}

// PruneOrphans deletes reactions whose target row no longer exists.
// Reactions with unregistered discriminators are left untouched.
func (r *ReactionModel) PruneOrphans(ctx context.Context, tables map[string]string) (int64, error) {
	var total int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for kind, table := range tables {
			result, err := tx.NewDelete().
				Model((*types.Reaction)(nil)).
				Where("target_type = ?", kind).
				Where("NOT EXISTS (SELECT 1 FROM ? AS t WHERE t.id = reaction.target_id)", bun.Ident(table)).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to prune %s reactions: %w", kind, err)
			}

			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			total += affected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Info("Pruned orphaned reactions", zap.Int64("count", total))
	return total, nil
}

// orphanFilter matches reactions with no live target.
func orphanFilter(q *bun.SelectQuery, tables map[string]string) *bun.SelectQuery {
	kinds := make([]string, 0, len(tables))
	for kind, table := range tables {
		kinds = append(kinds, kind)
		q = q.WhereOr(
			"reaction.target_type = ? AND NOT EXISTS (SELECT 1 FROM ? AS t WHERE t.id = reaction.target_id)",
			kind, bun.Ident(table),
		)
	}
	if len(kinds) == 0 {
		return q.WhereOr("TRUE")
	}
	return q.WhereOr("reaction.target_type NOT IN (?)", bun.In(kinds))
}

// requireAffected maps a zero-row mutation to types.ErrReactionNotFound.
func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return types.ErrReactionNotFound
	}
	return nil
}

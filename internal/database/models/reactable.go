package models

import (
	"context"
	"fmt"
	"slices"

	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/mythril-io/mythril/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// TargetFinder looks up the rows of one reactable entity type.
type TargetFinder interface {
	// TargetTable returns the table holding the entity rows.
	TargetTable() string
	// Exists reports whether a row with the given primary key exists.
	Exists(ctx context.Context, id int64) (bool, error)
}

// ReactableRegistry maps discriminators to the entity types that accept reactions.
type ReactableRegistry struct {
	finders map[string]TargetFinder
	kinds   []string
}

// NewReactableRegistry creates an empty registry.
func NewReactableRegistry() *ReactableRegistry {
	return &ReactableRegistry{
		finders: make(map[string]TargetFinder),
	}
}

// Register adds an entity type under its discriminator.
// Registering the same discriminator twice is a programming error and panics.
func (r *ReactableRegistry) Register(kind string, finder TargetFinder) {
	normalized := types.NormalizeTargetType(kind)
	if normalized == "" || normalized != kind {
		panic(fmt.Sprintf("reactable type %q is not a folded discriminator", kind))
	}
	if _, ok := r.finders[kind]; ok {
		panic(fmt.Sprintf("reactable type %q registered twice", kind))
	}

	r.finders[kind] = finder
	r.kinds = append(r.kinds, kind)
	slices.Sort(r.kinds)
}

// Has reports whether the discriminator was registered.
func (r *ReactableRegistry) Has(kind string) bool {
	_, ok := r.finders[kind]
	return ok
}

// Kinds returns the registered discriminators in sorted order.
func (r *ReactableRegistry) Kinds() []string {
	return slices.Clone(r.kinds)
}

// Tables returns the table of every registered discriminator.
func (r *ReactableRegistry) Tables() map[string]string {
	tables := make(map[string]string, len(r.finders))
	for kind, finder := range r.finders {
		tables[kind] = finder.TargetTable()
	}
	return tables
}

// Exists reports whether the target of a reaction exists.
func (r *ReactableRegistry) Exists(ctx context.Context, kind string, id int64) (bool, error) {
	finder, ok := r.finders[kind]
	if !ok {
		return false, types.ErrUnknownTargetType
	}
	return finder.Exists(ctx, id)
}

// WithReactionCounts selects every column of the query model plus its live
// like and dislike totals into the scan-only Likes and Dislikes fields.
func WithReactionCounts(q *bun.SelectQuery, kind string) *bun.SelectQuery {
	return q.
		ColumnExpr("?TableAlias.*").
		ColumnExpr("(SELECT COUNT(*) FROM reactions AS r "+
			"WHERE r.target_type = ? AND r.target_id = ?TableAlias.id AND r.value = ?) AS likes",
			kind, enum.ReactionLike).
		ColumnExpr("(SELECT COUNT(*) FROM reactions AS r "+
			"WHERE r.target_type = ? AND r.target_id = ?TableAlias.id AND r.value = ?) AS dislikes",
			kind, enum.ReactionDislike)
}

// existsByID reports whether a row of the model's table has the given id.
func existsByID(ctx context.Context, db bun.IDB, model any, id int64) (bool, error) {
	exists, err := db.NewSelect().
		Model(model).
		Where("?TableAlias.id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}

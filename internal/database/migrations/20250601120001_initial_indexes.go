package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Reaction totals per target
			CREATE INDEX IF NOT EXISTS idx_reactions_target_value
			ON reactions (target_type, target_id, value);

			-- Reactions of a user, newest first
			CREATE INDEX IF NOT EXISTS idx_reactions_user_time
			ON reactions (user_id, updated_at DESC);

			-- Review listings
			CREATE INDEX IF NOT EXISTS idx_reviews_created
			ON reviews (created_at DESC, id DESC);

			CREATE INDEX IF NOT EXISTS idx_reviews_game_created
			ON reviews (game_id, created_at DESC, id DESC);

			CREATE INDEX IF NOT EXISTS idx_reviews_user_created
			ON reviews (user_id, created_at DESC, id DESC);

			-- Posts of a discussion in posting order
			CREATE INDEX IF NOT EXISTS idx_posts_discussion_created
			ON posts (discussion_id, created_at, id);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_posts_discussion_created;
			DROP INDEX IF EXISTS idx_reviews_user_created;
			DROP INDEX IF EXISTS idx_reviews_game_created;
			DROP INDEX IF EXISTS idx_reviews_created;
			DROP INDEX IF EXISTS idx_reactions_user_time;
			DROP INDEX IF EXISTS idx_reactions_target_value;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}

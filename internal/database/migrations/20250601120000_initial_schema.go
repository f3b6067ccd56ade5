package migrations

import (
	"context"
	"fmt"

	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		tables := []struct {
			model       any
			foreignKeys []string
		}{
			{(*types.User)(nil), nil},
			{(*types.Review)(nil), []string{
				`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
			}},
			{(*types.Discussion)(nil), []string{
				`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
			}},
			{(*types.Post)(nil), []string{
				`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
				`("discussion_id") REFERENCES "discussions" ("id") ON DELETE CASCADE`,
				`("parent_post_id") REFERENCES "posts" ("id") ON DELETE SET NULL`,
			}},
			// Reactions reference their target polymorphically, so only the
			// reacting user is constrained.
			{(*types.Reaction)(nil), []string{
				`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
			}},
		}

		for _, table := range tables {
			q := db.NewCreateTable().
				Model(table.model).
				IfNotExists()
			for _, fk := range table.foreignKeys {
				q = q.ForeignKey(fk)
			}

			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table %T: %w", table.model, err)
			}
		}

		_, err := db.NewRaw(`
			ALTER TABLE reactions DROP CONSTRAINT IF EXISTS reactions_value_check;
			ALTER TABLE reactions ADD CONSTRAINT reactions_value_check CHECK (value IN (0, 1));
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add reaction value constraint: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.Reaction)(nil),
			(*types.Post)(nil),
			(*types.Discussion)(nil),
			(*types.Review)(nil),
			(*types.User)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Cascade().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}

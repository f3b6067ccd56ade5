package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// ReactionCommands returns all reaction maintenance commands.
func ReactionCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "reactions",
			Usage: "Inspect and maintain the reaction ledger",
			Commands: []*cli.Command{
				{
					Name:  "orphans",
					Usage: "List reactions whose target no longer exists",
					Description: `Reactions are not removed when their target is deleted.
This lists reactions pointing at missing rows or at types that are no longer registered.`,
					Flags: []cli.Flag{
						&cli.IntFlag{
							Name:    "limit",
							Usage:   "Maximum number of reactions to list",
							Value:   100,
							Aliases: []string{"l"},
						},
					},
					Action: handleListOrphans(deps),
				},
				{
					Name:  "prune-orphans",
					Usage: "Delete reactions whose target row no longer exists",
					Description: `Deletes reactions of registered types whose target row is gone.
Reactions of unregistered types are left untouched.

Examples:
  db reactions prune-orphans --yes`,
					Flags: []cli.Flag{
						&cli.BoolFlag{
							Name:    "yes",
							Usage:   "Confirm the deletion",
							Aliases: []string{"y"},
						},
					},
					Action: handlePruneOrphans(deps),
				},
				{
					Name:  "kinds",
					Usage: "List the registered reactable types and their tables",
					Action: func(_ context.Context, _ *cli.Command) error {
						tables := deps.DB.Model().Reactables().Tables()
						for _, kind := range deps.DB.Model().Reactables().Kinds() {
							fmt.Printf("%s\t%s\n", kind, tables[kind])
						}
						return nil
					},
				},
			},
		},
	}
}

// handleListOrphans handles the 'reactions orphans' command.
func handleListOrphans(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		limit := int(c.Int("limit"))
		if limit <= 0 {
			limit = 100
		}

		tables := deps.DB.Model().Reactables().Tables()
		orphans, err := deps.DB.Model().Reaction().ListOrphans(ctx, tables, limit)
		if err != nil {
			return err
		}

		if len(orphans) == 0 {
			deps.Logger.Info("No orphaned reactions found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tTARGET\tUSER\tVALUE\tUPDATED")
		for _, reaction := range orphans {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n",
				reaction.TargetType,
				reaction.TargetID,
				reaction.UserID,
				reaction.Value,
				reaction.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		deps.Logger.Info("Listed orphaned reactions", zap.Int("count", len(orphans)), zap.Int("limit", limit))
		return nil
	}
}

// handlePruneOrphans handles the 'reactions prune-orphans' command.
func handlePruneOrphans(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if !c.Bool("yes") {
			return ErrConfirmRequired
		}

		tables := deps.DB.Model().Reactables().Tables()
		count, err := deps.DB.Model().Reaction().PruneOrphans(ctx, tables)
		if err != nil {
			return err
		}

		deps.Logger.Info("Pruned orphaned reactions", zap.Int64("count", count))
		return nil
	}
}

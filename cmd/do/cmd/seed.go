package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/recipehub/internal/app"
	"github.com/templui/recipehub/internal/seed"
)

func SeedCmd() *cobra.Command {
	opts := seed.Options{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo recipes, reviewers and reviews into the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if a.Cfg.IsProduction() {
					return fmt.Errorf("refusing to seed a production database")
				}

				result, err := seed.Run(ctx, a, opts)
				if err != nil {
					return err
				}

				fmt.Printf("created %d recipes (%d already present), %d reviewers, %d reviews\n",
					result.Recipes, result.Skipped, result.Reviewers, result.Reviews)
				fmt.Printf("log in as %s with the seed password\n", seed.DemoEmail)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Password, "password", "password123", "Password for the demo author and reviewers")
	cmd.Flags().IntVar(&opts.Reviewers, "reviewers", 5, "Number of fake reviewer accounts")
	cmd.Flags().IntVar(&opts.ReviewsPerRecipe, "reviews", 3, "Reviews added to each new recipe")
	cmd.Flags().Int64Var(&opts.RandSeed, "rand-seed", 0, "Seed for generated data (0 = random)")

	return cmd
}

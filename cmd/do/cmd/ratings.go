package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/recipehub/internal/app"
)

func RatingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratings",
		Short: "Recipe rating maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "recompute",
		Short: "Recompute every recipe's review count and average from its reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				n, err := a.RatingAggregator.RecomputeAll(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("recomputed %d recipes\n", n)
				return nil
			})
		},
	})

	return cmd
}

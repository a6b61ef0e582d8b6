package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/templui/recipehub/internal/cache"
	"github.com/templui/recipehub/internal/metrics"
	"github.com/templui/recipehub/internal/model"
	"github.com/templui/recipehub/internal/repository"
)

// RatingAggregator maintains the rating summary cached on each recipe. It is
// the only writer of averageRating and numReviews.
type RatingAggregator struct {
	reviewRepository repository.ReviewRepository
	recipeRepository repository.RecipeRepository
	cache            *cache.RecipeCache
}

func NewRatingAggregator(
	reviewRepository repository.ReviewRepository,
	recipeRepository repository.RecipeRepository,
	recipeCache *cache.RecipeCache,
) *RatingAggregator {
	return &RatingAggregator{
		reviewRepository: reviewRepository,
		recipeRepository: recipeRepository,
		cache:            recipeCache,
	}
}

// Recompute derives count and mean over every review of the recipe and stores
// them. Running it twice without new reviews gives the same result.
func (a *RatingAggregator) Recompute(ctx context.Context, recipeID string) (model.RatingSummary, error) {
	summary, err := a.reviewRepository.RatingSummary(ctx, recipeID)
	if err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to compute rating summary: %w", err)
	}

	err = a.recipeRepository.UpdateRating(ctx, recipeID, summary)
	if err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to store rating summary: %w", err)
	}

	a.cache.Invalidate(ctx, recipeID)
	return summary, nil
}

// RecomputeAll repairs every recipe's summary. Failures are logged and counted;
// the first one is returned after all recipes were tried.
func (a *RatingAggregator) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := a.recipeRepository.AllIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	var firstErr error
	updated := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		if _, err := a.Recompute(ctx, id); err != nil {
			metrics.RatingRecomputeFailuresTotal.Inc()
			slog.Error("rating recompute failed", "error", err, "recipe_id", id)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		updated++
	}
	return updated, firstErr
}

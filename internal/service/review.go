package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/recipehub/internal/apperror"
	"github.com/templui/recipehub/internal/metrics"
	"github.com/templui/recipehub/internal/model"
	"github.com/templui/recipehub/internal/repository"
)

const maxCommentLength = 2000

type ReviewService struct {
	reviewRepository repository.ReviewRepository
	recipeRepository repository.RecipeRepository
	userRepository   repository.UserRepository
	aggregator       *RatingAggregator
	now              func() time.Time
}

func NewReviewService(
	reviewRepository repository.ReviewRepository,
	recipeRepository repository.RecipeRepository,
	userRepository repository.UserRepository,
	aggregator *RatingAggregator,
	now func() time.Time,
) *ReviewService {
	if now == nil {
		now = time.Now
	}
	return &ReviewService{
		reviewRepository: reviewRepository,
		recipeRepository: recipeRepository,
		userRepository:   userRepository,
		aggregator:       aggregator,
		now:              now,
	}
}

// Create stores the review and then recomputes the recipe's rating summary.
// A failed recompute is logged and does not undo the review.
func (s *ReviewService) Create(ctx context.Context, userID, recipeID string, rating int, comment string) (*model.Review, error) {
	if rating < model.MinRating || rating > model.MaxRating {
		return nil, apperror.Validation("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return nil, apperror.Validation("comment must be at most 2000 characters")
	}

	_, err := s.recipeRepository.ByID(ctx, recipeID)
	if errors.Is(err, repository.ErrRecipeNotFound) {
		return nil, apperror.NotFound("recipe not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load recipe", err)
	}

	review := &model.Review{
		ID:        uuid.New().String(),
		RecipeID:  recipeID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: s.now().UTC(),
	}

	if user, err := s.userRepository.ByID(ctx, userID); err == nil {
		review.Username = user.Username
	}

	if err := s.reviewRepository.Create(ctx, review); err != nil {
		return nil, apperror.Internal("failed to create review", err)
	}
	metrics.ReviewsCreatedTotal.Inc()

	if _, err := s.aggregator.Recompute(ctx, recipeID); err != nil {
		metrics.RatingRecomputeFailuresTotal.Inc()
		slog.Error("rating recompute failed after review", "error", err, "recipe_id", recipeID, "review_id", review.ID)
	}

	slog.Info("review created", "review_id", review.ID, "recipe_id", recipeID)
	return review, nil
}

// ByRecipe lists a recipe's reviews, newest first.
func (s *ReviewService) ByRecipe(ctx context.Context, recipeID string) ([]*model.Review, error) {
	_, err := s.recipeRepository.ByID(ctx, recipeID)
	if errors.Is(err, repository.ErrRecipeNotFound) {
		return nil, apperror.NotFound("recipe not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load recipe", err)
	}

	reviews, err := s.reviewRepository.ByRecipe(ctx, recipeID)
	if err != nil {
		return nil, apperror.Internal("failed to list reviews", err)
	}
	if reviews == nil {
		reviews = []*model.Review{}
	}
	return reviews, nil
}

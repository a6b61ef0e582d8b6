package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/templui/recipehub/internal/model"
)

// ReviewRepository stores reviews. Reviews are immutable once created.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	ByRecipe(ctx context.Context, recipeID string) ([]*model.Review, error)
	// RatingSummary computes count and mean rating over every review of the recipe.
	RatingSummary(ctx context.Context, recipeID string) (model.RatingSummary, error)
}

type reviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `INSERT INTO reviews (id, recipe_id, user_id, rating, comment, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		review.ID,
		review.RecipeID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
	)

	return err
}

func (r *reviewRepository) ByRecipe(ctx context.Context, recipeID string) ([]*model.Review, error) {
	reviews := []*model.Review{}
	query := `SELECT rv.id, rv.recipe_id, rv.user_id, u.username, rv.rating, rv.comment, rv.created_at
	          FROM reviews rv JOIN users u ON u.id = rv.user_id
	          WHERE rv.recipe_id = $1
	          ORDER BY rv.created_at DESC, rv.id DESC`

	err := r.db.SelectContext(ctx, &reviews, query, recipeID)
	if err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *reviewRepository) RatingSummary(ctx context.Context, recipeID string) (model.RatingSummary, error) {
	var summary model.RatingSummary
	query := `SELECT COUNT(*) AS num_reviews,
	          CAST(COALESCE(AVG(rating), 0) AS DOUBLE PRECISION) AS average_rating
	          FROM reviews WHERE recipe_id = $1`

	err := r.db.GetContext(ctx, &summary, query, recipeID)
	return summary, err
}

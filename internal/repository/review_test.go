package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/recipehub/internal/model"
	"github.com/templui/recipehub/internal/repository"
	"github.com/templui/recipehub/internal/testutil"
)

func TestReviewRepository_RatingSummary(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(database)
	author := seedAuthor(t, users)
	reviewer := seedAuthor(t, users)
	recipes := repository.NewRecipeRepository(database)
	repo := repository.NewReviewRepository(database)

	recipe := testutil.FakeRecipe(author.ID)
	require.NoError(t, recipes.Create(ctx, recipe))

	summary, err := repo.RatingSummary(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RatingSummary{}, summary)

	now := time.Now().UTC()
	for i, rating := range []int{4, 2, 5} {
		require.NoError(t, repo.Create(ctx, &model.Review{
			ID:        uuid.NewString(),
			RecipeID:  recipe.ID,
			UserID:    reviewer.ID,
			Rating:    rating,
			Comment:   "tasty",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	summary, err = repo.RatingSummary(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.NumReviews)
	assert.InDelta(t, 11.0/3.0, summary.AverageRating, 1e-9)

	list, err := repo.ByRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 5, list[0].Rating, "newest first")
	assert.Equal(t, reviewer.Username, list[0].Username)
}

func TestReviewRepository_RejectsOutOfRangeRating(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewSQLiteDB(t)
	author := seedAuthor(t, repository.NewUserRepository(database))
	recipes := repository.NewRecipeRepository(database)
	recipe := testutil.FakeRecipe(author.ID)
	require.NoError(t, recipes.Create(ctx, recipe))

	err := repository.NewReviewRepository(database).Create(ctx, &model.Review{
		ID: uuid.NewString(), RecipeID: recipe.ID, UserID: author.ID, Rating: 6, CreatedAt: time.Now().UTC(),
	})
	assert.Error(t, err)
}

func TestReviewRepository_RatingSummaryPropagatesErrors(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = mockDB.Close() }()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("recipe-1").
		WillReturnError(errors.New("connection reset"))

	repo := repository.NewReviewRepository(sqlx.NewDb(mockDB, "sqlmock"))
	_, err = repo.RatingSummary(context.Background(), "recipe-1")
	assert.EqualError(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_RatingSummaryScansRow(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = mockDB.Close() }()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("recipe-1").
		WillReturnRows(sqlmock.NewRows([]string{"num_reviews", "average_rating"}).AddRow(2, 3.0))

	repo := repository.NewReviewRepository(sqlx.NewDb(mockDB, "sqlmock"))
	summary, err := repo.RatingSummary(context.Background(), "recipe-1")
	require.NoError(t, err)
	assert.Equal(t, model.RatingSummary{NumReviews: 2, AverageRating: 3}, summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

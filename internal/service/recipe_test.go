package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/recipehub/internal/apperror"
	"github.com/templui/recipehub/internal/cache"
	"github.com/templui/recipehub/internal/model"
	"github.com/templui/recipehub/internal/repository"
	"github.com/templui/recipehub/internal/storage"
	"github.com/templui/recipehub/internal/testutil"
)

type recipeFixture struct {
	recipes    *RecipeService
	reviews    *ReviewService
	users      *UserService
	aggregator *RatingAggregator
	userRepo   repository.UserRepository
	recipeRepo repository.RecipeRepository
	imageRoot  string
	clock      *testClock
}

func newRecipeFixture(t *testing.T, recipeCache *cache.RecipeCache) *recipeFixture {
	t.Helper()
	database := testutil.NewSQLiteDB(t)
	clock := newTestClock()

	imageRoot := t.TempDir()
	store, err := storage.NewLocalStorage(imageRoot, "http://api.test"+storage.LocalURLPrefix)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(database)
	recipeRepo := repository.NewRecipeRepository(database)
	reviewRepo := repository.NewReviewRepository(database)

	recipes := NewRecipeService(recipeRepo, userRepo, store, recipeCache, clock.Now)
	aggregator := NewRatingAggregator(reviewRepo, recipeRepo, recipeCache)

	return &recipeFixture{
		recipes:    recipes,
		reviews:    NewReviewService(reviewRepo, recipeRepo, userRepo, aggregator, clock.Now),
		users:      NewUserService(userRepo, recipeRepo, recipes),
		aggregator: aggregator,
		userRepo:   userRepo,
		recipeRepo: recipeRepo,
		imageRoot:  imageRoot,
		clock:      clock,
	}
}

func (f *recipeFixture) user(t *testing.T) *model.User {
	t.Helper()
	u := testutil.FakeUser()
	require.NoError(t, f.userRepo.Create(context.Background(), u))
	return u
}

func (f *recipeFixture) recipe(t *testing.T, authorID, name string) *model.Recipe {
	t.Helper()
	r, err := f.recipes.Create(context.Background(), authorID, model.RecipeContent{
		Name:         name,
		Description:  "A **good** one",
		Ingredients:  []string{"flour", "water"},
		Instructions: []string{"mix", "bake"},
		CookingTime:  30,
	}, pngUpload(t))
	require.NoError(t, err)
	return r
}

func TestRecipeService_Create(t *testing.T) {
	f := newRecipeFixture(t, nil)
	author := f.user(t)

	recipe := f.recipe(t, author.ID, "  Bread  ")

	assert.Equal(t, "Bread", recipe.Name)
	assert.Equal(t, author.ID, recipe.AuthorID)
	assert.Equal(t, author.Username, recipe.AuthorUsername)
	assert.Equal(t, 0.0, recipe.AverageRating)
	assert.Equal(t, 0, recipe.NumReviews)
	assert.True(t, strings.HasPrefix(recipe.ImagePath, "recipes/"))
	assert.True(t, strings.HasSuffix(recipe.ImagePath, ".png"))
	assert.Equal(t, "http://api.test/images/"+recipe.ImagePath, recipe.ImageURL)
	assert.Contains(t, recipe.DescriptionHTML, "<strong>good</strong>")

	_, err := os.Stat(filepath.Join(f.imageRoot, recipe.ImagePath))
	assert.NoError(t, err)

	stored, err := f.recipes.Get(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"flour", "water"}, stored.Ingredients)
	assert.Equal(t, model.StringList{"mix", "bake"}, stored.Instructions)
}

func TestRecipeService_CreateValidation(t *testing.T) {
	f := newRecipeFixture(t, nil)
	author := f.user(t)
	valid := model.RecipeContent{Name: "Soup", Ingredients: []string{"water"}, Instructions: []string{"boil"}}

	tests := []struct {
		name    string
		content model.RecipeContent
		image   func() *ImageUpload
	}{
		{"missing name", model.RecipeContent{Ingredients: []string{"a"}, Instructions: []string{"b"}}, func() *ImageUpload { return pngUpload(t) }},
		{"blank ingredients", model.RecipeContent{Name: "Soup", Ingredients: []string{" ", ""}, Instructions: []string{"b"}}, func() *ImageUpload { return pngUpload(t) }},
		{"no instructions", model.RecipeContent{Name: "Soup", Ingredients: []string{"a"}}, func() *ImageUpload { return pngUpload(t) }},
		{"negative cooking time", model.RecipeContent{Name: "Soup", Ingredients: []string{"a"}, Instructions: []string{"b"}, CookingTime: -5}, func() *ImageUpload { return pngUpload(t) }},
		{"missing image", valid, func() *ImageUpload { return nil }},
		{"not an image", valid, func() *ImageUpload {
			data := []byte("just some text pretending to be a picture")
			return &ImageUpload{Filename: "dish.png", Size: int64(len(data)), Content: bytes.NewReader(data)}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.recipes.Create(context.Background(), author.ID, tt.content, tt.image())
			assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
		})
	}

	entries, err := os.ReadDir(f.imageRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecipeService_ListPagination(t *testing.T) {
	f := newRecipeFixture(t, nil)
	author := f.user(t)
	ctx := context.Background()

	for i := 1; i <= 17; i++ {
		f.recipe(t, author.ID, fmt.Sprintf("Recipe %02d", i))
		f.clock.Advance(time.Second)
	}

	page, err := f.recipes.List(ctx, "", 1, 8)
	require.NoError(t, err)
	assert.Len(t, page.Recipes, 8)
	assert.Equal(t, 17, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, "Recipe 17", page.Recipes[0].Name)

	page, err = f.recipes.List(ctx, "", 3, 8)
	require.NoError(t, err)
	require.Len(t, page.Recipes, 1)
	assert.Equal(t, "Recipe 01", page.Recipes[0].Name)

	page, err = f.recipes.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.Limit)

	page, err = f.recipes.List(ctx, "", 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Equal(t, 1, page.TotalPages)
}

func TestRecipeService_ListSearch(t *testing.T) {
	f := newRecipeFixture(t, nil)
	author := f.user(t)
	ctx := context.Background()

	f.recipe(t, author.ID, "Tomato Soup")
	f.recipe(t, author.ID, "Pancakes")

	page, err := f.recipes.List(ctx, "SOUP", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Recipes, 1)
	assert.Equal(t, "Tomato Soup", page.Recipes[0].Name)

	// Ingredient match
	page, err = f.recipes.List(ctx, "Flour", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Recipes, 2)

	page, err = f.recipes.List(ctx, "caviar", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Recipes)
	assert.Equal(t, 0, page.TotalPages)
}

func TestRecipeService_UpdateAuthorization(t *testing.T) {
	f := newRecipeFixture(t, nil)
	author := f.user(t)
	stranger := f.user(t)
	ctx := context.Background()
	recipe := f.recipe(t, author.ID, "Bread")

	content := model.RecipeContent{Name: "Better Bread", Ingredients: []string{"rye"}, Instructions: []string{"knead"}, CookingTime: 90}

	_, err := f.recipes.Update(ctx, stranger.ID, recipe.ID, content)
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))

	_, err = f.recipes.Update(ctx, author.ID, "missing", content)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	updated, err := f.recipes.Update(ctx, author.ID, recipe.ID, content)
	require.NoError(t, err)
	assert.Equal(t, "Better Bread", updated.Name)
	assert.Empty(t, updated.Description)
	assert.Equal(t, model.StringList{"rye"}, updated.Ingredients)
	assert.Equal(t, recipe.ImagePath, updated.ImagePath)
}

func TestRecipeService_CheckAuthor(t *testing.T) {
	f := newRecipeFixture(t, nil)
	ctx := context.Background()
	author := f.user(t)
	other := f.user(t)
	recipe := f.recipe(t, author.ID, "Bread")

	assert.NoError(t, f.recipes.CheckAuthor(ctx, author.ID, recipe.ID))
	assert.True(t, apperror.Is(f.recipes.CheckAuthor(ctx, other.ID, recipe.ID), apperror.KindAuthorization))
	assert.True(t, apperror.Is(f.recipes.CheckAuthor(ctx, author.ID, "missing"), apperror.KindNotFound))
}

func TestRecipeService_Delete(t *testing.T) {
	f := newRecipeFixture(t, nil)
	author := f.user(t)
	stranger := f.user(t)
	ctx := context.Background()
	recipe := f.recipe(t, author.ID, "Bread")

	assert.True(t, apperror.Is(f.recipes.Delete(ctx, stranger.ID, recipe.ID), apperror.KindAuthorization))

	require.NoError(t, f.recipes.Delete(ctx, author.ID, recipe.ID))

	_, err := f.recipes.Get(ctx, recipe.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = os.Stat(filepath.Join(f.imageRoot, recipe.ImagePath))
	assert.True(t, os.IsNotExist(err))

	assert.True(t, apperror.Is(f.recipes.Delete(ctx, author.ID, recipe.ID), apperror.KindNotFound))
}

func TestRecipeService_ByUsername(t *testing.T) {
	f := newRecipeFixture(t, nil)
	author := f.user(t)
	other := f.user(t)
	ctx := context.Background()

	f.recipe(t, author.ID, "Bread")
	f.recipe(t, other.ID, "Soup")

	recipes, err := f.recipes.ByUsername(ctx, author.Username)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Bread", recipes[0].Name)

	_, err = f.recipes.ByUsername(ctx, "nobody-here")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestRecipeService_CacheInvalidation(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newRecipeFixture(t, cache.NewRecipeCache(rdb, time.Minute))
	author := f.user(t)
	reviewer := f.user(t)
	ctx := context.Background()
	recipe := f.recipe(t, author.ID, "Bread")

	_, err = f.recipes.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("recipe:"+recipe.ID))

	_, err = f.reviews.Create(ctx, reviewer.ID, recipe.ID, 5, "great")
	require.NoError(t, err)
	assert.False(t, mr.Exists("recipe:"+recipe.ID))

	got, err := f.recipes.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumReviews)
	assert.Equal(t, 5.0, got.AverageRating)

	_, err = f.recipes.Update(ctx, author.ID, recipe.ID, model.RecipeContent{Name: "Rye", Ingredients: []string{"rye"}, Instructions: []string{"bake"}})
	require.NoError(t, err)
	assert.False(t, mr.Exists("recipe:"+recipe.ID))

	got, err = f.recipes.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rye", got.Name)
}

func TestUserService_Favorites(t *testing.T) {
	f := newRecipeFixture(t, nil)
	author := f.user(t)
	fan := f.user(t)
	ctx := context.Background()
	bread := f.recipe(t, author.ID, "Bread")
	soup := f.recipe(t, author.ID, "Soup")

	require.NoError(t, f.users.AddFavorite(ctx, fan.ID, bread.ID))
	require.NoError(t, f.users.AddFavorite(ctx, fan.ID, bread.ID))
	require.NoError(t, f.users.AddFavorite(ctx, fan.ID, soup.ID))
	assert.True(t, apperror.Is(f.users.AddFavorite(ctx, fan.ID, "missing"), apperror.KindNotFound))

	me, err := f.users.Me(ctx, fan.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{bread.ID, soup.ID}, me.Favorites)

	require.NoError(t, f.users.RemoveFavorite(ctx, fan.ID, soup.ID))
	favorites, err := f.users.Favorites(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, bread.ID, favorites[0].ID)
	assert.NotEmpty(t, favorites[0].ImageURL)

	require.NoError(t, f.recipes.Delete(ctx, author.ID, bread.ID))
	favorites, err = f.users.Favorites(ctx, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

package repository_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/recipehub/internal/repository"
	"github.com/templui/recipehub/internal/testutil"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewSQLiteDB(t))

	user := testutil.FakeUser()
	user.Email = "Cook@Example.com"
	require.NoError(t, repo.Create(ctx, user))

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		found, err := repo.ByEmail(ctx, "COOK@example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, "cook@example.com", found.Email)
	})

	t.Run("by username", func(t *testing.T) {
		found, err := repo.ByUsername(ctx, user.Username)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.ByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrUserNotFound)
	})
}

func TestUserRepository_CreateDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewSQLiteDB(t))

	user := testutil.FakeUser()
	require.NoError(t, repo.Create(ctx, user))

	sameEmail := testutil.FakeUser()
	sameEmail.Email = strings.ToUpper(user.Email)
	assert.ErrorIs(t, repo.Create(ctx, sameEmail), repository.ErrDuplicateEmail)

	sameUsername := testutil.FakeUser()
	sameUsername.Username = user.Username
	assert.ErrorIs(t, repo.Create(ctx, sameUsername), repository.ErrDuplicateUsername)
}

func TestUserRepository_UpdateClearsVerificationCode(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewSQLiteDB(t))

	user := testutil.FakeUser()
	user.IssueVerificationCode("123456", time.Now().Add(10*time.Minute))
	require.NoError(t, repo.Create(ctx, user))

	stored, err := repo.ByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationCode)
	assert.Equal(t, "123456", *stored.VerificationCode)
	assert.False(t, stored.IsVerified)

	stored.MarkVerified()
	require.NoError(t, repo.Update(ctx, stored))

	stored, err = repo.ByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.VerificationCode)
	assert.Nil(t, stored.VerificationCodeExpires)
}

func TestUserRepository_UpdateMissing(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewSQLiteDB(t))

	err := repo.Update(context.Background(), testutil.FakeUser())
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_Favorites(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(database)
	recipes := repository.NewRecipeRepository(database)

	user := testutil.FakeUser()
	require.NoError(t, users.Create(ctx, user))
	recipe := testutil.FakeRecipe(user.ID)
	require.NoError(t, recipes.Create(ctx, recipe))

	require.NoError(t, users.AddFavorite(ctx, user.ID, recipe.ID))
	require.NoError(t, users.AddFavorite(ctx, user.ID, recipe.ID))

	favorites, err := users.Favorites(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{recipe.ID}, favorites)

	require.NoError(t, users.RemoveFavorite(ctx, user.ID, recipe.ID))
	favorites, err = users.Favorites(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/recipehub/internal/model"
)

func newTestCache(t *testing.T) (*RecipeCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRecipeCache(rdb, time.Minute), mr
}

func TestRecipeCache_ReadThrough(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (*model.Recipe, error) {
		calls++
		return &model.Recipe{ID: "r1", Name: "Ramen", Ingredients: model.StringList{"noodles"}}, nil
	}

	first, err := c.Recipe(ctx, "r1", fetch)
	require.NoError(t, err)
	second, err := c.Recipe(ctx, "r1", fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, model.StringList{"noodles"}, second.Ingredients)
	assert.True(t, mr.Exists("recipe:r1"))
	assert.Equal(t, time.Minute, mr.TTL("recipe:r1"))
}

func TestRecipeCache_Invalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.Recipe(ctx, "r1", func() (*model.Recipe, error) {
		return &model.Recipe{ID: "r1"}, nil
	})
	require.NoError(t, err)

	c.Invalidate(ctx, "r1")
	assert.False(t, mr.Exists("recipe:r1"))
}

func TestRecipeCache_FetchErrorNotCached(t *testing.T) {
	c, mr := newTestCache(t)

	_, err := c.Recipe(context.Background(), "r1", func() (*model.Recipe, error) {
		return nil, errors.New("not found")
	})
	assert.EqualError(t, err, "not found")
	assert.False(t, mr.Exists("recipe:r1"))
}

func TestRecipeCache_FailsOpen(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	recipe, err := c.Recipe(context.Background(), "r1", func() (*model.Recipe, error) {
		return &model.Recipe{ID: "r1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", recipe.ID)
}

func TestRecipeCache_Disabled(t *testing.T) {
	var c *RecipeCache
	assert.False(t, c.Enabled())
	c.Invalidate(context.Background(), "r1")
	assert.NoError(t, c.Close())

	disabled := NewRecipeCache(nil, time.Minute)
	recipe, err := disabled.Recipe(context.Background(), "r1", func() (*model.Recipe, error) {
		return &model.Recipe{ID: "r1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", recipe.ID)
}

func TestConnect_EmptyURL(t *testing.T) {
	client, err := Connect(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, client)
}

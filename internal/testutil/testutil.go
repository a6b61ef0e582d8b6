// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/recipehub/internal/db"
	"github.com/templui/recipehub/internal/model"
)

// NewSQLiteDB opens a migrated SQLite database in a per-test temp dir.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init(context.Background(), "sqlite", conn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), database.DB, "sqlite"))
	return database
}

// FakeUser builds an unsaved verified user with random identity fields.
func FakeUser() *model.User {
	now := time.Now().UTC()
	return &model.User{
		ID:           uuid.NewString(),
		Email:        gofakeit.Email(),
		Username:     gofakeit.Username() + gofakeit.DigitN(4),
		PasswordHash: "$2a$10$placeholderplaceholderplaceholderplaceholderplacehol",
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// FakeRecipe builds an unsaved recipe owned by authorID.
func FakeRecipe(authorID string) *model.Recipe {
	now := time.Now().UTC()
	return &model.Recipe{
		ID:           uuid.NewString(),
		AuthorID:     authorID,
		Name:         gofakeit.Dessert(),
		Description:  gofakeit.Sentence(12),
		Ingredients:  model.StringList{gofakeit.Fruit(), gofakeit.Vegetable(), "salt"},
		Instructions: model.StringList{gofakeit.Sentence(6), gofakeit.Sentence(6)},
		ImagePath:    "recipes/" + uuid.NewString() + ".png",
		CookingTime:  gofakeit.Number(5, 120),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/templui/recipehub/internal/model"
)

var (
	ErrRecipeNotFound = errors.New("recipe not found")
)

// RecipeRepository persists recipes. The rating summary is written only through
// UpdateRating; Update never touches it.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	ByID(ctx context.Context, id string) (*model.Recipe, error)
	ByIDs(ctx context.Context, ids []string) ([]*model.Recipe, error)
	List(ctx context.Context, filter model.RecipeFilter) ([]*model.Recipe, int, error)
	ByAuthor(ctx context.Context, authorID string) ([]*model.Recipe, error)
	AllIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, recipe *model.Recipe) error
	UpdateRating(ctx context.Context, recipeID string, summary model.RatingSummary) error
	Delete(ctx context.Context, id string) error
}

const recipeSelect = `SELECT r.id, r.author_id, u.username AS author_username, r.name, r.description,
	r.ingredients, r.instructions, r.image_path, r.cooking_time, r.average_rating, r.num_reviews,
	r.created_at, r.updated_at
	FROM recipes r JOIN users u ON u.id = r.author_id`

type recipeRepository struct {
	db *sqlx.DB
}

func NewRecipeRepository(db *sqlx.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	query := `INSERT INTO recipes (id, author_id, name, description, ingredients, instructions, image_path,
	          cooking_time, average_rating, num_reviews, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		recipe.ID,
		recipe.AuthorID,
		recipe.Name,
		recipe.Description,
		recipe.Ingredients,
		recipe.Instructions,
		recipe.ImagePath,
		recipe.CookingTime,
		recipe.AverageRating,
		recipe.NumReviews,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	)

	return err
}

func (r *recipeRepository) ByID(ctx context.Context, id string) (*model.Recipe, error) {
	recipe := &model.Recipe{}
	query := recipeSelect + ` WHERE r.id = $1`

	err := r.db.GetContext(ctx, recipe, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}

	return recipe, nil
}

func (r *recipeRepository) ByIDs(ctx context.Context, ids []string) ([]*model.Recipe, error) {
	recipes := []*model.Recipe{}
	if len(ids) == 0 {
		return recipes, nil
	}

	query, args, err := sqlx.In(recipeSelect+` WHERE r.id IN (?) ORDER BY r.created_at DESC, r.id DESC`, ids)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &recipes, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return recipes, nil
}

// List returns one page of recipes, newest first, plus the total number of matches.
// Search is a case-insensitive substring match on name or any ingredient.
func (r *recipeRepository) List(ctx context.Context, filter model.RecipeFilter) ([]*model.Recipe, int, error) {
	where := ""
	args := []any{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = ` WHERE (LOWER(r.name) LIKE $1 ESCAPE '\' OR EXISTS (` + ingredientElements(r.db.DriverName()) +
			` WHERE LOWER(i.value) LIKE $1 ESCAPE '\'))`
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
	}

	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM recipes r`+where, args...)
	if err != nil {
		return nil, 0, err
	}

	recipes := []*model.Recipe{}
	if total == 0 {
		return recipes, 0, nil
	}

	n := len(args)
	query := recipeSelect + where + ` ORDER BY r.created_at DESC, r.id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, filter.Limit, filter.Offset)

	err = r.db.SelectContext(ctx, &recipes, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return recipes, total, nil
}

func (r *recipeRepository) ByAuthor(ctx context.Context, authorID string) ([]*model.Recipe, error) {
	recipes := []*model.Recipe{}
	query := recipeSelect + ` WHERE r.author_id = $1 ORDER BY r.created_at DESC, r.id DESC`

	err := r.db.SelectContext(ctx, &recipes, query, authorID)
	if err != nil {
		return nil, err
	}

	return recipes, nil
}

func (r *recipeRepository) AllIDs(ctx context.Context) ([]string, error) {
	ids := []string{}

	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM recipes ORDER BY created_at`)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *recipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	query := `UPDATE recipes SET name = $1, description = $2, ingredients = $3, instructions = $4,
	          image_path = $5, cooking_time = $6, updated_at = $7 WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		recipe.Name,
		recipe.Description,
		recipe.Ingredients,
		recipe.Instructions,
		recipe.ImagePath,
		recipe.CookingTime,
		recipe.UpdatedAt,
		recipe.ID,
	)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrRecipeNotFound)
}

func (r *recipeRepository) UpdateRating(ctx context.Context, recipeID string, summary model.RatingSummary) error {
	query := `UPDATE recipes SET average_rating = $1, num_reviews = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, summary.AverageRating, summary.NumReviews, recipeID)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrRecipeNotFound)
}

func (r *recipeRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// SQLite only cascades with foreign_keys enabled, so children go explicitly
	for _, query := range []string{
		`DELETE FROM reviews WHERE recipe_id = $1`,
		`DELETE FROM user_favorites WHERE recipe_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := expectOneRow(result, ErrRecipeNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

func expectOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return notFound
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ingredientElements selects each stored ingredient as a row i(value), so
// search patterns never span the JSON encoding between items.
func ingredientElements(driver string) string {
	if driver == "pgx" || driver == "postgres" {
		return `SELECT 1 FROM jsonb_array_elements_text(r.ingredients::jsonb) AS i(value)`
	}
	return `SELECT 1 FROM json_each(r.ingredients) AS i`
}

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

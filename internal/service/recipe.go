package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/recipehub/internal/apperror"
	"github.com/templui/recipehub/internal/cache"
	"github.com/templui/recipehub/internal/markdown"
	"github.com/templui/recipehub/internal/model"
	"github.com/templui/recipehub/internal/repository"
	"github.com/templui/recipehub/internal/storage"
	"github.com/templui/recipehub/internal/validation"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageUpload is an image received with a recipe. Content is rewound after sniffing.
type ImageUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

type RecipeService struct {
	recipeRepository repository.RecipeRepository
	userRepository   repository.UserRepository
	storage          storage.Storage
	cache            *cache.RecipeCache
	markdown         *markdown.Parser
	now              func() time.Time
}

func NewRecipeService(
	recipeRepository repository.RecipeRepository,
	userRepository repository.UserRepository,
	storage storage.Storage,
	recipeCache *cache.RecipeCache,
	now func() time.Time,
) *RecipeService {
	if now == nil {
		now = time.Now
	}
	return &RecipeService{
		recipeRepository: recipeRepository,
		userRepository:   userRepository,
		storage:          storage,
		cache:            recipeCache,
		markdown:         markdown.NewParser(),
		now:              now,
	}
}

// Create stores the image and then the recipe. The image is removed again if
// the recipe cannot be saved.
func (s *RecipeService) Create(ctx context.Context, authorID string, content model.RecipeContent, image *ImageUpload) (*model.Recipe, error) {
	content = cleanContent(content)
	if err := validation.Struct(content); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if image == nil || image.Content == nil {
		return nil, apperror.Validation("a recipe image is required")
	}

	contentType, err := validation.ValidateFile(image.Filename, image.Size, image.Content, validation.ImageConstraints)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	author, err := s.userRepository.ByID(ctx, authorID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Auth("account no longer exists")
	}
	if err != nil {
		return nil, apperror.Internal("failed to look up author", err)
	}

	imagePath := "recipes/" + uuid.New().String() + imageExtensions[contentType]
	if err := s.storage.Save(ctx, imagePath, image.Content, contentType); err != nil {
		return nil, apperror.Dependency("failed to store image", err)
	}

	now := s.now().UTC()
	recipe := &model.Recipe{
		ID:             uuid.New().String(),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		ImagePath:      imagePath,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	recipe.Apply(content)

	if err := s.recipeRepository.Create(ctx, recipe); err != nil {
		if delErr := s.storage.Delete(ctx, imagePath); delErr != nil {
			slog.Error("failed to delete image during cleanup", "error", delErr, "path", imagePath)
		}
		return nil, apperror.Internal("failed to create recipe", err)
	}

	slog.Info("recipe created", "recipe_id", recipe.ID, "author_id", author.ID)
	return s.decorate(recipe), nil
}

// List returns one page of recipes, newest first, optionally filtered by a
// case-insensitive substring of the name or any ingredient.
func (s *RecipeService) List(ctx context.Context, search string, page, limit int) (*model.RecipePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	recipes, total, err := s.recipeRepository.List(ctx, model.RecipeFilter{
		Search: strings.TrimSpace(search),
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, apperror.Internal("failed to list recipes", err)
	}

	for _, r := range recipes {
		s.decorate(r)
	}

	return &model.RecipePage{
		Recipes:    recipes,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func (s *RecipeService) Get(ctx context.Context, id string) (*model.Recipe, error) {
	recipe, err := s.cache.Recipe(ctx, id, func() (*model.Recipe, error) {
		return s.load(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return s.decorate(recipe), nil
}

// Update replaces the whole editable content. Only the author may do this.
func (s *RecipeService) Update(ctx context.Context, userID, id string, content model.RecipeContent) (*model.Recipe, error) {
	recipe, err := s.editable(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	content = cleanContent(content)
	if err := validation.Struct(content); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	recipe.Apply(content)
	recipe.UpdatedAt = s.now().UTC()
	if err := s.recipeRepository.Update(ctx, recipe); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, apperror.NotFound("recipe not found")
		}
		return nil, apperror.Internal("failed to update recipe", err)
	}
	s.cache.Invalidate(ctx, id)

	slog.Info("recipe updated", "recipe_id", id)
	return s.decorate(recipe), nil
}

// CheckAuthor reports NotFound or Forbidden before a caller reads an edit
// request for the recipe.
func (s *RecipeService) CheckAuthor(ctx context.Context, userID, id string) error {
	_, err := s.editable(ctx, userID, id)
	return err
}

func (s *RecipeService) editable(ctx context.Context, userID, id string) (*model.Recipe, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !recipe.IsAuthor(userID) {
		return nil, apperror.Forbidden("only the author can edit this recipe")
	}
	return recipe, nil
}

// Delete removes the recipe with its reviews. Only the author may do this.
func (s *RecipeService) Delete(ctx context.Context, userID, id string) error {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !recipe.IsAuthor(userID) {
		return apperror.Forbidden("only the author can delete this recipe")
	}

	if err := s.recipeRepository.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return apperror.NotFound("recipe not found")
		}
		return apperror.Internal("failed to delete recipe", err)
	}
	s.cache.Invalidate(ctx, id)

	if recipe.ImagePath != "" {
		if err := s.storage.Delete(ctx, recipe.ImagePath); err != nil {
			// Orphaned image, recipe is already gone
			slog.Warn("failed to delete recipe image", "error", err, "path", recipe.ImagePath)
		}
	}

	slog.Info("recipe deleted", "recipe_id", id)
	return nil
}

// ByUsername lists a user's recipes, newest first.
func (s *RecipeService) ByUsername(ctx context.Context, username string) ([]*model.Recipe, error) {
	user, err := s.userRepository.ByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to look up user", err)
	}

	recipes, err := s.recipeRepository.ByAuthor(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("failed to list recipes", err)
	}
	for _, r := range recipes {
		s.decorate(r)
	}
	return recipes, nil
}

func (s *RecipeService) load(ctx context.Context, id string) (*model.Recipe, error) {
	recipe, err := s.recipeRepository.ByID(ctx, id)
	if errors.Is(err, repository.ErrRecipeNotFound) {
		return nil, apperror.NotFound("recipe not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load recipe", err)
	}
	return recipe, nil
}

func (s *RecipeService) decorate(r *model.Recipe) *model.Recipe {
	if r.ImagePath != "" {
		r.ImageURL = s.storage.URL(r.ImagePath)
	}
	r.DescriptionHTML = ""
	if r.Description != "" {
		html, err := s.markdown.Render(r.Description)
		if err != nil {
			slog.Warn("failed to render recipe description", "error", err, "recipe_id", r.ID)
		} else {
			r.DescriptionHTML = string(html)
		}
	}
	if r.Ingredients == nil {
		r.Ingredients = model.StringList{}
	}
	if r.Instructions == nil {
		r.Instructions = model.StringList{}
	}
	return r
}

func cleanContent(c model.RecipeContent) model.RecipeContent {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	c.Ingredients = compact(c.Ingredients)
	c.Instructions = compact(c.Instructions)
	return c
}

// compact trims every item and drops blank ones.
func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

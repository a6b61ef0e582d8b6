package service

import (
	"context"
	"errors"

	"github.com/templui/recipehub/internal/apperror"
	"github.com/templui/recipehub/internal/model"
	"github.com/templui/recipehub/internal/repository"
)

type UserService struct {
	userRepository repository.UserRepository
	recipeService  *RecipeService
	recipes        repository.RecipeRepository
}

func NewUserService(
	userRepository repository.UserRepository,
	recipeRepository repository.RecipeRepository,
	recipeService *RecipeService,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		recipes:        recipeRepository,
		recipeService:  recipeService,
	}
}

// Me returns the caller's account with its favorites.
func (s *UserService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}

	favorites, err := s.userRepository.Favorites(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to load favorites", err)
	}
	if favorites == nil {
		favorites = []string{}
	}
	user.Favorites = favorites
	return user, nil
}

// Favorites returns the caller's favorite recipes. IDs of since-deleted recipes
// are skipped.
func (s *UserService) Favorites(ctx context.Context, userID string) ([]*model.Recipe, error) {
	ids, err := s.userRepository.Favorites(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to load favorites", err)
	}
	if len(ids) == 0 {
		return []*model.Recipe{}, nil
	}

	recipes, err := s.recipes.ByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal("failed to load favorite recipes", err)
	}
	for _, r := range recipes {
		s.recipeService.decorate(r)
	}
	return recipes, nil
}

// AddFavorite is a no-op when the recipe is already a favorite.
func (s *UserService) AddFavorite(ctx context.Context, userID, recipeID string) error {
	if _, err := s.recipeService.load(ctx, recipeID); err != nil {
		return err
	}
	if err := s.userRepository.AddFavorite(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.NotFound("user not found")
		}
		return apperror.Internal("failed to add favorite", err)
	}
	return nil
}

func (s *UserService) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	if err := s.userRepository.RemoveFavorite(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.NotFound("user not found")
		}
		return apperror.Internal("failed to remove favorite", err)
	}
	return nil
}

// Package seed fills a database with demo recipes, reviewers and reviews.
package seed

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/templui/recipehub/internal/app"
	"github.com/templui/recipehub/internal/markdown"
	"github.com/templui/recipehub/internal/model"
	"github.com/templui/recipehub/internal/repository"
	"github.com/templui/recipehub/internal/service"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed recipes/*.md
var recipeFiles embed.FS

const (
	DemoEmail    = "demo@recipehub.local"
	DemoUsername = "demo_chef"
)

type Options struct {
	Password         string // for the demo author and every reviewer
	Reviewers        int
	ReviewsPerRecipe int
	RandSeed         int64 // 0 picks a random seed
}

type Result struct {
	Recipes    int
	Skipped    int
	Reviewers  int
	Reviews    int
	Recomputed int
}

// recipeMeta is the frontmatter of an embedded recipe file. The markdown body
// becomes the description.
type recipeMeta struct {
	Name         string   `yaml:"name"`
	CookingTime  int      `yaml:"cookingTime"`
	Ingredients  []string `yaml:"ingredients"`
	Instructions []string `yaml:"instructions"`
}

type seeder struct {
	app   *app.App
	opts  Options
	faker *gofakeit.Faker
	md    *markdown.Parser
	title cases.Caser
}

// Run is safe to repeat: the demo author is reused and recipes it already owns
// are skipped by name. Aggregates are recomputed for every recipe at the end.
func Run(ctx context.Context, a *app.App, opts Options) (Result, error) {
	if opts.Password == "" {
		return Result{}, errors.New("seed password is required")
	}

	s := &seeder{
		app:   a,
		opts:  opts,
		faker: gofakeit.New(opts.RandSeed),
		md:    markdown.NewParser(),
		title: cases.Title(language.English),
	}
	var result Result

	author, err := s.user(ctx, DemoEmail, DemoUsername)
	if err != nil {
		return result, fmt.Errorf("demo author: %w", err)
	}

	recipes, err := s.recipes(ctx, author, &result)
	if err != nil {
		return result, err
	}

	reviewers := make([]*model.User, 0, opts.Reviewers)
	for range opts.Reviewers {
		u, err := s.user(ctx, s.faker.Email(), s.faker.Username()+s.faker.DigitN(3))
		if err != nil {
			return result, fmt.Errorf("reviewer: %w", err)
		}
		reviewers = append(reviewers, u)
	}
	result.Reviewers = len(reviewers)

	if len(reviewers) > 0 {
		for _, recipe := range recipes {
			for range opts.ReviewsPerRecipe {
				reviewer := reviewers[s.faker.IntRange(0, len(reviewers)-1)]
				_, err := a.ReviewService.Create(ctx, reviewer.ID, recipe.ID,
					s.faker.IntRange(model.MinRating, model.MaxRating),
					s.faker.Sentence(s.faker.IntRange(4, 14)),
				)
				if err != nil {
					return result, fmt.Errorf("review for %q: %w", recipe.Name, err)
				}
				result.Reviews++
			}
		}
	}

	result.Recomputed, err = a.RatingAggregator.RecomputeAll(ctx)
	if err != nil {
		return result, fmt.Errorf("recompute ratings: %w", err)
	}

	slog.Info("seed completed",
		"recipes", result.Recipes,
		"skipped", result.Skipped,
		"reviewers", result.Reviewers,
		"reviews", result.Reviews,
		"recomputed", result.Recomputed,
	)
	return result, nil
}

// user returns the verified account for email, creating it when missing.
func (s *seeder) user(ctx context.Context, email, username string) (*model.User, error) {
	existing, err := s.app.UserRepository.ByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.app.AuthService.HashPassword(s.opts.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		Username:     username,
		PasswordHash: hash,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.app.UserRepository.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *seeder) recipes(ctx context.Context, author *model.User, result *Result) ([]*model.Recipe, error) {
	owned, err := s.app.RecipeService.ByUsername(ctx, author.Username)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(owned))
	for _, r := range owned {
		existing[r.Name] = true
	}

	files, err := fs.Glob(recipeFiles, "recipes/*.md")
	if err != nil {
		return nil, err
	}

	var created []*model.Recipe
	for _, file := range files {
		content, err := s.parse(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if existing[content.Name] {
			result.Skipped++
			continue
		}

		image := s.faker.ImagePng(320, 240)
		recipe, err := s.app.RecipeService.Create(ctx, author.ID, content, &service.ImageUpload{
			Filename: "placeholder.png",
			Size:     int64(len(image)),
			Content:  bytes.NewReader(image),
		})
		if err != nil {
			return nil, fmt.Errorf("create %q: %w", content.Name, err)
		}
		created = append(created, recipe)
		result.Recipes++
	}
	return created, nil
}

// parse reads one embedded recipe. Files without a name in their frontmatter
// are titled after the file name.
func (s *seeder) parse(file string) (model.RecipeContent, error) {
	source, err := recipeFiles.ReadFile(file)
	if err != nil {
		return model.RecipeContent{}, err
	}

	var meta recipeMeta
	body, err := s.md.Document(source, &meta)
	if err != nil {
		return model.RecipeContent{}, err
	}

	name := meta.Name
	if name == "" {
		base := strings.TrimSuffix(path.Base(file), path.Ext(file))
		name = s.title.String(strings.ReplaceAll(base, "-", " "))
	}

	return model.RecipeContent{
		Name:         name,
		Description:  string(body),
		Ingredients:  meta.Ingredients,
		Instructions: meta.Instructions,
		CookingTime:  meta.CookingTime,
	}, nil
}

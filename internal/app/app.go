package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/recipehub/internal/cache"
	"github.com/templui/recipehub/internal/config"
	"github.com/templui/recipehub/internal/db"
	"github.com/templui/recipehub/internal/repository"
	"github.com/templui/recipehub/internal/service"
	"github.com/templui/recipehub/internal/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	Cfg     *config.Config
	DB      *sqlx.DB        // set for sqlite and pgx
	Mongo   *mongo.Database // set for mongo
	Storage storage.Storage
	Cache   *cache.RecipeCache

	UserRepository   repository.UserRepository
	RecipeRepository repository.RecipeRepository
	ReviewRepository repository.ReviewRepository

	EmailService     service.Mailer
	TokenService     *service.TokenService
	AuthService      *service.AuthService
	RecipeService    *service.RecipeService
	ReviewService    *service.ReviewService
	UserService      *service.UserService
	RatingAggregator *service.RatingAggregator
}

type options struct {
	mailer  service.Mailer
	storage storage.Storage
	now     func() time.Time
}

type Option func(*options)

// WithMailer replaces the Resend-backed email service.
func WithMailer(m service.Mailer) Option {
	return func(o *options) { o.mailer = m }
}

// WithStorage replaces the storage picked from STORAGE_DRIVER.
func WithStorage(s storage.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithClock replaces time.Now in every service.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Cfg: cfg}

	err := a.initStore(ctx)
	if err != nil {
		return nil, err
	}

	// Storage
	a.Storage = o.storage
	if a.Storage == nil {
		a.Storage, err = storage.New(ctx, cfg)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	// Cache
	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.Cache = cache.NewRecipeCache(redisClient, cfg.RecipeCacheTTL)

	// Services
	a.EmailService = o.mailer
	if a.EmailService == nil {
		a.EmailService = service.NewEmailService(
			cfg.ResendAPIKey,
			cfg.EmailFrom,
			cfg.FrontendURL,
			cfg.AppName,
			cfg.IsDevelopment(),
		)
	}
	a.TokenService = service.NewTokenService(cfg.JWTSecret, cfg.AppName, cfg.SessionExpiry, cfg.PasswordResetExpiry, o.now)
	a.AuthService = service.NewAuthService(
		a.UserRepository,
		a.TokenService,
		a.EmailService,
		cfg.VerificationCodeExpiry,
		cfg.FrontendURL,
		o.now,
	)
	a.RecipeService = service.NewRecipeService(a.RecipeRepository, a.UserRepository, a.Storage, a.Cache, o.now)
	a.RatingAggregator = service.NewRatingAggregator(a.ReviewRepository, a.RecipeRepository, a.Cache)
	a.ReviewService = service.NewReviewService(a.ReviewRepository, a.RecipeRepository, a.UserRepository, a.RatingAggregator, o.now)
	a.UserService = service.NewUserService(a.UserRepository, a.RecipeRepository, a.RecipeService)

	return a, nil
}

// initStore connects the configured database and builds the repositories on top of it.
func (a *App) initStore(ctx context.Context) error {
	cfg := a.Cfg

	if cfg.DBDriver == "mongo" {
		database, err := db.InitMongo(ctx, cfg.DBConnection, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.Mongo = database

		err = db.EnsureIndexes(ctx, database)
		if err != nil {
			_ = a.Close()
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		a.UserRepository = repository.NewMongoUserRepository(database)
		a.RecipeRepository = repository.NewMongoRecipeRepository(database)
		a.ReviewRepository = repository.NewMongoReviewRepository(database)
		return nil
	}

	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = database

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		_ = a.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	a.UserRepository = repository.NewUserRepository(database)
	a.RecipeRepository = repository.NewRecipeRepository(database)
	a.ReviewRepository = repository.NewReviewRepository(database)
	return nil
}

// PingContext reports whether the database is reachable.
func (a *App) PingContext(ctx context.Context) error {
	if a.Mongo != nil {
		return a.Mongo.Client().Ping(ctx, nil)
	}
	if a.DB != nil {
		return a.DB.PingContext(ctx)
	}
	return errors.New("no database configured")
}

func (a *App) Close() error {
	var errs []error
	if err := a.Cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close cache: %w", err))
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.CloseMongo(ctx, a.Mongo); err != nil {
			errs = append(errs, fmt.Errorf("close mongo: %w", err))
		}
	}
	if a.DB != nil {
		if err := db.Close(a.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

package routes

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/templui/recipehub/internal/app"
	"github.com/templui/recipehub/internal/handler"
	"github.com/templui/recipehub/internal/metrics"
	"github.com/templui/recipehub/internal/middleware"
	"github.com/templui/recipehub/internal/storage"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	recipe := handler.NewRecipeHandler(app.RecipeService, app.Cfg.MaxUploadSize)
	review := handler.NewReviewHandler(app.ReviewService)
	user := handler.NewUserHandler(app.UserService)
	health := handler.NewHealthHandler(app)

	requireAuth := middleware.RequireAuth(app.AuthService)

	mux := http.NewServeMux()

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	// Locally stored recipe images
	if local, ok := app.Storage.(*storage.LocalStorage); ok {
		mux.Handle("GET "+storage.LocalURLPrefix, http.StripPrefix(storage.LocalURLPrefix, local.Handler()))
	}

	// ============================================================================
	// AUTH
	// ============================================================================

	mux.HandleFunc("POST /api/auth/register", auth.Register)
	mux.HandleFunc("POST /api/auth/verify", auth.Verify)
	mux.HandleFunc("POST /api/auth/resend-verification", auth.ResendVerification)
	mux.HandleFunc("POST /api/auth/login", auth.Login)
	mux.HandleFunc("POST /api/auth/forgot-password", auth.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password/{userId}/{token}", auth.ResetPassword)

	// OAuth
	mux.HandleFunc("GET /api/auth/google", auth.GoogleAuth)
	mux.HandleFunc("GET /api/auth/google/callback", auth.GoogleCallback)

	// ============================================================================
	// RECIPES & REVIEWS
	// ============================================================================

	mux.HandleFunc("GET /api/recipes", recipe.List)
	mux.HandleFunc("GET /api/recipes/{id}", recipe.Get)
	mux.HandleFunc("POST /api/recipes", requireAuth(recipe.Create))
	mux.HandleFunc("PUT /api/recipes/{id}", requireAuth(recipe.Update))
	mux.HandleFunc("DELETE /api/recipes/{id}", requireAuth(recipe.Delete))

	mux.HandleFunc("GET /api/recipes/{id}/reviews", review.List)
	mux.HandleFunc("POST /api/recipes/{id}/reviews", requireAuth(review.Create))

	// ============================================================================
	// USERS
	// ============================================================================

	mux.HandleFunc("GET /api/users/me", requireAuth(user.Me))
	mux.HandleFunc("GET /api/users/me/favorites", requireAuth(user.Favorites))
	mux.HandleFunc("PUT /api/users/me/favorites/{recipeId}", requireAuth(user.AddFavorite))
	mux.HandleFunc("DELETE /api/users/me/favorites/{recipeId}", requireAuth(user.RemoveFavorite))
	mux.HandleFunc("GET /api/users/{username}/recipes", recipe.ByUsername)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		handlers.RecoveryHandler(
			handlers.RecoveryLogger(recoveryLogger{}),
			handlers.PrintRecoveryStack(app.Cfg.IsDevelopment()),
		),
		handlers.CORS(
			handlers.AllowedOrigins(app.Cfg.CORSAllowedOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.RequestIDHeader}),
			handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
		),
		middleware.SecurityHeaders,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.Metrics, // Innermost so it sees the matched route pattern
	)
}

// recoveryLogger sends recovered panics to slog (and Sentry through it).
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...any) {
	slog.Error("panic recovered", "panic", v)
}

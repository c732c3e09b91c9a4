package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/templui/storyloom/internal/app"
	"github.com/templui/storyloom/internal/handler"
	"github.com/templui/storyloom/internal/middleware"
	"github.com/templui/storyloom/internal/ui"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler(app.StoryService, app.TagService)
	auth := handler.NewAuthHandler(app.AuthService)
	story := handler.NewStoryHandler(app.StoryService, app.SocialService, app.TagService)
	submit := handler.NewSubmitHandler(app.SubmissionService, app.StoryService, app.Registry)
	profile := handler.NewProfileHandler(app.UserService, app.StoryService, app.BadgeService)
	social := handler.NewSocialHandler(app.SocialService)
	badge := handler.NewBadgeHandler(app.BadgeService, app.UserService)
	tag := handler.NewTagHandler(app.TagService)
	studio := handler.NewStudioHandler(app.StudioService)
	ops := handler.NewOpsHandler(app.DB, app.Registry)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(ui.StaticFS()))))

	// Operations
	mux.HandleFunc("GET /healthz", ops.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Pages
	mux.HandleFunc("GET /{$}", home.HomePage)
	mux.HandleFunc("GET /gallery", story.GalleryPage)
	mux.HandleFunc("GET /stories/{id}", story.StoryPage)
	mux.HandleFunc("GET /u/{username}", profile.ProfilePage)

	// Auth - rate limited per IP
	authLimit := middleware.RateLimitAuth()
	mux.HandleFunc("GET /auth/login", middleware.RequireGuest(auth.LoginPage))
	mux.HandleFunc("GET /auth/register", middleware.RequireGuest(auth.RegisterPage))
	mux.HandleFunc("POST /auth/login", authLimit(middleware.RequireGuest(auth.Login)))
	mux.HandleFunc("POST /auth/register", authLimit(middleware.RequireGuest(auth.Register)))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// Public API
	mux.HandleFunc("GET /api/stories", story.List)
	mux.HandleFunc("GET /api/stories/{id}", story.Get)
	mux.HandleFunc("GET /api/stories/{id}/export", story.Export)
	mux.HandleFunc("GET /api/stories/{id}/comments", social.Comments)
	mux.HandleFunc("GET /api/badges", badge.List)
	mux.HandleFunc("GET /api/users/{username}/badges", badge.UserBadges)
	mux.HandleFunc("GET /api/tags/popular", tag.Popular)
	mux.HandleFunc("GET /api/tags", tag.ByCategory)
	mux.HandleFunc("GET /api/capabilities", ops.Capabilities)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	// Submission and generation - rate limited per IP
	generationLimit := middleware.RateLimitGeneration()

	mux.HandleFunc("GET /submit", middleware.RequireAuth(submit.SubmitPage))
	mux.HandleFunc("POST /submit", middleware.RequireAuth(generationLimit(submit.Submit)))

	// Stories
	mux.HandleFunc("POST /api/stories", middleware.RequireAuth(generationLimit(submit.SubmitAPI)))
	mux.HandleFunc("POST /api/stories/import", middleware.RequireAuth(generationLimit(submit.Import)))
	mux.HandleFunc("DELETE /api/stories/{id}", middleware.RequireAuth(story.Delete))

	// Social
	mux.HandleFunc("POST /api/stories/{id}/like", middleware.RequireAuth(social.ToggleLike))
	mux.HandleFunc("POST /api/stories/{id}/reactions", middleware.RequireAuth(social.ToggleReaction))
	mux.HandleFunc("POST /api/stories/{id}/comments", middleware.RequireAuth(social.AddComment))

	// Badges and profile
	mux.HandleFunc("POST /api/badges/evaluate", middleware.RequireAuth(badge.Evaluate))
	mux.HandleFunc("POST /api/profile/bio", middleware.RequireAuth(profile.UpdateBio))

	// Generation and analysis
	mux.HandleFunc("POST /api/tags/suggest", middleware.RequireAuth(generationLimit(tag.Suggest)))
	mux.HandleFunc("POST /api/generate/story", middleware.RequireAuth(generationLimit(studio.GenerateStory)))
	mux.HandleFunc("POST /api/generate/storyboard", middleware.RequireAuth(generationLimit(studio.Storyboard)))
	mux.HandleFunc("POST /api/analyze/context", middleware.RequireAuth(generationLimit(studio.CulturalContext)))
	mux.HandleFunc("POST /api/analyze/sensitivity", middleware.RequireAuth(generationLimit(studio.Sensitivity)))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (needed by SecurityHeaders for S3 endpoint)
		middleware.NonceMiddleware, // Generate CSP nonce for each request (must be before SecurityHeaders)
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.Metrics,
		middleware.CORS(app.Cfg.CORSAllowedOrigins), // /api/* only
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService),
		middleware.WithURLPath,
	)

	return handler
}

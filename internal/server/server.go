// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	_ "nutribunda/docs" // swagger docs
	"nutribunda/internal/cache"
	"nutribunda/internal/config"
	"nutribunda/internal/database"
	"nutribunda/internal/featureflags"
	"nutribunda/internal/googleauth"
	"nutribunda/internal/middleware"
	"nutribunda/internal/models"
	"nutribunda/internal/repository"
	"nutribunda/internal/sentiment"
	"nutribunda/internal/service"
	"nutribunda/internal/vision"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	flags          *featureflags.Manager
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	// userRepo backs the admin gate; everything else goes through services.
	userRepo repository.UserRepository

	authService           *service.AuthService
	preferenceService     *service.PreferenceService
	userService           *service.UserService
	dashboardService      *service.DashboardService
	scanService           *service.ScanService
	recommendationService *service.RecommendationService
	foodLogService        *service.FoodLogService
	mealLogService        *service.MealLogService
	menuService           *service.MenuService
	ingredientService     *service.IngredientService
	articleService        *service.ArticleService
	feedbackService       *service.FeedbackService
	adminService          *service.AdminService
	mediaService          *service.MediaService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Initialize Redis
	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	ingredientRepo := repository.NewIngredientRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	foodLogRepo := repository.NewFoodLogRepository(db)
	mealLogRepo := repository.NewMealLogRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	mediaRepo := repository.NewMediaRepository(db)

	// Initialize Prometheus metrics
	prom := middleware.InitMetrics("nutribunda-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		flags:          featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       userRepo,
	}

	// Both login and the preference upsert mint tokens; they share one
	// closure so the claims never drift between the two paths.
	mint := func(userID uint, role string) (string, error) {
		return middleware.GenerateToken(cfg.JWTSecret, userID, role, middleware.TokenTTL)
	}

	server.authService = service.NewAuthService(userRepo, preferenceRepo, googleauth.New(cfg.GoogleClientID), mint)
	server.preferenceService = service.NewPreferenceService(preferenceRepo, userRepo, mint)
	server.userService = service.NewUserService(userRepo)
	server.dashboardService = service.NewDashboardService(preferenceRepo, mealLogRepo, menuRepo, userRepo)
	server.scanService = service.NewScanService(vision.New(cfg.VisionURL), ingredientRepo)
	server.recommendationService = service.NewRecommendationService(menuRepo, preferenceRepo)
	server.foodLogService = service.NewFoodLogService(foodLogRepo)
	server.mealLogService = service.NewMealLogService(mealLogRepo, menuRepo)
	server.menuService = service.NewMenuService(menuRepo, preferenceRepo)
	server.ingredientService = service.NewIngredientService(ingredientRepo)
	server.articleService = service.NewArticleService(articleRepo)
	server.feedbackService = service.NewFeedbackService(feedbackRepo, sentiment.New(cfg.SentimentURL))
	server.adminService = service.NewAdminService(userRepo, menuRepo, ingredientRepo, articleRepo)
	server.mediaService = service.NewMediaService(mediaRepo, cfg)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Per-request spans; must run before ContextMiddleware, which reads
	// the traceID local this sets
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		// The environment switch matches the per-route limits.
		Next: func(c *fiber.Ctx) bool {
			return middleware.RateLimitDisabled() || c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "NutriBunda Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Processed uploads (article covers, menu photos)
	app.Static("/uploads/images", s.uploadDir())

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/google", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "google_login"), s.GoogleLogin)

	// Public article routes (mobile app reads these before login)
	publicArticles := api.Group("/public/articles")
	publicArticles.Get("/", s.ListPublishedArticles)
	publicArticles.Get("/:slug", s.GetPublishedArticle)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	protected.Post("/auth/logout", s.Logout)
	protected.Get("/auth/preferences-status", s.PreferencesStatus)

	// User routes
	user := protected.Group("/user")
	user.Post("/preference", s.UpsertPreference)
	user.Get("/preference", s.GetPreference)
	user.Get("/profile", s.GetProfile)
	user.Put("/profile", s.UpdateProfile)
	user.Put("/avatar", s.UpdateAvatar)
	user.Get("/dashboard", s.GetDashboard)

	// Scan and recommendation routes
	protected.Post("/scan-food", middleware.RateLimit(
		s.redis, 10, time.Minute, "scan"), s.ScanFood)
	protected.Get("/recommendation", s.GetRecommendation)
	protected.Get("/recommendation/plan", s.GetRecommendationPlan)

	// Logging routes
	foodLogs := protected.Group("/food-log")
	foodLogs.Post("/", s.CreateFoodLogs)
	foodLogs.Get("/", s.ListFoodLogs)
	mealLogs := protected.Group("/meal-log")
	mealLogs.Post("/", s.CreateMealLog)
	mealLogs.Get("/", s.ListMealLogs)
	mealLogs.Post("/:id/consume", s.ConsumeMealLog)

	// Menu catalog: reads for everyone, writes for admins
	menus := protected.Group("/menus")
	menus.Get("/", s.ListMenus)
	menus.Post("/", s.AdminRequired(), s.CreateMenu)
	menus.Get("/:id", s.GetMenu)
	menus.Put("/:id", s.AdminRequired(), s.UpdateMenu)
	menus.Delete("/:id", s.AdminRequired(), s.DeleteMenu)

	// Ingredient catalog: reads for everyone, writes for admins
	ingredients := protected.Group("/ingredients")
	ingredients.Get("/", s.ListIngredients)
	ingredients.Post("/", s.AdminRequired(), s.CreateIngredient)
	ingredients.Put("/:id", s.AdminRequired(), s.UpdateIngredient)
	ingredients.Delete("/:id", s.AdminRequired(), s.DeleteIngredient)

	// Article CMS (admin panel)
	articles := protected.Group("/articles", s.AdminRequired())
	articles.Get("/", s.ListArticles)
	articles.Post("/", s.CreateArticle)
	articles.Get("/:id", s.GetArticle)
	articles.Put("/:id", s.UpdateArticle)
	articles.Delete("/:id", s.DeleteArticle)

	// Feedback routes
	feedback := protected.Group("/feedback")
	feedback.Post("/", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "feedback"), s.CreateFeedback)
	feedback.Get("/me", s.ListMyFeedback)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/users", s.ListUsers)
	admin.Get("/users/:id", s.GetUser)
	admin.Put("/users/:id/role", s.UpdateUserRole)
	admin.Get("/feedbacks", s.ListAllFeedback)
	admin.Get("/dashboard/stats", s.AdminStats)
	admin.Get("/dashboard/user-growth", s.AdminUserGrowth)
	admin.Post("/media", s.UploadMedia)
}

// uploadDir mirrors the media service's directory resolution so the static
// route serves exactly where uploads land.
func (s *Server) uploadDir() string {
	if s.config != nil && s.config.ImageUploadDir != "" {
		return s.config.ImageUploadDir
	}
	return service.DefaultMediaUploadDir
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Token revocation and rate limits live in Redis, so readiness
		// requires it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := middleware.BearerToken(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Missing Bearer token"))
		}

		claims, err := middleware.ValidateToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		userID, err := middleware.UserIDFromClaims(claims)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		// Check JTI for revocation
		if jti, ok := claims["jti"].(string); ok && jti != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
			if err == nil && revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("userID", userID)
		c.Locals("role", middleware.RoleFromClaims(claims))
		c.Locals("claims", claims)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		user, err := s.userRepo.GetByID(c.Context(), userID)
		if err != nil {
			// A token whose account was deleted is forbidden, not a 500.
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeUserNotFound {
				return models.RespondWithError(c, fiber.StatusForbidden,
					models.NewForbiddenError("Admin access required"))
			}
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !user.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// errorHandler catches everything handlers did not: the full error goes to
// the log, the response body carries only the generic envelope.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	log.Printf("Error: %v", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewInternalError(err))
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "NutriBunda API",
		// Image uploads are size-checked in the media service; the transport
		// limit sits one MB above so the service owns the error message.
		BodyLimit:    (s.config.ImageMaxUploadSizeMB + 1) << 20,
		ErrorHandler: s.errorHandler,
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

package router

import (
	"context"
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/moodlink-app/backend/internal/engagement"
	"github.com/moodlink-app/backend/internal/handlers"
	"github.com/moodlink-app/backend/internal/ledger"
	"github.com/moodlink-app/backend/internal/live"
	"github.com/moodlink-app/backend/internal/middleware"
	"github.com/moodlink-app/backend/internal/models"
	"github.com/moodlink-app/backend/internal/notify"
	"github.com/moodlink-app/backend/internal/repositories"
	"github.com/moodlink-app/backend/internal/social"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// feedLimit caps how many entries a live feed snapshot carries.
const feedLimit = 100

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, mongoDatabase string, firebaseAuthClient *auth.Client, logger *zap.Logger) {
	// AutoMigrate PostgreSQL models
	if err := pgdb.AutoMigrate(
		&models.Notification{},
		&models.Comment{},
	); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Repositories ---
	mongoDB := mgClient.Database(mongoDatabase)
	accountRepo := repositories.NewMongoAccountRepository(mgClient, mongoDB)
	entryRepo := repositories.NewMongoEntryRepository(mongoDB)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)

	// --- Core components ---
	engine := ledger.NewEngine(accountRepo, logger)
	center := notify.NewCenter(notificationRepo, accountRepo, logger)
	graph := social.NewGraph(accountRepo, engine, center, logger)
	toggles := engagement.NewToggles(entryRepo, engine, center, logger)

	// Level-up events are advisory; surface them in the log stream.
	go func() {
		for up := range engine.Events() {
			logger.Info("level up",
				zap.String("account_id", up.AccountID),
				zap.Int("level", up.Level))
		}
	}()

	// --- Live feeds ---
	entryFeed := live.NewFeed(func(ctx context.Context) ([]models.Entry, error) {
		return entryRepo.List(ctx, 0, feedLimit)
	}, entryRepo.Watch, logger)
	accountFeed := live.NewFeed(func(ctx context.Context) ([]models.Account, error) {
		return accountRepo.List(ctx)
	}, accountRepo.Watch, logger)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(accountRepo, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())

	accountHandler := handlers.NewAccountHandler(accountRepo, accountFeed)
	accountHandler.RegisterAccountRoutes(api)

	entryHandler := handlers.NewEntryHandler(entryRepo, commentRepo, entryFeed)
	entryHandler.RegisterEntryRoutes(api)

	followHandler := handlers.NewFollowHandler(graph)
	followHandler.RegisterFollowRoutes(api)

	engagementHandler := handlers.NewEngagementHandler(toggles)
	engagementHandler.RegisterEngagementRoutes(api)

	commentHandler := handlers.NewCommentHandler(commentRepo, entryRepo, center)
	commentHandler.RegisterCommentRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(center)
	notificationHandler.RegisterNotificationRoutes(api)

	log.Println("All routes configured.")
}

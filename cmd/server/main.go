package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/skillpath/friend-service/internal/middleware"
	"github.com/anonto42/skillpath/friend-service/internal/repositories"
	"github.com/anonto42/skillpath/friend-service/internal/router"
	"github.com/anonto42/skillpath/friend-service/internal/services"
	"github.com/anonto42/skillpath/friend-service/pkg/config"
	"github.com/anonto42/skillpath/friend-service/pkg/firebase"
	"github.com/anonto42/skillpath/friend-service/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	if cfg.ShouldAutoMigrate() {
		if err := repositories.AutoMigrate(db.SQL); err != nil {
			zl.Fatal("failed to migrate schema", zap.Error(err))
		}
		zl.Info("schema migrated")
	} else if cfg.DBAutoMigrate {
		zl.Warn("DB_AUTO_MIGRATE ignored in production")
	}

	var activities repositories.ActivityRepository = repositories.NopActivityRepository{}
	if db.Mongo != nil {
		mongoActivities := repositories.NewMongoActivityRepository(db.Mongo.Database(cfg.MongoDatabase))
		if err := mongoActivities.EnsureIndexes(ctx); err != nil {
			zl.Warn("failed to create activity indexes", zap.Error(err))
		}
		activities = mongoActivities
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		zl.Fatal("failed to initialize identity verification", zap.Error(err))
	}
	zl.Info("identity verification configured", zap.String("provider", cfg.AuthProvider))

	store := repositories.NewStore(db.SQL)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	config.SetupMiddleware(e, cfg, zl)
	router.SetupRoutes(e, router.Dependencies{
		Friendships: services.NewFriendshipService(store, activities, zl),
		Directory:   services.NewDirectoryService(store, activities, zl),
		Verifier:    verifier,
	}, zl)

	go func() {
		zl.Info("friend-service listening", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newVerifier(ctx context.Context, cfg *config.Config) (middleware.TokenVerifier, error) {
	if cfg.AuthProvider == "firebase" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return nil, err
		}
		return middleware.NewFirebaseVerifier(app.AuthClient), nil
	}

	secret, err := cfg.ResolveJWTSecret()
	if err != nil {
		return nil, err
	}
	return middleware.NewJWTVerifier(secret), nil
}

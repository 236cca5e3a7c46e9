package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/GIRISHRV/moviereco/internal/config"
	"github.com/GIRISHRV/moviereco/internal/database"
	"github.com/GIRISHRV/moviereco/internal/handler"
	"github.com/GIRISHRV/moviereco/internal/middleware"
	"github.com/GIRISHRV/moviereco/internal/queue"
	"github.com/GIRISHRV/moviereco/internal/repository"
	"github.com/GIRISHRV/moviereco/internal/router"
	"github.com/GIRISHRV/moviereco/internal/service"
	"github.com/GIRISHRV/moviereco/internal/tmdb"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("ensure schema: %v", err)
	}
	cancel()

	// Redis is optional; a nil client disables rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	history := repository.NewWatchHistoryRepo(db)
	watchlist := repository.NewWatchlistRepo(db)
	ratings := repository.NewRatingRepo(db)

	tmdbClient := tmdb.NewClient(cfg.TMDBAPIKey, cfg.TMDBBaseURL, cfg.TMDBLanguage, nil)
	publisher := queue.NewPublisher("")
	library := service.NewLibrary(movies, history, watchlist, ratings, tmdbClient, publisher)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	userHandler := handler.NewUserHandler(cfg, users)
	movieHandler := handler.NewMovieHandler(tmdbClient)
	libraryHandler := handler.NewLibraryHandler(library)

	e := echo.New()
	e.Static("/uploads/avatars", cfg.UploadDir)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret, limiter)
	router.RegisterMovies(e, movieHandler)
	router.RegisterUsers(e, userHandler, libraryHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

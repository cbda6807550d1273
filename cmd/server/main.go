package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidtube/backend/internal/router"
	"github.com/anonto42/vidtube/backend/internal/storage"
	"github.com/anonto42/vidtube/backend/internal/store"
	"github.com/anonto42/vidtube/backend/pkg/config"
	"github.com/anonto42/vidtube/backend/validators"
)

func main() {
	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer db.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureIndexes(ctx, db.Database); err != nil {
		log.Fatalf("Index creation failed: %v", err)
	}

	media, err := storage.NewS3MediaStore(ctx, cfg.ObjectStore)
	if err != nil {
		log.Fatalf("Object store initialization failed: %v", err)
	}

	e := echo.New()
	e.Validator = validators.NewValidator()
	router.Setup(e, cfg, db.Database, media)

	log.Printf("Starting server on port %s (%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

package router

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/anonto42/vidtube/backend/internal/auth"
	"github.com/anonto42/vidtube/backend/internal/handlers"
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/storage"
	"github.com/anonto42/vidtube/backend/internal/views"
	"github.com/anonto42/vidtube/backend/pkg/config"
)

// Setup wires repositories, the view composer and the session manager
// into the route tree under /api/v1.
func Setup(e *echo.Echo, cfg *config.Config, db *mongo.Database, media storage.MediaStore) {
	e.HTTPErrorHandler = errorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     strings.Split(cfg.CORSOrigin, ","),
		AllowCredentials: true,
	}))

	userRepo := repositories.NewMongoUserRepository(db)
	videoRepo := repositories.NewMongoVideoRepository(db)
	commentRepo := repositories.NewMongoCommentRepository(db)
	tweetRepo := repositories.NewMongoTweetRepository(db)
	likeRepo := repositories.NewMongoLikeRepository(db)
	subscriptionRepo := repositories.NewMongoSubscriptionRepository(db)
	playlistRepo := repositories.NewMongoPlaylistRepository(db)

	composer := views.NewComposer(db)
	sessions := auth.NewSessionManager(userRepo,
		cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)

	authHandler := handlers.NewAuthHandler(userRepo, sessions, media)
	userHandler := handlers.NewUserHandler(userRepo, composer, media)
	videoHandler := handlers.NewVideoHandler(videoRepo, userRepo, composer, media)
	commentHandler := handlers.NewCommentHandler(commentRepo, videoRepo, composer)
	tweetHandler := handlers.NewTweetHandler(tweetRepo, composer)
	likeHandler := handlers.NewLikeHandler(likeRepo, videoRepo, commentRepo, tweetRepo, composer)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionRepo, userRepo, composer)
	playlistHandler := handlers.NewPlaylistHandler(playlistRepo, videoRepo, composer)
	dashboardHandler := handlers.NewDashboardHandler(composer)

	api := e.Group("/api/v1")
	api.GET("/healthcheck", handlers.Healthcheck)

	// Public reads resolve the viewer when a credential is present but
	// never require one.
	public := api.Group("", middleware.OptionalAuth(sessions))
	authHandler.RegisterAuthRoutes(public)
	videoHandler.RegisterPublicRoutes(public)
	commentHandler.RegisterPublicRoutes(public)
	tweetHandler.RegisterPublicRoutes(public)
	playlistHandler.RegisterPublicRoutes(public)

	protected := api.Group("", middleware.Auth(sessions))
	authHandler.RegisterSessionRoutes(protected)
	userHandler.RegisterRoutes(protected)
	videoHandler.RegisterRoutes(protected)
	commentHandler.RegisterRoutes(protected)
	tweetHandler.RegisterRoutes(protected)
	likeHandler.RegisterRoutes(protected)
	subscriptionHandler.RegisterRoutes(protected)
	playlistHandler.RegisterRoutes(protected)
	dashboardHandler.RegisterRoutes(protected)
}

// errorHandler renders every failure in the uniform response envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if httpErr, ok := err.(*echo.HTTPError); ok {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(status)
		}
	}

	if c.Request().Method == http.MethodHead {
		if err := c.NoContent(status); err != nil {
			log.Printf("error handler: %v", err)
		}
		return
	}

	resp := models.ApiErrorResponse{
		StatusCode: status,
		Success:    false,
		Message:    message,
		Errors:     fieldErrors(err),
	}
	if err := c.JSON(status, resp); err != nil {
		log.Printf("error handler: %v", err)
	}
}

// fieldErrors flattens validator failures into per-field messages.
// echo.HTTPError unwraps to its internal error, so the original
// validation error is reachable from the handler's return value.
func fieldErrors(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
	}
	return msgs
}

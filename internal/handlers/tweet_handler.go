package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/guard"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/views"
)

// TweetHandler serves the tweet lifecycle and the per-channel listing
type TweetHandler struct {
	tweets   repositories.TweetRepository
	composer *views.Composer
}

// NewTweetHandler creates a new TweetHandler
func NewTweetHandler(tweets repositories.TweetRepository, composer *views.Composer) *TweetHandler {
	return &TweetHandler{tweets: tweets, composer: composer}
}

// RegisterPublicRoutes registers the listing read endpoint
func (h *TweetHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/tweets/user/:userId", h.UserTweets)
}

// RegisterRoutes registers the mutating endpoints requiring a valid session
func (h *TweetHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/tweets", h.Create)
	g.PATCH("/tweets/:tweetId", h.Update)
	g.DELETE("/tweets/:tweetId", h.Delete)
}

// UserTweets returns a channel's tweets, newest first, with owner
// details, like counts and the viewer's like flags.
func (h *TweetHandler) UserTweets(c echo.Context) error {
	owner, err := parseObjectID(c.Param("userId"), "user id")
	if err != nil {
		return err
	}

	tweets, err := h.composer.UserTweets(c.Request().Context(), owner, viewerID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, tweets, "Tweets fetched successfully")
}

// Create posts a tweet for the viewer.
func (h *TweetHandler) Create(c echo.Context) error {
	var req models.TweetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tweet := &models.Tweet{Content: req.Content, Owner: currentUser(c).ID}
	if err := h.tweets.CreateTweet(c.Request().Context(), tweet); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusCreated, tweet, "Tweet created successfully")
}

// Update edits a tweet's content. Only the owner may edit.
func (h *TweetHandler) Update(c echo.Context) error {
	tweetID, err := parseObjectID(c.Param("tweetId"), "tweet id")
	if err != nil {
		return err
	}

	var req models.TweetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.checkOwner(c, tweetID); err != nil {
		return err
	}

	tweet, err := h.tweets.UpdateTweet(c.Request().Context(), tweetID, req.Content)
	if err != nil {
		return mapError(err, "Tweet does not exist")
	}
	return respond(c, http.StatusOK, tweet, "Tweet updated successfully")
}

// Delete removes a tweet and its likes. Only the owner may delete.
func (h *TweetHandler) Delete(c echo.Context) error {
	tweetID, err := parseObjectID(c.Param("tweetId"), "tweet id")
	if err != nil {
		return err
	}
	if err := h.checkOwner(c, tweetID); err != nil {
		return err
	}

	if err := h.tweets.DeleteTweet(c.Request().Context(), tweetID); err != nil {
		return mapError(err, "Tweet does not exist")
	}
	return respond(c, http.StatusOK, echo.Map{}, "Tweet deleted successfully")
}

func (h *TweetHandler) checkOwner(c echo.Context, tweetID primitive.ObjectID) error {
	tweet, err := h.tweets.GetTweetByID(c.Request().Context(), tweetID)
	if err != nil {
		return mapError(err, "Tweet does not exist")
	}
	if !guard.CanMutate(viewerID(c), tweet.Owner) {
		return echo.NewHTTPError(http.StatusForbidden, "You do not own this tweet")
	}
	return nil
}

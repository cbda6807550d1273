package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/views"
)

// LikeHandler serves like toggles and the viewer's liked-videos listing
type LikeHandler struct {
	likes    repositories.LikeRepository
	videos   repositories.VideoRepository
	comments repositories.CommentRepository
	tweets   repositories.TweetRepository
	composer *views.Composer
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	likes repositories.LikeRepository,
	videos repositories.VideoRepository,
	comments repositories.CommentRepository,
	tweets repositories.TweetRepository,
	composer *views.Composer,
) *LikeHandler {
	return &LikeHandler{likes: likes, videos: videos, comments: comments, tweets: tweets, composer: composer}
}

// RegisterRoutes registers the like routes requiring a valid session
func (h *LikeHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/likes/toggle/v/:videoId", h.ToggleVideo)
	g.POST("/likes/toggle/c/:commentId", h.ToggleComment)
	g.POST("/likes/toggle/t/:tweetId", h.ToggleTweet)
	g.GET("/likes/videos", h.LikedVideos)
}

// ToggleVideo flips the viewer's like on a video.
func (h *LikeHandler) ToggleVideo(c echo.Context) error {
	return h.toggle(c, "videoId", "video id", models.LikeVideo, func(ctx context.Context, id primitive.ObjectID) error {
		_, err := h.videos.GetVideoByID(ctx, id)
		return err
	}, "Video does not exist")
}

// ToggleComment flips the viewer's like on a comment.
func (h *LikeHandler) ToggleComment(c echo.Context) error {
	return h.toggle(c, "commentId", "comment id", models.LikeComment, func(ctx context.Context, id primitive.ObjectID) error {
		_, err := h.comments.GetCommentByID(ctx, id)
		return err
	}, "Comment does not exist")
}

// ToggleTweet flips the viewer's like on a tweet.
func (h *LikeHandler) ToggleTweet(c echo.Context) error {
	return h.toggle(c, "tweetId", "tweet id", models.LikeTweet, func(ctx context.Context, id primitive.ObjectID) error {
		_, err := h.tweets.GetTweetByID(ctx, id)
		return err
	}, "Tweet does not exist")
}

// LikedVideos returns a page of videos the viewer liked, most recent
// like first. Likes whose video has been deleted are skipped.
func (h *LikeHandler) LikedVideos(c echo.Context) error {
	liked, err := h.composer.LikedVideos(c.Request().Context(), currentUser(c).ID, pageFromQuery(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, liked, "Liked videos fetched successfully")
}

// toggle checks the target still exists, then flips the like row.
func (h *LikeHandler) toggle(
	c echo.Context,
	param, what string,
	kind models.LikeKind,
	exists func(ctx context.Context, id primitive.ObjectID) error,
	missing string,
) error {
	targetID, err := parseObjectID(c.Param(param), what)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := exists(ctx, targetID); err != nil {
		return mapError(err, missing)
	}

	liked, err := h.likes.Toggle(ctx, currentUser(c).ID, models.LikeTarget{Kind: kind, ID: targetID})
	if err != nil {
		return mapError(err, missing)
	}

	message := "Like removed"
	if liked {
		message = "Like added"
	}
	return respond(c, http.StatusOK, echo.Map{"liked": liked}, message)
}

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

// CommentHandler serves the comment lifecycle and the per-video thread
type CommentHandler struct {
	comments repositories.CommentRepository
	videos   repositories.VideoRepository
	composer *views.Composer
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments repositories.CommentRepository, videos repositories.VideoRepository, composer *views.Composer) *CommentHandler {
	return &CommentHandler{comments: comments, videos: videos, composer: composer}
}

// RegisterPublicRoutes registers the thread read endpoint
func (h *CommentHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/comments/:videoId", h.Thread)
}

// RegisterRoutes registers the mutating endpoints requiring a valid session
func (h *CommentHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/comments/:videoId", h.Create)
	g.PATCH("/comments/c/:commentId", h.Update)
	g.DELETE("/comments/c/:commentId", h.Delete)
}

// Thread returns a page of a video's comments, newest first, each with
// owner details, like count and the viewer's like flag.
func (h *CommentHandler) Thread(c echo.Context) error {
	videoID, err := parseObjectID(c.Param("videoId"), "video id")
	if err != nil {
		return err
	}
	if _, err := h.videos.GetVideoByID(c.Request().Context(), videoID); err != nil {
		return mapError(err, "Video does not exist")
	}

	thread, err := h.composer.CommentThread(c.Request().Context(), videoID, viewerID(c), pageFromQuery(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, thread, "Comments fetched successfully")
}

// Create adds a comment to an existing video.
func (h *CommentHandler) Create(c echo.Context) error {
	videoID, err := parseObjectID(c.Param("videoId"), "video id")
	if err != nil {
		return err
	}

	var req models.CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.videos.GetVideoByID(ctx, videoID); err != nil {
		return mapError(err, "Video does not exist")
	}

	comment := &models.Comment{
		Content: req.Content,
		Video:   videoID,
		Owner:   currentUser(c).ID,
	}
	if err := h.comments.CreateComment(ctx, comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusCreated, comment, "Comment added successfully")
}

// Update edits a comment's content. Only the owner may edit.
func (h *CommentHandler) Update(c echo.Context) error {
	commentID, err := parseObjectID(c.Param("commentId"), "comment id")
	if err != nil {
		return err
	}

	var req models.CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.checkOwner(c, commentID); err != nil {
		return err
	}

	comment, err := h.comments.UpdateComment(c.Request().Context(), commentID, req.Content)
	if err != nil {
		return mapError(err, "Comment does not exist")
	}
	return respond(c, http.StatusOK, comment, "Comment updated successfully")
}

// Delete removes a comment and its likes. Only the owner may delete.
func (h *CommentHandler) Delete(c echo.Context) error {
	commentID, err := parseObjectID(c.Param("commentId"), "comment id")
	if err != nil {
		return err
	}
	if err := h.checkOwner(c, commentID); err != nil {
		return err
	}

	if err := h.comments.DeleteComment(c.Request().Context(), commentID); err != nil {
		return mapError(err, "Comment does not exist")
	}
	return respond(c, http.StatusOK, echo.Map{}, "Comment deleted successfully")
}

func (h *CommentHandler) checkOwner(c echo.Context, commentID primitive.ObjectID) error {
	comment, err := h.comments.GetCommentByID(c.Request().Context(), commentID)
	if err != nil {
		return mapError(err, "Comment does not exist")
	}
	if !guard.CanMutate(viewerID(c), comment.Owner) {
		return echo.NewHTTPError(http.StatusForbidden, "You do not own this comment")
	}
	return nil
}

package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/guard"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/storage"
	"github.com/anonto42/vidtube/backend/internal/store"
	"github.com/anonto42/vidtube/backend/internal/views"
)

// VideoHandler serves the video lifecycle and the feed/detail read views
type VideoHandler struct {
	videos   repositories.VideoRepository
	users    repositories.UserRepository
	composer *views.Composer
	media    storage.MediaStore
}

// NewVideoHandler creates a new VideoHandler
func NewVideoHandler(videos repositories.VideoRepository, users repositories.UserRepository, composer *views.Composer, media storage.MediaStore) *VideoHandler {
	return &VideoHandler{videos: videos, users: users, composer: composer, media: media}
}

// RegisterPublicRoutes registers the read endpoints available without a session
func (h *VideoHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/videos", h.Feed)
	g.GET("/videos/:videoId", h.Detail)
}

// RegisterRoutes registers the mutating endpoints requiring a valid session
func (h *VideoHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/videos", h.Publish)
	g.PATCH("/videos/:videoId", h.Update)
	g.DELETE("/videos/:videoId", h.Delete)
	g.PATCH("/videos/toggle/publish/:videoId", h.TogglePublish)
}

// Feed returns a page of published videos with owner details. Supports
// free-text search, filtering by channel, and whitelisted sort keys.
func (h *VideoHandler) Feed(c echo.Context) error {
	params := views.FeedParams{
		Query:   c.QueryParam("query"),
		SortBy:  c.QueryParam("sortBy"),
		SortAsc: c.QueryParam("sortType") == "asc",
		Page:    pageFromQuery(c),
	}
	if raw := c.QueryParam("userId"); raw != "" {
		owner, err := parseObjectID(raw, "user id")
		if err != nil {
			return err
		}
		params.Owner = owner
	}

	feed, err := h.composer.VideoFeed(c.Request().Context(), params)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, feed, "Videos fetched successfully")
}

// Detail returns one video with its composed counts and viewer flags,
// bumping the view counter and the viewer's watch history as side effects.
func (h *VideoHandler) Detail(c echo.Context) error {
	videoID, err := parseObjectID(c.Param("videoId"), "video id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	viewer := viewerID(c)

	detail, err := h.composer.VideoDetail(ctx, videoID, viewer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Video does not exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// View accounting rides along with the read; a failed bump never
	// fails the response.
	if err := h.videos.IncrementViews(ctx, videoID); err != nil {
		log.Printf("incrementing views for %s: %v", videoID.Hex(), err)
	}
	if !viewer.IsZero() {
		if err := h.users.AppendWatchHistory(ctx, viewer, videoID); err != nil {
			log.Printf("appending watch history for %s: %v", viewer.Hex(), err)
		}
	}

	return respond(c, http.StatusOK, detail, "Video fetched successfully")
}

// Publish stores the uploaded assets and creates the video record.
// New videos start unpublished.
func (h *VideoHandler) Publish(c echo.Context) error {
	var req models.PublishVideoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	videoFH, err := c.FormFile("videoFile")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Video file is required")
	}
	thumbFH, err := c.FormFile("thumbnail")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Thumbnail file is required")
	}

	ctx := c.Request().Context()
	videoFile, err := uploadImage(ctx, h.media, videoFH, "videos")
	if err != nil {
		return err
	}
	thumbnail, err := uploadImage(ctx, h.media, thumbFH, "thumbnails")
	if err != nil {
		deleteAsset(ctx, h.media, *videoFile)
		return err
	}

	video := &models.Video{
		VideoFile:   *videoFile,
		Thumbnail:   *thumbnail,
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Owner:       currentUser(c).ID,
	}
	if err := h.videos.CreateVideo(ctx, video); err != nil {
		deleteAsset(ctx, h.media, *videoFile)
		deleteAsset(ctx, h.media, *thumbnail)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return respond(c, http.StatusCreated, video, "Video published successfully")
}

// Update edits title and description, with an optional thumbnail
// replacement. Only the owner may edit.
func (h *VideoHandler) Update(c echo.Context) error {
	videoID, err := parseObjectID(c.Param("videoId"), "video id")
	if err != nil {
		return err
	}

	var req models.UpdateVideoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	video, err := h.loadOwned(c, videoID)
	if err != nil {
		return err
	}

	var thumbnail *models.Image
	if fh, fhErr := c.FormFile("thumbnail"); fhErr == nil {
		thumbnail, err = uploadImage(ctx, h.media, fh, "thumbnails")
		if err != nil {
			return err
		}
	}

	updated, err := h.videos.UpdateVideo(ctx, videoID, req.Title, req.Description, thumbnail)
	if err != nil {
		if thumbnail != nil {
			deleteAsset(ctx, h.media, *thumbnail)
		}
		return mapError(err, "Video does not exist")
	}
	if thumbnail != nil {
		deleteAsset(ctx, h.media, video.Thumbnail)
	}

	return respond(c, http.StatusOK, updated, "Video updated successfully")
}

// Delete removes the video, its dependent likes and comments, and its
// stored media assets. Only the owner may delete.
func (h *VideoHandler) Delete(c echo.Context) error {
	videoID, err := parseObjectID(c.Param("videoId"), "video id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	video, err := h.loadOwned(c, videoID)
	if err != nil {
		return err
	}

	if err := h.videos.DeleteVideo(ctx, videoID); err != nil {
		return mapError(err, "Video does not exist")
	}
	deleteAsset(ctx, h.media, video.VideoFile)
	deleteAsset(ctx, h.media, video.Thumbnail)

	return respond(c, http.StatusOK, echo.Map{}, "Video deleted successfully")
}

// TogglePublish flips the publish flag. Only the owner may toggle.
func (h *VideoHandler) TogglePublish(c echo.Context) error {
	videoID, err := parseObjectID(c.Param("videoId"), "video id")
	if err != nil {
		return err
	}
	if _, err := h.loadOwned(c, videoID); err != nil {
		return err
	}

	video, err := h.videos.TogglePublish(c.Request().Context(), videoID)
	if err != nil {
		return mapError(err, "Video does not exist")
	}
	return respond(c, http.StatusOK, video, "Publish status toggled successfully")
}

// loadOwned fetches the video and verifies the viewer owns it.
func (h *VideoHandler) loadOwned(c echo.Context, videoID primitive.ObjectID) (*models.Video, error) {
	video, err := h.videos.GetVideoByID(c.Request().Context(), videoID)
	if err != nil {
		return nil, mapError(err, "Video does not exist")
	}
	if !guard.CanMutate(viewerID(c), video.Owner) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You do not own this video")
	}
	return video, nil
}

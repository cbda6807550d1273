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

// PlaylistHandler serves the playlist lifecycle and its read views
type PlaylistHandler struct {
	playlists repositories.PlaylistRepository
	videos    repositories.VideoRepository
	composer  *views.Composer
}

// NewPlaylistHandler creates a new PlaylistHandler
func NewPlaylistHandler(playlists repositories.PlaylistRepository, videos repositories.VideoRepository, composer *views.Composer) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists, videos: videos, composer: composer}
}

// RegisterPublicRoutes registers the read endpoints available without a session
func (h *PlaylistHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/playlists/:playlistId", h.Detail)
	g.GET("/playlists/user/:userId", h.UserPlaylists)
}

// RegisterRoutes registers the mutating endpoints requiring a valid session
func (h *PlaylistHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/playlists", h.Create)
	g.PATCH("/playlists/:playlistId", h.Update)
	g.DELETE("/playlists/:playlistId", h.Delete)
	g.PATCH("/playlists/add/:videoId/:playlistId", h.AddVideo)
	g.PATCH("/playlists/remove/:videoId/:playlistId", h.RemoveVideo)
}

// Detail returns a playlist with its published member videos and totals.
func (h *PlaylistHandler) Detail(c echo.Context) error {
	playlistID, err := parseObjectID(c.Param("playlistId"), "playlist id")
	if err != nil {
		return err
	}

	detail, err := h.composer.PlaylistDetail(c.Request().Context(), playlistID)
	if err != nil {
		return mapError(err, "Playlist does not exist")
	}
	return respond(c, http.StatusOK, detail, "Playlist fetched successfully")
}

// UserPlaylists lists an account's playlists with membership counts.
func (h *PlaylistHandler) UserPlaylists(c echo.Context) error {
	owner, err := parseObjectID(c.Param("userId"), "user id")
	if err != nil {
		return err
	}

	playlists, err := h.composer.UserPlaylists(c.Request().Context(), owner)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, playlists, "Playlists fetched successfully")
}

// Create makes an empty playlist owned by the viewer.
func (h *PlaylistHandler) Create(c echo.Context) error {
	var req models.PlaylistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	playlist := &models.Playlist{
		Name:        req.Name,
		Description: req.Description,
		Owner:       currentUser(c).ID,
	}
	if err := h.playlists.CreatePlaylist(c.Request().Context(), playlist); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusCreated, playlist, "Playlist created successfully")
}

// Update edits a playlist's name and description. Only the owner may edit.
func (h *PlaylistHandler) Update(c echo.Context) error {
	playlistID, err := parseObjectID(c.Param("playlistId"), "playlist id")
	if err != nil {
		return err
	}

	var req models.PlaylistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.checkOwner(c, playlistID); err != nil {
		return err
	}

	playlist, err := h.playlists.UpdatePlaylist(c.Request().Context(), playlistID, req.Name, req.Description)
	if err != nil {
		return mapError(err, "Playlist does not exist")
	}
	return respond(c, http.StatusOK, playlist, "Playlist updated successfully")
}

// Delete removes a playlist. Member videos are untouched.
func (h *PlaylistHandler) Delete(c echo.Context) error {
	playlistID, err := parseObjectID(c.Param("playlistId"), "playlist id")
	if err != nil {
		return err
	}
	if err := h.checkOwner(c, playlistID); err != nil {
		return err
	}

	if err := h.playlists.DeletePlaylist(c.Request().Context(), playlistID); err != nil {
		return mapError(err, "Playlist does not exist")
	}
	return respond(c, http.StatusOK, echo.Map{}, "Playlist deleted successfully")
}

// AddVideo adds a video to a playlist. The viewer must own both the
// playlist and the video; membership is deduplicated.
func (h *PlaylistHandler) AddVideo(c echo.Context) error {
	playlistID, videoID, err := h.memberParams(c)
	if err != nil {
		return err
	}
	if err := h.checkOwner(c, playlistID); err != nil {
		return err
	}

	ctx := c.Request().Context()
	video, err := h.videos.GetVideoByID(ctx, videoID)
	if err != nil {
		return mapError(err, "Video does not exist")
	}
	if !guard.CanMutate(viewerID(c), video.Owner) {
		return echo.NewHTTPError(http.StatusForbidden, "You do not own this video")
	}

	playlist, err := h.playlists.AddVideo(ctx, playlistID, videoID)
	if err != nil {
		return mapError(err, "Playlist does not exist")
	}
	return respond(c, http.StatusOK, playlist, "Video added to playlist")
}

// RemoveVideo removes a video from a playlist. Only the playlist owner
// is checked here so stale references to deleted or transferred videos
// can always be cleaned up.
func (h *PlaylistHandler) RemoveVideo(c echo.Context) error {
	playlistID, videoID, err := h.memberParams(c)
	if err != nil {
		return err
	}
	if err := h.checkOwner(c, playlistID); err != nil {
		return err
	}

	playlist, err := h.playlists.RemoveVideo(c.Request().Context(), playlistID, videoID)
	if err != nil {
		return mapError(err, "Playlist does not exist")
	}
	return respond(c, http.StatusOK, playlist, "Video removed from playlist")
}

func (h *PlaylistHandler) memberParams(c echo.Context) (playlistID, videoID primitive.ObjectID, err error) {
	playlistID, err = parseObjectID(c.Param("playlistId"), "playlist id")
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	videoID, err = parseObjectID(c.Param("videoId"), "video id")
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return playlistID, videoID, nil
}

func (h *PlaylistHandler) checkOwner(c echo.Context, playlistID primitive.ObjectID) error {
	playlist, err := h.playlists.GetPlaylistByID(c.Request().Context(), playlistID)
	if err != nil {
		return mapError(err, "Playlist does not exist")
	}
	if !guard.CanMutate(viewerID(c), playlist.Owner) {
		return echo.NewHTTPError(http.StatusForbidden, "You do not own this playlist")
	}
	return nil
}

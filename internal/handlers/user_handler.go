package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/storage"
	"github.com/anonto42/vidtube/backend/internal/store"
	"github.com/anonto42/vidtube/backend/internal/views"
)

// UserHandler serves account edits and the channel/history read views
type UserHandler struct {
	users    repositories.UserRepository
	composer *views.Composer
	media    storage.MediaStore
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users repositories.UserRepository, composer *views.Composer, media storage.MediaStore) *UserHandler {
	return &UserHandler{users: users, composer: composer, media: media}
}

// RegisterRoutes registers the user routes requiring a valid session
func (h *UserHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/users/c/:username", h.ChannelProfile)
	g.GET("/users/history", h.WatchHistory)
	g.PATCH("/users/update-account", h.UpdateAccount)
	g.PATCH("/users/avatar", h.UpdateAvatar)
	g.PATCH("/users/cover-image", h.UpdateCoverImage)
}

// ChannelProfile returns a channel's public profile with subscriber
// counts and the viewer's subscription flag.
func (h *UserHandler) ChannelProfile(c echo.Context) error {
	userName := c.Param("username")
	if userName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Username is required")
	}

	profile, err := h.composer.ChannelProfile(c.Request().Context(), userName, viewerID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Channel does not exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, profile, "Channel profile fetched successfully")
}

// WatchHistory returns the viewer's watched videos, most recently added first.
func (h *UserHandler) WatchHistory(c echo.Context) error {
	history, err := h.composer.WatchHistory(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, history, "Watch history fetched successfully")
}

// UpdateAccount edits the viewer's full name and/or email.
func (h *UserHandler) UpdateAccount(c echo.Context) error {
	var req models.UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.FullName == "" && req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Nothing to update")
	}

	user, err := h.users.UpdateAccount(c.Request().Context(), currentUser(c).ID, req.FullName, req.Email)
	if err != nil {
		return mapError(err, "User not found")
	}
	return respond(c, http.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar replaces the viewer's avatar and deletes the old asset.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatar", "avatars",
		h.users.UpdateAvatar, currentUser(c).Avatar, "Avatar updated successfully")
}

// UpdateCoverImage replaces the viewer's cover image and deletes the old asset.
func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "cover_image", "covers",
		h.users.UpdateCoverImage, currentUser(c).CoverImage, "Cover image updated successfully")
}

// updateImage uploads the replacement first, commits the swap, then
// deletes the superseded asset. A failed delete is logged only since the
// record already points at the new asset.
func (h *UserHandler) updateImage(
	c echo.Context,
	field, folder string,
	set func(ctx context.Context, id primitive.ObjectID, img models.Image) (*models.User, error),
	previous models.Image,
	message string,
) error {
	fh, err := c.FormFile(field)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Image file is required")
	}

	ctx := c.Request().Context()
	img, err := uploadImage(ctx, h.media, fh, folder)
	if err != nil {
		return err
	}

	user, err := set(ctx, currentUser(c).ID, *img)
	if err != nil {
		deleteAsset(ctx, h.media, *img)
		return mapError(err, "User not found")
	}
	deleteAsset(ctx, h.media, previous)

	return respond(c, http.StatusOK, user, message)
}

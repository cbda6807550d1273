package handlers

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/auth"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/storage"
	"github.com/anonto42/vidtube/backend/internal/store"
)

// SessionService is the slice of the session manager the handlers need.
type SessionService interface {
	Issue(ctx context.Context, user *models.User) (auth.TokenPair, error)
	Rotate(ctx context.Context, presented string) (*models.User, auth.TokenPair, error)
	Revoke(ctx context.Context, userID primitive.ObjectID) error
}

// AuthHandler handles account creation and the session lifecycle
type AuthHandler struct {
	users    repositories.UserRepository
	sessions SessionService
	media    storage.MediaStore
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users repositories.UserRepository, sessions SessionService, media storage.MediaStore) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, media: media}
}

// RegisterAuthRoutes registers the public session endpoints
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/users/register", h.Register)
	g.POST("/users/login", h.Login)
	g.POST("/users/refresh-token", h.Refresh)
}

// RegisterSessionRoutes registers the endpoints requiring a valid session
func (h *AuthHandler) RegisterSessionRoutes(g *echo.Group) {
	g.POST("/users/logout", h.Logout)
	g.POST("/users/change-password", h.ChangePassword)
	g.GET("/users/current-user", h.CurrentUser)
}

// Register creates an account from a multipart form carrying the profile
// fields plus a required avatar image and an optional cover image.
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	avatar, err := h.uploadFormImage(c, "avatar", "avatars")
	if err != nil {
		return err
	}
	if avatar == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Avatar file is required")
	}
	cover, err := h.uploadFormImage(c, "cover_image", "covers")
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		UserName: req.UserName,
		Email:    req.Email,
		FullName: req.FullName,
		Password: hash,
		Avatar:   *avatar,
	}
	if cover != nil {
		user.CoverImage = *cover
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		deleteAsset(ctx, h.media, *avatar)
		if cover != nil {
			deleteAsset(ctx, h.media, *cover)
		}
		if store.IsDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Username or email already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return respond(c, http.StatusCreated, user, "User registered successfully")
}

// Login verifies credentials and issues a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	var user *models.User
	var err error
	if req.UserName != "" {
		user, err = h.users.GetUserByUserName(ctx, req.UserName)
	} else {
		user, err = h.users.GetUserByEmail(ctx, req.Email)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User does not exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user credentials")
	}

	pair, err := h.sessions.Issue(ctx, user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue tokens")
	}
	setAuthCookies(c, pair)

	return respond(c, http.StatusOK, echo.Map{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "User logged in successfully")
}

// Refresh rotates a refresh credential presented in the refreshToken
// cookie or the request body. A stale or already-used credential fails
// hard, forcing re-authentication.
func (h *AuthHandler) Refresh(c echo.Context) error {
	presented := ""
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req models.RefreshRequest
		if err := c.Bind(&req); err == nil {
			presented = req.RefreshToken
		}
	}
	if presented == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized request")
	}

	_, pair, err := h.sessions.Rotate(c.Request().Context(), presented)
	if err != nil {
		if errors.Is(err, repositories.ErrTokenReused) || errors.Is(err, auth.ErrInvalidToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Refresh token expired or used")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	setAuthCookies(c, pair)

	return respond(c, http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "Access token refreshed")
}

// Logout revokes the session and clears both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	user := currentUser(c)
	if err := h.sessions.Revoke(c.Request().Context(), user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	clearAuthCookies(c)
	return respond(c, http.StatusOK, echo.Map{}, "User logged out")
}

// ChangePassword verifies the old password before storing a new hash.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req models.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user := currentUser(c)
	if !auth.CheckPassword(user.Password, req.OldPassword) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid old password")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}
	if err := h.users.UpdatePassword(c.Request().Context(), user.ID, hash); err != nil {
		return mapError(err, "User not found")
	}
	return respond(c, http.StatusOK, echo.Map{}, "Password changed successfully")
}

// CurrentUser returns the viewer's own account.
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	return respond(c, http.StatusOK, currentUser(c), "Current user fetched successfully")
}

// uploadFormImage stores an optional multipart image and returns its
// asset pair, or nil when the field is absent.
func (h *AuthHandler) uploadFormImage(c echo.Context, field, folder string) (*models.Image, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	img, uploadErr := uploadImage(c.Request().Context(), h.media, fh, folder)
	if uploadErr != nil {
		return nil, uploadErr
	}
	return img, nil
}

// uploadImage streams one multipart file into the media store.
func uploadImage(ctx context.Context, media storage.MediaStore, fh *multipart.FileHeader, folder string) (*models.Image, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Failed to read uploaded file")
	}
	defer src.Close()

	url, publicID, err := media.Upload(ctx, folder, fh.Filename, src)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to store uploaded file")
	}
	return &models.Image{URL: url, PublicID: publicID}, nil
}

// deleteAsset removes a replaced or orphaned media asset; failures are
// logged because the primary operation already committed.
func deleteAsset(ctx context.Context, media storage.MediaStore, img models.Image) {
	if img.PublicID == "" {
		return
	}
	if err := media.Delete(ctx, img.PublicID); err != nil {
		log.Printf("deleting media asset %s: %v", img.PublicID, err)
	}
}

func setAuthCookies(c echo.Context, pair auth.TokenPair) {
	c.SetCookie(authCookie("accessToken", pair.AccessToken, 0))
	c.SetCookie(authCookie("refreshToken", pair.RefreshToken, 0))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(authCookie("accessToken", "", -1))
	c.SetCookie(authCookie("refreshToken", "", -1))
}

func authCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

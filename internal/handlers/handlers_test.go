package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/auth"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/store"
	"github.com/anonto42/vidtube/backend/validators"
)

// fakeUserRepo keeps one account in memory.
type fakeUserRepo struct {
	user *models.User
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	if f.user != nil && (f.user.UserName == user.UserName || f.user.Email == user.Email) {
		return errors.New("E11000 duplicate key error")
	}
	user.ID = primitive.NewObjectID()
	f.user = user
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, store.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeUserRepo) GetUserByUserName(_ context.Context, userName string) (*models.User, error) {
	if f.user == nil || f.user.UserName != userName {
		return nil, store.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, store.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeUserRepo) UpdateAccount(_ context.Context, id primitive.ObjectID, fullName, email string) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, store.ErrNotFound
	}
	if fullName != "" {
		f.user.FullName = fullName
	}
	if email != "" {
		f.user.Email = email
	}
	return f.user, nil
}

func (f *fakeUserRepo) UpdateAvatar(_ context.Context, id primitive.ObjectID, avatar models.Image) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, store.ErrNotFound
	}
	f.user.Avatar = avatar
	return f.user, nil
}

func (f *fakeUserRepo) UpdateCoverImage(_ context.Context, id primitive.ObjectID, cover models.Image) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, store.ErrNotFound
	}
	f.user.CoverImage = cover
	return f.user, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	if f.user == nil || f.user.ID != id {
		return store.ErrNotFound
	}
	f.user.Password = passwordHash
	return nil
}

func (f *fakeUserRepo) AppendWatchHistory(_ context.Context, userID, videoID primitive.ObjectID) error {
	if f.user == nil || f.user.ID != userID {
		return store.ErrNotFound
	}
	f.user.WatchHistory = append(f.user.WatchHistory, videoID)
	return nil
}

func (f *fakeUserRepo) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	f.user.RefreshToken = token
	return nil
}

func (f *fakeUserRepo) SwapRefreshToken(_ context.Context, id primitive.ObjectID, presented, next string) error {
	if f.user.RefreshToken != presented {
		return repositories.ErrTokenReused
	}
	f.user.RefreshToken = next
	return nil
}

func (f *fakeUserRepo) ClearRefreshToken(_ context.Context, id primitive.ObjectID) error {
	f.user.RefreshToken = ""
	return nil
}

// fakeSessions canned session manager.
type fakeSessions struct {
	pair      auth.TokenPair
	rotateErr error
	revoked   bool
}

func (f *fakeSessions) Issue(_ context.Context, _ *models.User) (auth.TokenPair, error) {
	return f.pair, nil
}

func (f *fakeSessions) Rotate(_ context.Context, _ string) (*models.User, auth.TokenPair, error) {
	if f.rotateErr != nil {
		return nil, auth.TokenPair{}, f.rotateErr
	}
	return nil, f.pair, nil
}

func (f *fakeSessions) Revoke(_ context.Context, _ primitive.ObjectID) error {
	f.revoked = true
	return nil
}

// fakeMediaStore records uploads and deletes without touching a bucket.
type fakeMediaStore struct {
	uploads int
	deleted []string
}

func (f *fakeMediaStore) Upload(_ context.Context, folder, filename string, _ io.Reader) (string, string, error) {
	f.uploads++
	key := folder + "/" + filename
	return "https://media.test/" + key, key, nil
}

func (f *fakeMediaStore) Delete(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

// fakeVideoRepo keeps one video in memory.
type fakeVideoRepo struct {
	video *models.Video
}

func (f *fakeVideoRepo) CreateVideo(_ context.Context, video *models.Video) error {
	video.ID = primitive.NewObjectID()
	f.video = video
	return nil
}

func (f *fakeVideoRepo) GetVideoByID(_ context.Context, id primitive.ObjectID) (*models.Video, error) {
	if f.video == nil || f.video.ID != id {
		return nil, store.ErrNotFound
	}
	return f.video, nil
}

func (f *fakeVideoRepo) UpdateVideo(_ context.Context, id primitive.ObjectID, title, description string, thumbnail *models.Image) (*models.Video, error) {
	if f.video == nil || f.video.ID != id {
		return nil, store.ErrNotFound
	}
	f.video.Title = title
	f.video.Description = description
	if thumbnail != nil {
		f.video.Thumbnail = *thumbnail
	}
	return f.video, nil
}

func (f *fakeVideoRepo) DeleteVideo(_ context.Context, id primitive.ObjectID) error {
	if f.video == nil || f.video.ID != id {
		return store.ErrNotFound
	}
	f.video = nil
	return nil
}

func (f *fakeVideoRepo) TogglePublish(_ context.Context, id primitive.ObjectID) (*models.Video, error) {
	if f.video == nil || f.video.ID != id {
		return nil, store.ErrNotFound
	}
	f.video.IsPublished = !f.video.IsPublished
	return f.video, nil
}

func (f *fakeVideoRepo) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	if f.video == nil || f.video.ID != id {
		return store.ErrNotFound
	}
	f.video.Views++
	return nil
}

// fakeCommentRepo keeps one comment in memory.
type fakeCommentRepo struct {
	comment *models.Comment
}

func (f *fakeCommentRepo) CreateComment(_ context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	f.comment = comment
	return nil
}

func (f *fakeCommentRepo) GetCommentByID(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	if f.comment == nil || f.comment.ID != id {
		return nil, store.ErrNotFound
	}
	return f.comment, nil
}

func (f *fakeCommentRepo) UpdateComment(_ context.Context, id primitive.ObjectID, content string) (*models.Comment, error) {
	if f.comment == nil || f.comment.ID != id {
		return nil, store.ErrNotFound
	}
	f.comment.Content = content
	return f.comment, nil
}

func (f *fakeCommentRepo) DeleteComment(_ context.Context, id primitive.ObjectID) error {
	if f.comment == nil || f.comment.ID != id {
		return store.ErrNotFound
	}
	f.comment = nil
	return nil
}

// fakeLikeRepo flips membership in memory.
type fakeLikeRepo struct {
	present map[string]bool
}

func (f *fakeLikeRepo) Toggle(_ context.Context, likedBy primitive.ObjectID, target models.LikeTarget) (bool, error) {
	if f.present == nil {
		f.present = map[string]bool{}
	}
	key := likedBy.Hex() + "/" + string(target.Kind) + "/" + target.ID.Hex()
	f.present[key] = !f.present[key]
	return f.present[key], nil
}

// fakeSubscriptionRepo flips membership, rejecting self-subscription.
type fakeSubscriptionRepo struct {
	subscribed bool
}

func (f *fakeSubscriptionRepo) Toggle(_ context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	if subscriber == channel {
		return false, repositories.ErrSelfSubscription
	}
	f.subscribed = !f.subscribed
	return f.subscribed, nil
}

// fakePlaylistRepo keeps one playlist in memory.
type fakePlaylistRepo struct {
	playlist *models.Playlist
}

func (f *fakePlaylistRepo) CreatePlaylist(_ context.Context, playlist *models.Playlist) error {
	playlist.ID = primitive.NewObjectID()
	f.playlist = playlist
	return nil
}

func (f *fakePlaylistRepo) GetPlaylistByID(_ context.Context, id primitive.ObjectID) (*models.Playlist, error) {
	if f.playlist == nil || f.playlist.ID != id {
		return nil, store.ErrNotFound
	}
	return f.playlist, nil
}

func (f *fakePlaylistRepo) UpdatePlaylist(_ context.Context, id primitive.ObjectID, name, description string) (*models.Playlist, error) {
	if f.playlist == nil || f.playlist.ID != id {
		return nil, store.ErrNotFound
	}
	f.playlist.Name = name
	f.playlist.Description = description
	return f.playlist, nil
}

func (f *fakePlaylistRepo) DeletePlaylist(_ context.Context, id primitive.ObjectID) error {
	if f.playlist == nil || f.playlist.ID != id {
		return store.ErrNotFound
	}
	f.playlist = nil
	return nil
}

func (f *fakePlaylistRepo) AddVideo(_ context.Context, playlistID, videoID primitive.ObjectID) (*models.Playlist, error) {
	if f.playlist == nil || f.playlist.ID != playlistID {
		return nil, store.ErrNotFound
	}
	for _, existing := range f.playlist.Videos {
		if existing == videoID {
			return f.playlist, nil
		}
	}
	f.playlist.Videos = append(f.playlist.Videos, videoID)
	return f.playlist, nil
}

func (f *fakePlaylistRepo) RemoveVideo(_ context.Context, playlistID, videoID primitive.ObjectID) (*models.Playlist, error) {
	if f.playlist == nil || f.playlist.ID != playlistID {
		return nil, store.ErrNotFound
	}
	kept := f.playlist.Videos[:0]
	for _, existing := range f.playlist.Videos {
		if existing != videoID {
			kept = append(kept, existing)
		}
	}
	f.playlist.Videos = kept
	return f.playlist, nil
}

// newTestContext builds an echo context with the request validator wired.
func newTestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = validators.NewValidator()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asUser(c echo.Context, user *models.User) {
	c.Set("user", user)
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr.Code
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &models.User{
		ID:       primitive.NewObjectID(),
		UserName: "aria",
		Email:    "aria@example.com",
		FullName: "Aria Stone",
		Password: hash,
	}
}

func TestLoginWithUserName(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	users := &fakeUserRepo{user: user}
	sessions := &fakeSessions{pair: auth.TokenPair{AccessToken: "acc", RefreshToken: "ref"}}
	h := NewAuthHandler(users, sessions, &fakeMediaStore{})

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/users/login",
		`{"username":"aria","password":"hunter2hunter2"}`)

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"acc"`)

	cookies := rec.Result().Cookies()
	names := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		names = append(names, cookie.Name)
		assert.True(t, cookie.HttpOnly)
	}
	assert.Contains(t, names, "accessToken")
	assert.Contains(t, names, "refreshToken")
}

func TestLoginWrongPassword(t *testing.T) {
	users := &fakeUserRepo{user: testUser(t, "hunter2hunter2")}
	h := NewAuthHandler(users, &fakeSessions{}, &fakeMediaStore{})

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/users/login",
		`{"username":"aria","password":"not the password"}`)

	err := h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestLoginUnknownUser(t *testing.T) {
	users := &fakeUserRepo{user: testUser(t, "hunter2hunter2")}
	h := NewAuthHandler(users, &fakeSessions{}, &fakeMediaStore{})

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/users/login",
		`{"username":"nobody","password":"whatever123"}`)

	err := h.Login(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestRefreshRejectsReusedCredential(t *testing.T) {
	sessions := &fakeSessions{rotateErr: repositories.ErrTokenReused}
	h := NewAuthHandler(&fakeUserRepo{}, sessions, &fakeMediaStore{})

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/users/refresh-token",
		`{"refresh_token":"previously-used"}`)

	err := h.Refresh(c)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestRefreshWithoutCredential(t *testing.T) {
	h := NewAuthHandler(&fakeUserRepo{}, &fakeSessions{}, &fakeMediaStore{})

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/users/refresh-token", "")

	err := h.Refresh(c)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestLogoutRevokesAndClearsCookies(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	sessions := &fakeSessions{}
	h := NewAuthHandler(&fakeUserRepo{user: user}, sessions, &fakeMediaStore{})

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/users/logout", "")
	asUser(c, user)

	require.NoError(t, h.Logout(c))
	assert.True(t, sessions.revoked)
	for _, cookie := range rec.Result().Cookies() {
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	}
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	h := NewAuthHandler(&fakeUserRepo{user: user}, &fakeSessions{}, &fakeMediaStore{})

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/users/change-password",
		`{"old_password":"wrong","new_password":"longenoughnew"}`)
	asUser(c, user)

	err := h.ChangePassword(c)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestChangePasswordStoresNewHash(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	users := &fakeUserRepo{user: user}
	h := NewAuthHandler(users, &fakeSessions{}, &fakeMediaStore{})

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/users/change-password",
		`{"old_password":"hunter2hunter2","new_password":"longenoughnew"}`)
	asUser(c, user)

	require.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, auth.CheckPassword(users.user.Password, "longenoughnew"))
}

func TestCommentCreateOnMissingVideo(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	h := NewCommentHandler(&fakeCommentRepo{}, &fakeVideoRepo{}, nil)

	c, _ := newTestContext(t, http.MethodPost, "/", `{"content":"nice video"}`)
	c.SetParamNames("videoId")
	c.SetParamValues(primitive.NewObjectID().Hex())
	asUser(c, user)

	err := h.Create(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestCommentUpdateByNonOwner(t *testing.T) {
	owner := primitive.NewObjectID()
	comment := &models.Comment{ID: primitive.NewObjectID(), Content: "first", Owner: owner}
	h := NewCommentHandler(&fakeCommentRepo{comment: comment}, &fakeVideoRepo{}, nil)

	c, _ := newTestContext(t, http.MethodPatch, "/", `{"content":"hijacked"}`)
	c.SetParamNames("commentId")
	c.SetParamValues(comment.ID.Hex())
	asUser(c, testUser(t, "hunter2hunter2"))

	err := h.Update(c)
	assert.Equal(t, http.StatusForbidden, httpStatus(t, err))
	assert.Equal(t, "first", comment.Content)
}

func TestCommentDeleteByOwner(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	comments := &fakeCommentRepo{comment: &models.Comment{ID: primitive.NewObjectID(), Owner: user.ID}}
	h := NewCommentHandler(comments, &fakeVideoRepo{}, nil)

	c, rec := newTestContext(t, http.MethodDelete, "/", "")
	c.SetParamNames("commentId")
	c.SetParamValues(comments.comment.ID.Hex())
	asUser(c, user)

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, comments.comment)
}

func TestToggleVideoLike(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	video := &models.Video{ID: primitive.NewObjectID(), Owner: primitive.NewObjectID()}
	h := NewLikeHandler(&fakeLikeRepo{}, &fakeVideoRepo{video: video}, &fakeCommentRepo{}, nil, nil)

	first, rec := newTestContext(t, http.MethodPost, "/", "")
	first.SetParamNames("videoId")
	first.SetParamValues(video.ID.Hex())
	asUser(first, user)

	require.NoError(t, h.ToggleVideo(first))
	assert.Contains(t, rec.Body.String(), `"liked":true`)

	second, rec := newTestContext(t, http.MethodPost, "/", "")
	second.SetParamNames("videoId")
	second.SetParamValues(video.ID.Hex())
	asUser(second, user)

	require.NoError(t, h.ToggleVideo(second))
	assert.Contains(t, rec.Body.String(), `"liked":false`)
}

func TestToggleLikeMissingVideo(t *testing.T) {
	h := NewLikeHandler(&fakeLikeRepo{}, &fakeVideoRepo{}, &fakeCommentRepo{}, nil, nil)

	c, _ := newTestContext(t, http.MethodPost, "/", "")
	c.SetParamNames("videoId")
	c.SetParamValues(primitive.NewObjectID().Hex())
	asUser(c, testUser(t, "hunter2hunter2"))

	err := h.ToggleVideo(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestSubscribeToSelf(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	h := NewSubscriptionHandler(&fakeSubscriptionRepo{}, &fakeUserRepo{user: user}, nil)

	c, _ := newTestContext(t, http.MethodPost, "/", "")
	c.SetParamNames("channelId")
	c.SetParamValues(user.ID.Hex())
	asUser(c, user)

	err := h.Toggle(c)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestPlaylistAddVideoNotOwned(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	playlist := &models.Playlist{ID: primitive.NewObjectID(), Owner: user.ID}
	video := &models.Video{ID: primitive.NewObjectID(), Owner: primitive.NewObjectID()}
	h := NewPlaylistHandler(&fakePlaylistRepo{playlist: playlist}, &fakeVideoRepo{video: video}, nil)

	c, _ := newTestContext(t, http.MethodPatch, "/", "")
	c.SetParamNames("videoId", "playlistId")
	c.SetParamValues(video.ID.Hex(), playlist.ID.Hex())
	asUser(c, user)

	err := h.AddVideo(c)
	assert.Equal(t, http.StatusForbidden, httpStatus(t, err))
	assert.Empty(t, playlist.Videos)
}

func TestPlaylistAddVideoDeduplicates(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	playlist := &models.Playlist{ID: primitive.NewObjectID(), Owner: user.ID}
	video := &models.Video{ID: primitive.NewObjectID(), Owner: user.ID}
	h := NewPlaylistHandler(&fakePlaylistRepo{playlist: playlist}, &fakeVideoRepo{video: video}, nil)

	for i := 0; i < 2; i++ {
		c, _ := newTestContext(t, http.MethodPatch, "/", "")
		c.SetParamNames("videoId", "playlistId")
		c.SetParamValues(video.ID.Hex(), playlist.ID.Hex())
		asUser(c, user)
		require.NoError(t, h.AddVideo(c))
	}
	assert.Len(t, playlist.Videos, 1)
}

func TestVideoTogglePublishByNonOwner(t *testing.T) {
	video := &models.Video{ID: primitive.NewObjectID(), Owner: primitive.NewObjectID()}
	h := NewVideoHandler(&fakeVideoRepo{video: video}, &fakeUserRepo{}, nil, &fakeMediaStore{})

	c, _ := newTestContext(t, http.MethodPatch, "/", "")
	c.SetParamNames("videoId")
	c.SetParamValues(video.ID.Hex())
	asUser(c, testUser(t, "hunter2hunter2"))

	err := h.TogglePublish(c)
	assert.Equal(t, http.StatusForbidden, httpStatus(t, err))
}

func TestVideoDeleteRemovesMediaAssets(t *testing.T) {
	user := testUser(t, "hunter2hunter2")
	video := &models.Video{
		ID:        primitive.NewObjectID(),
		Owner:     user.ID,
		VideoFile: models.Image{URL: "u1", PublicID: "videos/a"},
		Thumbnail: models.Image{URL: "u2", PublicID: "thumbnails/b"},
	}
	media := &fakeMediaStore{}
	h := NewVideoHandler(&fakeVideoRepo{video: video}, &fakeUserRepo{}, nil, media)

	c, rec := newTestContext(t, http.MethodDelete, "/", "")
	c.SetParamNames("videoId")
	c.SetParamValues(video.ID.Hex())
	asUser(c, user)

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{"videos/a", "thumbnails/b"}, media.deleted)
}

func TestInvalidObjectIDIsBadRequest(t *testing.T) {
	h := NewLikeHandler(&fakeLikeRepo{}, &fakeVideoRepo{}, &fakeCommentRepo{}, nil, nil)

	c, _ := newTestContext(t, http.MethodPost, "/", "")
	c.SetParamNames("videoId")
	c.SetParamValues("definitely-not-hex")
	asUser(c, testUser(t, "hunter2hunter2"))

	err := h.ToggleVideo(c)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

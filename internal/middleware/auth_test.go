package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/auth"
	"github.com/anonto42/vidtube/backend/internal/models"
)

// fakeVerifier accepts exactly one token. A non-nil err fails every
// verification, mimicking an unreachable store.
type fakeVerifier struct {
	token string
	user  *models.User
	err   error
}

func (f *fakeVerifier) VerifyAccess(_ context.Context, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token != f.token {
		return nil, auth.ErrInvalidToken
	}
	return f.user, nil
}

func newVerifier() *fakeVerifier {
	return &fakeVerifier{
		token: "valid-token",
		user:  &models.User{ID: primitive.NewObjectID(), UserName: "aria"},
	}
}

func runAuth(t *testing.T, mw echo.MiddlewareFunc, mutate func(*http.Request)) (*models.User, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mutate(req)
	c := e.NewContext(req, httptest.NewRecorder())

	var seen *models.User
	err := mw(func(c echo.Context) error {
		seen = UserFrom(c)
		return nil
	})(c)
	return seen, err
}

func TestAuthFromCookie(t *testing.T) {
	verifier := newVerifier()
	seen, err := runAuth(t, Auth(verifier), func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid-token"})
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, verifier.user.ID, seen.ID)
}

func TestAuthFromBearerHeader(t *testing.T) {
	verifier := newVerifier()
	seen, err := runAuth(t, Auth(verifier), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer valid-token")
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	_, err := runAuth(t, Auth(newVerifier()), func(*http.Request) {})

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthRejectsBadToken(t *testing.T) {
	_, err := runAuth(t, Auth(newVerifier()), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer forged")
	})

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthSurfacesVerifierOutage(t *testing.T) {
	verifier := newVerifier()
	verifier.err = errors.New("server selection timeout")

	_, err := runAuth(t, Auth(verifier), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer valid-token")
	})

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
}

func TestOptionalAuthAnonymousPassesThrough(t *testing.T) {
	seen, err := runAuth(t, OptionalAuth(newVerifier()), func(*http.Request) {})
	require.NoError(t, err)
	assert.Nil(t, seen, "anonymous request reaches the handler with no viewer")
}

func TestOptionalAuthResolvesViewer(t *testing.T) {
	verifier := newVerifier()
	seen, err := runAuth(t, OptionalAuth(verifier), func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid-token"})
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, verifier.user.ID, seen.ID)
}

func TestOptionalAuthIgnoresBadToken(t *testing.T) {
	seen, err := runAuth(t, OptionalAuth(newVerifier()), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer forged")
	})
	require.NoError(t, err)
	assert.Nil(t, seen)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/store"
)

// currentUser returns the authenticated viewer, nil if the route is public.
func currentUser(c echo.Context) *models.User {
	return middleware.UserFrom(c)
}

// viewerID returns the viewer's id, or the zero id for anonymous requests
// so viewer-relative flags uniformly evaluate to false.
func viewerID(c echo.Context) primitive.ObjectID {
	if user := middleware.UserFrom(c); user != nil {
		return user.ID
	}
	return primitive.NilObjectID
}

// parseObjectID validates a path/query id, mapping bad input to a 400.
func parseObjectID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what)
	}
	return id, nil
}

// pageFromQuery reads the 1-based page cursor from the query string.
// Out-of-range values are clamped by the store.
func pageFromQuery(c echo.Context) store.Page {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	return store.Page{Number: page, Size: limit}.Normalize()
}

// mapError lifts repository/store sentinels to their HTTP status.
func mapError(err error, notFoundMessage string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFoundMessage)
	case store.IsDuplicate(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, repositories.ErrTokenReused):
		return echo.NewHTTPError(http.StatusUnauthorized, "Refresh token expired or used")
	case errors.Is(err, repositories.ErrSelfSubscription):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// respond writes the uniform success envelope.
func respond(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, models.NewApiResponse(status, data, message))
}

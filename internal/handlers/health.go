package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Healthcheck reports service liveness.
func Healthcheck(c echo.Context) error {
	return respond(c, http.StatusOK, "OK", "Health check passed")
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidtube/backend/internal/views"
)

// DashboardHandler serves the owner-facing channel dashboard
type DashboardHandler struct {
	composer *views.Composer
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(composer *views.Composer) *DashboardHandler {
	return &DashboardHandler{composer: composer}
}

// RegisterRoutes registers the dashboard routes requiring a valid session
func (h *DashboardHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard/stats", h.Stats)
	g.GET("/dashboard/videos", h.Videos)
}

// Stats returns aggregate totals for the viewer's channel. A channel
// with no videos gets zeroes, not an error.
func (h *DashboardHandler) Stats(c echo.Context) error {
	stats, err := h.composer.ChannelStats(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, stats, "Channel stats fetched successfully")
}

// Videos returns a page of all the viewer's videos, published or not.
func (h *DashboardHandler) Videos(c echo.Context) error {
	videos, err := h.composer.ChannelVideos(c.Request().Context(), currentUser(c).ID, pageFromQuery(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, videos, "Channel videos fetched successfully")
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/views"
)

// SubscriptionHandler serves subscription toggles and the two listings
type SubscriptionHandler struct {
	subscriptions repositories.SubscriptionRepository
	users         repositories.UserRepository
	composer      *views.Composer
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptions repositories.SubscriptionRepository, users repositories.UserRepository, composer *views.Composer) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions, users: users, composer: composer}
}

// RegisterRoutes registers the subscription routes requiring a valid session
func (h *SubscriptionHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/subscriptions/c/:channelId", h.Toggle)
	g.GET("/subscriptions/c/:channelId", h.Subscribers)
	g.GET("/subscriptions/u/:subscriberId", h.SubscribedChannels)
}

// Toggle flips the viewer's subscription to a channel. Subscribing to
// yourself is rejected.
func (h *SubscriptionHandler) Toggle(c echo.Context) error {
	channelID, err := parseObjectID(c.Param("channelId"), "channel id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.users.GetUserByID(ctx, channelID); err != nil {
		return mapError(err, "Channel does not exist")
	}

	subscribed, err := h.subscriptions.Toggle(ctx, currentUser(c).ID, channelID)
	if err != nil {
		return mapError(err, "Channel does not exist")
	}

	message := "Unsubscribed"
	if subscribed {
		message = "Subscribed"
	}
	return respond(c, http.StatusOK, echo.Map{"subscribed": subscribed}, message)
}

// Subscribers lists the accounts subscribed to a channel, each flagged
// with whether the channel subscribes back.
func (h *SubscriptionHandler) Subscribers(c echo.Context) error {
	channelID, err := parseObjectID(c.Param("channelId"), "channel id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.users.GetUserByID(ctx, channelID); err != nil {
		return mapError(err, "Channel does not exist")
	}

	subscribers, err := h.composer.ChannelSubscribers(ctx, channelID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, subscribers, "Subscribers fetched successfully")
}

// SubscribedChannels lists the channels an account subscribes to, each
// with its latest published video.
func (h *SubscriptionHandler) SubscribedChannels(c echo.Context) error {
	subscriberID, err := parseObjectID(c.Param("subscriberId"), "subscriber id")
	if err != nil {
		return err
	}

	channels, err := h.composer.SubscribedChannels(c.Request().Context(), subscriberID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, channels, "Subscribed channels fetched successfully")
}

package views

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/store"
)

// ChannelProfile is the public channel page for a handle, with counts and
// the viewer's subscription flag.
type ChannelProfile struct {
	ID                primitive.ObjectID `json:"id" bson:"_id"`
	UserName          string             `json:"username" bson:"username"`
	FullName          string             `json:"full_name" bson:"full_name"`
	Email             string             `json:"email" bson:"email"`
	Avatar            models.Image       `json:"avatar" bson:"avatar"`
	CoverImage        models.Image       `json:"cover_image" bson:"cover_image"`
	SubscribersCount  int64              `json:"subscribers_count" bson:"subscribers_count"`
	SubscribedToCount int64              `json:"subscribed_to_count" bson:"subscribed_to_count"`
	IsSubscribed      bool               `json:"is_subscribed" bson:"is_subscribed"`
}

func channelProfilePipeline(userName string, viewer primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"username": strings.ToLower(strings.TrimSpace(userName))},
		store.Join{
			From:         store.Subscriptions,
			LocalField:   "_id",
			ForeignField: "channel",
			As:           "subscribers",
		},
		store.Join{
			From:         store.Subscriptions,
			LocalField:   "_id",
			ForeignField: "subscriber",
			As:           "subscribed_to",
		},
		store.Annotate{
			"subscribers_count":   size("$subscribers"),
			"subscribed_to_count": size("$subscribed_to"),
			"is_subscribed":       flagIn(viewer, "$subscribers.subscriber"),
		},
		store.Project{
			"username":            1,
			"full_name":           1,
			"email":               1,
			"avatar":              1,
			"cover_image":         1,
			"subscribers_count":   1,
			"subscribed_to_count": 1,
			"is_subscribed":       1,
		},
	}
}

// ChannelProfile composes the channel page for the given handle.
func (c *Composer) ChannelProfile(ctx context.Context, userName string, viewer primitive.ObjectID) (*ChannelProfile, error) {
	return store.AggregateOne[ChannelProfile](ctx, c.db.Collection(store.Users), channelProfilePipeline(userName, viewer))
}

// ChannelSubscriber is one entry of a channel's subscriber list. The
// SubscribedToSubscriber flag reports whether the queried channel in turn
// subscribes back to this subscriber.
type ChannelSubscriber struct {
	ID                     primitive.ObjectID `json:"id" bson:"_id"`
	UserName               string             `json:"username" bson:"username"`
	FullName               string             `json:"full_name" bson:"full_name"`
	Avatar                 models.Image       `json:"avatar" bson:"avatar"`
	SubscribedToSubscriber bool               `json:"subscribed_to_subscriber" bson:"subscribed_to_subscriber"`
	SubscribersCount       int64              `json:"subscribers_count" bson:"subscribers_count"`
}

func channelSubscribersPipeline(channelID primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"channel": channelID},
		store.Join{
			From:         store.Users,
			LocalField:   "subscriber",
			ForeignField: "_id",
			As:           "subscriber",
			Pipeline: store.Pipeline{
				store.Join{
					From:         store.Subscriptions,
					LocalField:   "_id",
					ForeignField: "channel",
					As:           "own_subscribers",
				},
				store.Annotate{
					"subscribed_to_subscriber": flagIn(channelID, "$own_subscribers.subscriber"),
					"subscribers_count":        size("$own_subscribers"),
				},
				store.Project{
					"username":                 1,
					"full_name":                1,
					"avatar":                   1,
					"subscribed_to_subscriber": 1,
					"subscribers_count":        1,
				},
			},
		},
		store.Unwind{Path: "subscriber"},
		store.Project{"_id": 0, "subscriber": 1},
	}
}

// ChannelSubscribers lists everyone subscribed to the channel.
func (c *Composer) ChannelSubscribers(ctx context.Context, channelID primitive.ObjectID) ([]ChannelSubscriber, error) {
	shells, err := store.Aggregate[struct {
		Subscriber ChannelSubscriber `bson:"subscriber"`
	}](ctx, c.db.Collection(store.Subscriptions), channelSubscribersPipeline(channelID))
	if err != nil {
		return nil, err
	}
	subscribers := make([]ChannelSubscriber, len(shells))
	for i, s := range shells {
		subscribers[i] = s.Subscriber
	}
	return subscribers, nil
}

// LatestVideo is the most recent published upload of a subscribed channel.
type LatestVideo struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	VideoFile models.Image       `json:"video_file" bson:"video_file"`
	Thumbnail models.Image       `json:"thumbnail" bson:"thumbnail"`
	Title     string             `json:"title" bson:"title"`
	Duration  float64            `json:"duration" bson:"duration"`
	Views     int64              `json:"views" bson:"views"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// SubscribedChannel is one entry of a user's subscribed-channels list.
type SubscribedChannel struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	UserName    string             `json:"username" bson:"username"`
	FullName    string             `json:"full_name" bson:"full_name"`
	Avatar      models.Image       `json:"avatar" bson:"avatar"`
	LatestVideo *LatestVideo       `json:"latest_video,omitempty" bson:"latest_video,omitempty"`
}

func subscribedChannelsPipeline(subscriberID primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"subscriber": subscriberID},
		store.Join{
			From:         store.Users,
			LocalField:   "channel",
			ForeignField: "_id",
			As:           "channel",
			Pipeline: store.Pipeline{
				store.Join{
					From:         store.Videos,
					LocalField:   "_id",
					ForeignField: "owner",
					As:           "videos",
					Pipeline: store.Pipeline{
						store.Match{"is_published": true},
						store.Sort{{Key: "created_at", Value: 1}},
					},
				},
				store.Annotate{"latest_video": bson.M{"$last": "$videos"}},
				store.Project{
					"username":     1,
					"full_name":    1,
					"avatar":       1,
					"latest_video": 1,
				},
			},
		},
		store.Unwind{Path: "channel"},
		store.Project{"_id": 0, "channel": 1},
	}
}

// SubscribedChannels lists the channels a user subscribes to, each with
// its most recent published video.
func (c *Composer) SubscribedChannels(ctx context.Context, subscriberID primitive.ObjectID) ([]SubscribedChannel, error) {
	shells, err := store.Aggregate[struct {
		Channel SubscribedChannel `bson:"channel"`
	}](ctx, c.db.Collection(store.Subscriptions), subscribedChannelsPipeline(subscriberID))
	if err != nil {
		return nil, err
	}
	channels := make([]SubscribedChannel, len(shells))
	for i, s := range shells {
		channels[i] = s.Channel
	}
	return channels, nil
}

// ChannelStats is the dashboard summary for a channel owner.
type ChannelStats struct {
	TotalVideos      int64 `json:"total_videos" bson:"total_videos"`
	TotalViews       int64 `json:"total_views" bson:"total_views"`
	TotalLikes       int64 `json:"total_likes" bson:"total_likes"`
	TotalSubscribers int64 `json:"total_subscribers" bson:"-"`
}

func channelStatsPipeline(owner primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"owner": owner},
		store.Join{
			From:         store.Likes,
			LocalField:   "_id",
			ForeignField: "video",
			As:           "likes",
		},
		store.Group{
			"_id":          nil,
			"total_videos": bson.M{"$sum": 1},
			"total_views":  bson.M{"$sum": "$views"},
			"total_likes":  bson.M{"$sum": size("$likes")},
		},
	}
}

// ChannelStats aggregates the owner's video corpus and subscriber count.
// An owner with no videos gets zeroed totals, not an error.
func (c *Composer) ChannelStats(ctx context.Context, owner primitive.ObjectID) (*ChannelStats, error) {
	stats, err := store.AggregateOne[ChannelStats](ctx, c.db.Collection(store.Videos), channelStatsPipeline(owner))
	if err != nil {
		if err == store.ErrNotFound {
			stats = &ChannelStats{}
		} else {
			return nil, err
		}
	}

	subs, err := c.db.Collection(store.Subscriptions).CountDocuments(ctx, bson.M{"channel": owner})
	if err != nil {
		return nil, err
	}
	stats.TotalSubscribers = subs
	return stats, nil
}

// channelVideosPipeline lists every video of the owner, drafts included.
func channelVideosPipeline(owner primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"owner": owner},
		store.Sort{{Key: "created_at", Value: -1}},
	}
}

// ChannelVideos returns one page of the owner's videos with no publish
// filter; the dashboard shows drafts too.
func (c *Composer) ChannelVideos(ctx context.Context, owner primitive.ObjectID, page store.Page) (*store.PagedResult[models.Video], error) {
	return store.AggregatePage[models.Video](ctx, c.db.Collection(store.Videos), channelVideosPipeline(owner), page)
}

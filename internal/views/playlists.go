package views

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/store"
)

// PlaylistVideo is one published member of a playlist detail view.
type PlaylistVideo struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	VideoFile   models.Image       `json:"video_file" bson:"video_file"`
	Thumbnail   models.Image       `json:"thumbnail" bson:"thumbnail"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Duration    float64            `json:"duration" bson:"duration"`
	Views       int64              `json:"views" bson:"views"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// PlaylistDetail is the playlist view: published members only, with
// membership and view totals and the owner profile.
type PlaylistDetail struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	TotalVideos int64              `json:"total_videos" bson:"total_videos"`
	TotalViews  int64              `json:"total_views" bson:"total_views"`
	Videos      []PlaylistVideo    `json:"videos" bson:"videos"`
	Owner       OwnerProfile       `json:"owner" bson:"owner"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

func playlistDetailPipeline(playlistID primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"_id": playlistID},
		store.Join{
			From:         store.Videos,
			LocalField:   "videos",
			ForeignField: "_id",
			As:           "videos",
			Pipeline: store.Pipeline{
				store.Match{"is_published": true},
			},
		},
		store.Join{
			From:         store.Users,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner",
			Pipeline:     store.Pipeline{store.Project(ownerProjection)},
		},
		store.Annotate{
			"total_videos": size("$videos"),
			"total_views":  bson.M{"$sum": "$videos.views"},
			"owner":        first("$owner"),
		},
		store.Project{
			"name":         1,
			"description":  1,
			"created_at":   1,
			"updated_at":   1,
			"total_videos": 1,
			"total_views":  1,
			"owner":        1,
			"videos": bson.M{
				"_id":         1,
				"video_file":  1,
				"thumbnail":   1,
				"title":       1,
				"description": 1,
				"duration":    1,
				"views":       1,
				"created_at":  1,
			},
		},
	}
}

// PlaylistDetail composes the playlist view. A missing playlist is a
// NotFound; totals count only published members.
func (c *Composer) PlaylistDetail(ctx context.Context, playlistID primitive.ObjectID) (*PlaylistDetail, error) {
	return store.AggregateOne[PlaylistDetail](ctx, c.db.Collection(store.Playlists), playlistDetailPipeline(playlistID))
}

// PlaylistSummary is one row of a user's playlist list. Totals here take
// every member, drafts included, since the owner sees the whole set.
type PlaylistSummary struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	TotalVideos int64              `json:"total_videos" bson:"total_videos"`
	TotalViews  int64              `json:"total_views" bson:"total_views"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

func userPlaylistsPipeline(owner primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"owner": owner},
		store.Join{
			From:         store.Videos,
			LocalField:   "videos",
			ForeignField: "_id",
			As:           "videos",
		},
		store.Annotate{
			"total_videos": size("$videos"),
			"total_views":  bson.M{"$sum": "$videos.views"},
		},
		store.Project{
			"name":         1,
			"description":  1,
			"total_videos": 1,
			"total_views":  1,
			"updated_at":   1,
		},
	}
}

// UserPlaylists lists the playlists a user owns with per-playlist totals.
func (c *Composer) UserPlaylists(ctx context.Context, owner primitive.ObjectID) ([]PlaylistSummary, error) {
	return store.Aggregate[PlaylistSummary](ctx, c.db.Collection(store.Playlists), userPlaylistsPipeline(owner))
}

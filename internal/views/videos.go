package views

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/store"
)

// FeedParams are the caller-supplied filters for the video feed view.
type FeedParams struct {
	Query   string             // optional text match over title/description
	Owner   primitive.ObjectID // optional owner filter; zero means all
	SortBy  string             // one of feedSortKeys; empty means newest first
	SortAsc bool
	Page    store.Page
}

// feedSortKeys whitelists the sortable fields of the feed.
var feedSortKeys = map[string]string{
	"createdAt": "created_at",
	"views":     "views",
	"duration":  "duration",
	"title":     "title",
}

// FeedVideo is one feed entry: a published video plus its owner's profile.
type FeedVideo struct {
	models.Video `bson:",inline"`
	OwnerDetails OwnerProfile `json:"owner_details" bson:"owner_details"`
}

// feedPipeline builds the feed stages from the request parameters: filter
// (publish flag, optional text query, optional owner), sort, then the
// owner join. Pagination is applied by the runner.
func feedPipeline(p FeedParams) store.Pipeline {
	pipeline := store.Pipeline{}

	if p.Query != "" {
		rx := primitive.Regex{Pattern: regexEscape(p.Query), Options: "i"}
		pipeline = append(pipeline, store.Match{"$or": bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
		}})
	}
	if !p.Owner.IsZero() {
		pipeline = append(pipeline, store.Match{"owner": p.Owner})
	}
	pipeline = append(pipeline, store.Match{"is_published": true})

	sortField, ok := feedSortKeys[p.SortBy]
	if !ok {
		sortField = "created_at"
	}
	dir := -1
	if ok && p.SortAsc {
		dir = 1
	}
	pipeline = append(pipeline, store.Sort{{Key: sortField, Value: dir}})

	pipeline = append(pipeline,
		store.Join{
			From:         store.Users,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner_details",
			Pipeline:     store.Pipeline{store.Project(ownerProjection)},
		},
		store.Unwind{Path: "owner_details", PreserveEmpty: true},
	)
	return pipeline
}

// VideoFeed returns one page of the published-video feed.
func (c *Composer) VideoFeed(ctx context.Context, p FeedParams) (*store.PagedResult[FeedVideo], error) {
	return store.AggregatePage[FeedVideo](ctx, c.db.Collection(store.Videos), feedPipeline(p), p.Page)
}

// VideoOwner is the channel block embedded in a video detail view.
type VideoOwner struct {
	ID               primitive.ObjectID `json:"id" bson:"_id"`
	UserName         string             `json:"username" bson:"username"`
	FullName         string             `json:"full_name" bson:"full_name"`
	Avatar           models.Image       `json:"avatar" bson:"avatar"`
	SubscribersCount int64              `json:"subscribers_count" bson:"subscribers_count"`
	IsSubscribed     bool               `json:"is_subscribed" bson:"is_subscribed"`
}

// VideoDetail is the single-video view with like and subscription
// annotations relative to the viewer.
type VideoDetail struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	VideoFile   models.Image       `json:"video_file" bson:"video_file"`
	Thumbnail   models.Image       `json:"thumbnail" bson:"thumbnail"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Views       int64              `json:"views" bson:"views"`
	Duration    float64            `json:"duration" bson:"duration"`
	Owner       VideoOwner         `json:"owner" bson:"owner"`
	LikesCount  int64              `json:"likes_count" bson:"likes_count"`
	IsLiked     bool               `json:"is_liked" bson:"is_liked"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

func videoDetailPipeline(videoID, viewer primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"_id": videoID},
		store.Join{
			From:         store.Likes,
			LocalField:   "_id",
			ForeignField: "video",
			As:           "likes",
		},
		store.Join{
			From:         store.Users,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner",
			Pipeline: store.Pipeline{
				store.Join{
					From:         store.Subscriptions,
					LocalField:   "_id",
					ForeignField: "channel",
					As:           "subscribers",
				},
				store.Annotate{
					"subscribers_count": size("$subscribers"),
					"is_subscribed":     flagIn(viewer, "$subscribers.subscriber"),
				},
				store.Project{
					"username":          1,
					"full_name":         1,
					"avatar":            1,
					"subscribers_count": 1,
					"is_subscribed":     1,
				},
			},
		},
		store.Annotate{
			"likes_count": size("$likes"),
			"owner":       first("$owner"),
			"is_liked":    flagIn(viewer, "$likes.liked_by"),
		},
		store.Project{
			"video_file":  1,
			"thumbnail":   1,
			"title":       1,
			"description": 1,
			"views":       1,
			"duration":    1,
			"created_at":  1,
			"owner":       1,
			"likes_count": 1,
			"is_liked":    1,
		},
	}
}

// VideoDetail composes the single-video view. A missing video is a
// NotFound before any further join is attempted; a deleted owner degrades
// to an empty owner block.
func (c *Composer) VideoDetail(ctx context.Context, videoID, viewer primitive.ObjectID) (*VideoDetail, error) {
	return store.AggregateOne[VideoDetail](ctx, c.db.Collection(store.Videos), videoDetailPipeline(videoID, viewer))
}

// HistoryVideo is one watch-history entry.
type HistoryVideo struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	VideoFile models.Image       `json:"video_file" bson:"video_file"`
	Thumbnail models.Image       `json:"thumbnail" bson:"thumbnail"`
	Title     string             `json:"title" bson:"title"`
	Duration  float64            `json:"duration" bson:"duration"`
	Views     int64              `json:"views" bson:"views"`
	Owner     OwnerProfile       `json:"owner" bson:"owner"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

func watchHistoryPipeline(userID primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"_id": userID},
		store.Join{
			From:         store.Videos,
			LocalField:   "watch_history",
			ForeignField: "_id",
			As:           "history_videos",
			Pipeline: store.Pipeline{
				store.Join{
					From:         store.Users,
					LocalField:   "owner",
					ForeignField: "_id",
					As:           "owner",
					Pipeline:     store.Pipeline{store.Project(ownerProjection)},
				},
				store.Annotate{"owner": first("$owner")},
			},
		},
		store.Project{"watch_history": 1, "history_videos": 1},
	}
}

// orderHistory arranges the joined videos after the stored id list, newest
// watch last in storage, so the result walks the ids back to front. The
// lookup does not promise array order, and videos deleted since they were
// watched simply drop out.
func orderHistory(ids []primitive.ObjectID, videos []HistoryVideo) []HistoryVideo {
	byID := make(map[primitive.ObjectID]HistoryVideo, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}
	ordered := make([]HistoryVideo, 0, len(videos))
	for i := len(ids) - 1; i >= 0; i-- {
		if v, ok := byID[ids[i]]; ok {
			ordered = append(ordered, v)
		}
	}
	return ordered
}

// WatchHistory returns the viewer's watched videos with owner profiles,
// most recently added first. Rewatching keeps a video in its original slot.
func (c *Composer) WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]HistoryVideo, error) {
	shell, err := store.AggregateOne[struct {
		WatchHistory  []primitive.ObjectID `bson:"watch_history"`
		HistoryVideos []HistoryVideo       `bson:"history_videos"`
	}](ctx, c.db.Collection(store.Users), watchHistoryPipeline(userID))
	if err != nil {
		return nil, err
	}
	return orderHistory(shell.WatchHistory, shell.HistoryVideos), nil
}

// regexEscape neutralizes regex metacharacters in a user-supplied query so
// the text match stays a literal substring search.
func regexEscape(s string) string {
	const meta = `\.+*?()|[]{}^$`
	out := make([]rune, 0, len(s))
	for _, r := range s {
		for _, m := range meta {
			if r == m {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, r)
	}
	return string(out)
}

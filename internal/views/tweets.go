package views

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/store"
)

// TweetView is one entry of a user's tweet list with its like annotations.
type TweetView struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	Content      string             `json:"content" bson:"content"`
	OwnerDetails OwnerProfile       `json:"owner_details" bson:"owner_details"`
	LikesCount   int64              `json:"likes_count" bson:"likes_count"`
	IsLiked      bool               `json:"is_liked" bson:"is_liked"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

func userTweetsPipeline(owner, viewer primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"owner": owner},
		store.Join{
			From:         store.Users,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner_details",
			Pipeline:     store.Pipeline{store.Project(ownerProjection)},
		},
		store.Join{
			From:         store.Likes,
			LocalField:   "_id",
			ForeignField: "tweet",
			As:           "likes",
			Pipeline:     store.Pipeline{store.Project{"liked_by": 1}},
		},
		store.Annotate{
			"likes_count":   size("$likes"),
			"owner_details": first("$owner_details"),
			"is_liked":      flagIn(viewer, "$likes.liked_by"),
		},
		store.Sort{{Key: "created_at", Value: -1}},
		store.Project{
			"content":       1,
			"owner_details": 1,
			"likes_count":   1,
			"is_liked":      1,
			"created_at":    1,
		},
	}
}

// UserTweets lists a user's tweets, newest first, annotated for the viewer.
func (c *Composer) UserTweets(ctx context.Context, owner, viewer primitive.ObjectID) ([]TweetView, error) {
	return store.Aggregate[TweetView](ctx, c.db.Collection(store.Tweets), userTweetsPipeline(owner, viewer))
}

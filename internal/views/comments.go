package views

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/store"
)

// CommentView is one comment-thread entry with its author profile and
// viewer-relative like annotation.
type CommentView struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	Content      string             `json:"content" bson:"content"`
	OwnerDetails OwnerProfile       `json:"owner_details" bson:"owner_details"`
	LikesCount   int64              `json:"likes_count" bson:"likes_count"`
	IsLiked      bool               `json:"is_liked" bson:"is_liked"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

func commentThreadPipeline(videoID, viewer primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"video": videoID},
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
			ForeignField: "comment",
			As:           "likes",
		},
		store.Annotate{
			"owner_details": first("$owner_details"),
			"likes_count":   size("$likes"),
			"is_liked":      flagIn(viewer, "$likes.liked_by"),
		},
		store.Sort{{Key: "created_at", Value: -1}},
		store.Project{
			"content":       1,
			"owner_details": 1,
			"likes_count":   1,
			"is_liked":      1,
			"created_at":    1,
			"updated_at":    1,
		},
	}
}

// CommentThread returns one page of a video's comments, newest first.
func (c *Composer) CommentThread(ctx context.Context, videoID, viewer primitive.ObjectID, page store.Page) (*store.PagedResult[CommentView], error) {
	return store.AggregatePage[CommentView](ctx, c.db.Collection(store.Comments), commentThreadPipeline(videoID, viewer), page)
}

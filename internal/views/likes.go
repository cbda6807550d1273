package views

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/store"
)

// LikedVideo is one entry of the viewer's liked-videos view.
type LikedVideo struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	VideoFile    models.Image       `json:"video_file" bson:"video_file"`
	Thumbnail    models.Image       `json:"thumbnail" bson:"thumbnail"`
	Title        string             `json:"title" bson:"title"`
	Description  string             `json:"description" bson:"description"`
	Duration     float64            `json:"duration" bson:"duration"`
	Views        int64              `json:"views" bson:"views"`
	IsPublished  bool               `json:"is_published" bson:"is_published"`
	OwnerDetails OwnerProfile       `json:"owner_details" bson:"owner_details"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// likedVideosPipeline runs over the likes collection so the ordering is
// by like-creation time, not upload time.
func likedVideosPipeline(viewer primitive.ObjectID) store.Pipeline {
	return store.Pipeline{
		store.Match{"liked_by": viewer, "video": bson.M{"$exists": true}},
		store.Join{
			From:         store.Videos,
			LocalField:   "video",
			ForeignField: "_id",
			As:           "liked_video",
			Pipeline: store.Pipeline{
				store.Join{
					From:         store.Users,
					LocalField:   "owner",
					ForeignField: "_id",
					As:           "owner_details",
					Pipeline:     store.Pipeline{store.Project(ownerProjection)},
				},
				store.Annotate{"owner_details": first("$owner_details")},
			},
		},
		store.Unwind{Path: "liked_video"},
		store.Sort{{Key: "created_at", Value: -1}},
		store.Project{"_id": 0, "liked_video": 1},
	}
}

// LikedVideos returns one page of the videos the viewer has liked, most
// recently liked first. A like whose video has since been deleted is
// dropped by the join, not surfaced as an error.
func (c *Composer) LikedVideos(ctx context.Context, viewer primitive.ObjectID, page store.Page) (*store.PagedResult[LikedVideo], error) {
	shells, err := store.AggregatePage[struct {
		LikedVideo LikedVideo `bson:"liked_video"`
	}](ctx, c.db.Collection(store.Likes), likedVideosPipeline(viewer), page)
	if err != nil {
		return nil, err
	}

	result := &store.PagedResult[LikedVideo]{
		Docs:        make([]LikedVideo, len(shells.Docs)),
		TotalDocs:   shells.TotalDocs,
		Page:        shells.Page,
		Limit:       shells.Limit,
		TotalPages:  shells.TotalPages,
		HasNextPage: shells.HasNextPage,
		HasPrevPage: shells.HasPrevPage,
	}
	for i, s := range shells.Docs {
		result.Docs[i] = s.LikedVideo
	}
	return result, nil
}

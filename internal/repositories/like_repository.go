package repositories

import (
	"context"
	"time"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// LikeRepository is the toggle registry for the polymorphic like relation.
type LikeRepository interface {
	Toggle(ctx context.Context, likedBy primitive.ObjectID, target models.LikeTarget) (liked bool, err error)
}

// MongoLikeRepository implements LikeRepository for MongoDB
type MongoLikeRepository struct {
	collection *mongo.Collection
}

// NewMongoLikeRepository creates a new MongoLikeRepository
func NewMongoLikeRepository(db *mongo.Database) *MongoLikeRepository {
	return &MongoLikeRepository{collection: db.Collection(store.Likes)}
}

// Toggle flips the presence of the (liker, target) row and reports the new
// state. Delete and insert are each a single conditional operation: the
// delete is keyed on the unique pair, and the insert is guarded by the
// partial unique index, so two concurrent toggles can never leave two rows.
// A duplicate-key error on the insert leg means a concurrent call created
// the row first; the pair is present either way.
func (r *MongoLikeRepository) Toggle(ctx context.Context, likedBy primitive.ObjectID, target models.LikeTarget) (bool, error) {
	field, err := target.Kind.Field()
	if err != nil {
		return false, err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"liked_by": likedBy, field: target.ID})
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	now := time.Now()
	like := models.Like{
		ID:        primitive.NewObjectID(),
		LikedBy:   likedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch target.Kind {
	case models.LikeVideo:
		like.Video = &target.ID
	case models.LikeComment:
		like.Comment = &target.ID
	case models.LikeTweet:
		like.Tweet = &target.ID
	}

	if _, err := r.collection.InsertOne(ctx, like); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

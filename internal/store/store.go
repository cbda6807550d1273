package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared by repositories and view pipelines.
const (
	Users         = "users"
	Videos        = "videos"
	Comments      = "comments"
	Tweets        = "tweets"
	Likes         = "likes"
	Subscriptions = "subscriptions"
	Playlists     = "playlists"
)

// ErrNotFound is returned when a point lookup or single-result pipeline
// matches no document.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned when a write violates a unique index.
var ErrDuplicate = errors.New("duplicate document")

// IsDuplicate reports whether err stems from a unique-index violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate) || mongo.IsDuplicateKeyError(err)
}

// EnsureIndexes creates the unique and query indexes every collection
// relies on. Called once at startup; index creation is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		Users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		Videos: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
			{Keys: bson.D{{Key: "is_published", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		Comments: {
			{Keys: bson.D{{Key: "video", Value: 1}}},
		},
		Tweets: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		Likes: {
			likeTargetIndex("video"),
			likeTargetIndex("comment"),
			likeTargetIndex("tweet"),
		},
		Subscriptions: {
			{
				Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "channel", Value: 1}}},
		},
		Playlists: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// likeTargetIndex builds the partial unique index guaranteeing at most one
// like row per (liker, target) pair for one target kind. Partial filtering
// keeps rows of the other kinds, where the field is absent, out of the
// uniqueness constraint.
func likeTargetIndex(field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: "liked_by", Value: 1}, {Key: field, Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{field: bson.M{"$exists": true}}),
	}
}

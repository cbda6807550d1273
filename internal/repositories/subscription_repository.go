package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrSelfSubscription is returned when a channel tries to subscribe to itself.
var ErrSelfSubscription = errors.New("cannot subscribe to your own channel")

// SubscriptionRepository is the toggle registry for the follow relation.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriber, channel primitive.ObjectID) (subscribed bool, err error)
}

// MongoSubscriptionRepository implements SubscriptionRepository for MongoDB
type MongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates a new MongoSubscriptionRepository
func NewMongoSubscriptionRepository(db *mongo.Database) *MongoSubscriptionRepository {
	return &MongoSubscriptionRepository{collection: db.Collection(store.Subscriptions)}
}

// Toggle flips the presence of the (subscriber, channel) row and reports
// the new state. The unique index on the pair keeps concurrent duplicate
// toggles down to at most one row.
func (r *MongoSubscriptionRepository) Toggle(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	if subscriber == channel {
		return false, ErrSelfSubscription
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"subscriber": subscriber, "channel": channel})
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	now := time.Now()
	_, err = r.collection.InsertOne(ctx, models.Subscription{
		ID:         primitive.NewObjectID(),
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

package repositories

import (
	"context"
	"log"
	"time"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TweetRepository defines the interface for tweet data operations
type TweetRepository interface {
	CreateTweet(ctx context.Context, tweet *models.Tweet) error
	GetTweetByID(ctx context.Context, id primitive.ObjectID) (*models.Tweet, error)
	UpdateTweet(ctx context.Context, id primitive.ObjectID, content string) (*models.Tweet, error)
	DeleteTweet(ctx context.Context, id primitive.ObjectID) error
}

// MongoTweetRepository implements TweetRepository for MongoDB
type MongoTweetRepository struct {
	tweets *mongo.Collection
	likes  *mongo.Collection
}

// NewMongoTweetRepository creates a new MongoTweetRepository
func NewMongoTweetRepository(db *mongo.Database) *MongoTweetRepository {
	return &MongoTweetRepository{
		tweets: db.Collection(store.Tweets),
		likes:  db.Collection(store.Likes),
	}
}

func (r *MongoTweetRepository) CreateTweet(ctx context.Context, tweet *models.Tweet) error {
	tweet.ID = primitive.NewObjectID()
	tweet.CreatedAt = time.Now()
	tweet.UpdatedAt = tweet.CreatedAt
	_, err := r.tweets.InsertOne(ctx, tweet)
	return err
}

func (r *MongoTweetRepository) GetTweetByID(ctx context.Context, id primitive.ObjectID) (*models.Tweet, error) {
	var tweet models.Tweet
	err := r.tweets.FindOne(ctx, bson.M{"_id": id}).Decode(&tweet)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &tweet, nil
}

func (r *MongoTweetRepository) UpdateTweet(ctx context.Context, id primitive.ObjectID, content string) (*models.Tweet, error) {
	var tweet models.Tweet
	err := r.tweets.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"content": content, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&tweet)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &tweet, nil
}

func (r *MongoTweetRepository) DeleteTweet(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.tweets.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	if _, err := r.likes.DeleteMany(ctx, bson.M{"tweet": id}); err != nil {
		log.Printf("cascade: deleting likes of tweet %s: %v", id.Hex(), err)
	}
	return nil
}

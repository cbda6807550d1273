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

// VideoRepository defines the interface for video data operations
type VideoRepository interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideoByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	UpdateVideo(ctx context.Context, id primitive.ObjectID, title, description string, thumbnail *models.Image) (*models.Video, error)
	DeleteVideo(ctx context.Context, id primitive.ObjectID) error
	TogglePublish(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
}

// MongoVideoRepository implements VideoRepository for MongoDB
type MongoVideoRepository struct {
	videos   *mongo.Collection
	comments *mongo.Collection
	likes    *mongo.Collection
}

// NewMongoVideoRepository creates a new MongoVideoRepository
func NewMongoVideoRepository(db *mongo.Database) *MongoVideoRepository {
	return &MongoVideoRepository{
		videos:   db.Collection(store.Videos),
		comments: db.Collection(store.Comments),
		likes:    db.Collection(store.Likes),
	}
}

func (r *MongoVideoRepository) CreateVideo(ctx context.Context, video *models.Video) error {
	video.ID = primitive.NewObjectID()
	video.CreatedAt = time.Now()
	video.UpdatedAt = video.CreatedAt
	_, err := r.videos.InsertOne(ctx, video)
	return err
}

func (r *MongoVideoRepository) GetVideoByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	var video models.Video
	err := r.videos.FindOne(ctx, bson.M{"_id": id}).Decode(&video)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

func (r *MongoVideoRepository) UpdateVideo(ctx context.Context, id primitive.ObjectID, title, description string, thumbnail *models.Image) (*models.Video, error) {
	set := bson.M{
		"title":       title,
		"description": description,
		"updated_at":  time.Now(),
	}
	if thumbnail != nil {
		set["thumbnail"] = *thumbnail
	}

	var video models.Video
	err := r.videos.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&video)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// videoDeleteStore is the seam the delete cascade runs over: the primary
// removal plus the three dependent-collection legs.
type videoDeleteStore interface {
	deleteVideoDoc(ctx context.Context, videoID primitive.ObjectID) (int64, error)
	deleteVideoLikes(ctx context.Context, videoID primitive.ObjectID) error
	commentIDsForVideo(ctx context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error)
	deleteCommentLikes(ctx context.Context, commentIDs []primitive.ObjectID) error
	deleteComments(ctx context.Context, videoID primitive.ObjectID) error
}

// deleteVideoCascade removes the video document strictly first, then
// cascades to the likes and comments (and comment likes) referencing it.
// A failed primary delete surfaces and stops the cascade; a failed cascade
// leg is logged and the remaining legs still run.
func deleteVideoCascade(ctx context.Context, s videoDeleteStore, id primitive.ObjectID) error {
	deleted, err := s.deleteVideoDoc(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return store.ErrNotFound
	}

	if err := s.deleteVideoLikes(ctx, id); err != nil {
		log.Printf("cascade: deleting likes of video %s: %v", id.Hex(), err)
	}

	commentIDs, err := s.commentIDsForVideo(ctx, id)
	if err != nil {
		log.Printf("cascade: listing comments of video %s: %v", id.Hex(), err)
	} else if len(commentIDs) > 0 {
		if err := s.deleteCommentLikes(ctx, commentIDs); err != nil {
			log.Printf("cascade: deleting comment likes of video %s: %v", id.Hex(), err)
		}
	}
	if err := s.deleteComments(ctx, id); err != nil {
		log.Printf("cascade: deleting comments of video %s: %v", id.Hex(), err)
	}
	return nil
}

// DeleteVideo removes the video and everything referencing it.
func (r *MongoVideoRepository) DeleteVideo(ctx context.Context, id primitive.ObjectID) error {
	return deleteVideoCascade(ctx, r, id)
}

func (r *MongoVideoRepository) deleteVideoDoc(ctx context.Context, videoID primitive.ObjectID) (int64, error) {
	res, err := r.videos.DeleteOne(ctx, bson.M{"_id": videoID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoVideoRepository) deleteVideoLikes(ctx context.Context, videoID primitive.ObjectID) error {
	_, err := r.likes.DeleteMany(ctx, bson.M{"video": videoID})
	return err
}

func (r *MongoVideoRepository) deleteCommentLikes(ctx context.Context, commentIDs []primitive.ObjectID) error {
	_, err := r.likes.DeleteMany(ctx, bson.M{"comment": bson.M{"$in": commentIDs}})
	return err
}

func (r *MongoVideoRepository) deleteComments(ctx context.Context, videoID primitive.ObjectID) error {
	_, err := r.comments.DeleteMany(ctx, bson.M{"video": videoID})
	return err
}

func (r *MongoVideoRepository) commentIDsForVideo(ctx context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := r.comments.Find(ctx, bson.M{"video": videoID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// TogglePublish flips the draft/published flag and returns the new state.
func (r *MongoVideoRepository) TogglePublish(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	var video models.Video
	err := r.videos.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.A{bson.M{"$set": bson.M{
			"is_published": bson.M{"$not": "$is_published"},
			"updated_at":   time.Now(),
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&video)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

func (r *MongoVideoRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.videos.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	return err
}

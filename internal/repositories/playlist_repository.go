package repositories

import (
	"context"
	"time"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PlaylistRepository defines the interface for playlist data operations
type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, playlist *models.Playlist) error
	GetPlaylistByID(ctx context.Context, id primitive.ObjectID) (*models.Playlist, error)
	UpdatePlaylist(ctx context.Context, id primitive.ObjectID, name, description string) (*models.Playlist, error)
	DeletePlaylist(ctx context.Context, id primitive.ObjectID) error
	AddVideo(ctx context.Context, playlistID, videoID primitive.ObjectID) (*models.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, videoID primitive.ObjectID) (*models.Playlist, error)
}

// MongoPlaylistRepository implements PlaylistRepository for MongoDB
type MongoPlaylistRepository struct {
	collection *mongo.Collection
}

// NewMongoPlaylistRepository creates a new MongoPlaylistRepository
func NewMongoPlaylistRepository(db *mongo.Database) *MongoPlaylistRepository {
	return &MongoPlaylistRepository{collection: db.Collection(store.Playlists)}
}

func (r *MongoPlaylistRepository) CreatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	playlist.ID = primitive.NewObjectID()
	playlist.CreatedAt = time.Now()
	playlist.UpdatedAt = playlist.CreatedAt
	_, err := r.collection.InsertOne(ctx, playlist)
	return err
}

func (r *MongoPlaylistRepository) GetPlaylistByID(ctx context.Context, id primitive.ObjectID) (*models.Playlist, error) {
	var playlist models.Playlist
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&playlist)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &playlist, nil
}

func (r *MongoPlaylistRepository) UpdatePlaylist(ctx context.Context, id primitive.ObjectID, name, description string) (*models.Playlist, error) {
	return r.findAndUpdate(ctx, id, bson.M{"$set": bson.M{
		"name":        name,
		"description": description,
		"updated_at":  time.Now(),
	}})
}

func (r *MongoPlaylistRepository) DeletePlaylist(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AddVideo appends with set semantics; adding a member twice is a no-op.
func (r *MongoPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID primitive.ObjectID) (*models.Playlist, error) {
	return r.findAndUpdate(ctx, playlistID, bson.M{
		"$addToSet": bson.M{"videos": videoID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
}

func (r *MongoPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID primitive.ObjectID) (*models.Playlist, error) {
	return r.findAndUpdate(ctx, playlistID, bson.M{
		"$pull": bson.M{"videos": videoID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
}

func (r *MongoPlaylistRepository) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Playlist, error) {
	var playlist models.Playlist
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&playlist)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &playlist, nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrTokenReused is returned by SwapRefreshToken when the presented refresh
// credential no longer matches the stored one: it was already rotated or
// revoked, so the caller must re-authenticate.
var ErrTokenReused = errors.New("refresh token expired or already used")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByUserName(ctx context.Context, userName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateAccount(ctx context.Context, id primitive.ObjectID, fullName, email string) (*models.User, error)
	UpdateAvatar(ctx context.Context, id primitive.ObjectID, avatar models.Image) (*models.User, error)
	UpdateCoverImage(ctx context.Context, id primitive.ObjectID, cover models.Image) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	AppendWatchHistory(ctx context.Context, userID, videoID primitive.ObjectID) error
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	SwapRefreshToken(ctx context.Context, id primitive.ObjectID, presented, next string) error
	ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection(store.Users)}
}

// CreateUser inserts a new user. Handles are case-normalized before the
// unique index sees them.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.UserName = strings.ToLower(strings.TrimSpace(user.UserName))
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("username or email already taken: %w", store.ErrDuplicate)
		}
		return err
	}
	return nil
}

func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetUserByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": strings.ToLower(strings.TrimSpace(userName))})
}

func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateAccount sets the mutable profile fields and returns the updated user.
func (r *MongoUserRepository) UpdateAccount(ctx context.Context, id primitive.ObjectID, fullName, email string) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	if fullName != "" {
		set["full_name"] = fullName
	}
	if email != "" {
		set["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	return r.findAndSet(ctx, id, set)
}

func (r *MongoUserRepository) UpdateAvatar(ctx context.Context, id primitive.ObjectID, avatar models.Image) (*models.User, error) {
	return r.findAndSet(ctx, id, bson.M{"avatar": avatar, "updated_at": time.Now()})
}

func (r *MongoUserRepository) UpdateCoverImage(ctx context.Context, id primitive.ObjectID, cover models.Image) (*models.User, error) {
	return r.findAndSet(ctx, id, bson.M{"cover_image": cover, "updated_at": time.Now()})
}

func (r *MongoUserRepository) findAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("email already taken: %w", store.ErrDuplicate)
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	return r.setFields(ctx, id, bson.M{"password": passwordHash, "updated_at": time.Now()})
}

// AppendWatchHistory records a watched video with set semantics: an id
// already present is neither duplicated nor moved.
func (r *MongoUserRepository) AppendWatchHistory(ctx context.Context, userID, videoID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"watch_history": videoID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return r.setFields(ctx, id, bson.M{"refresh_token": token, "updated_at": time.Now()})
}

// SwapRefreshToken atomically replaces the stored refresh credential, but
// only if the presented value still matches it. Concurrent rotations with
// the same credential race on this single conditional update, so exactly
// one wins; the rest observe ErrTokenReused.
func (r *MongoUserRepository) SwapRefreshToken(ctx context.Context, id primitive.ObjectID, presented, next string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "refresh_token": presented},
		bson.M{"$set": bson.M{"refresh_token": next, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTokenReused
	}
	return nil
}

func (r *MongoUserRepository) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$unset": bson.M{"refresh_token": ""}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) setFields(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

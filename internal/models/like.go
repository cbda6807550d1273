package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LikeKind names the kind of entity a like points at.
type LikeKind string

const (
	LikeVideo   LikeKind = "video"
	LikeComment LikeKind = "comment"
	LikeTweet   LikeKind = "tweet"
)

// Field returns the document field holding the target id for this kind.
func (k LikeKind) Field() (string, error) {
	switch k {
	case LikeVideo:
		return "video", nil
	case LikeComment:
		return "comment", nil
	case LikeTweet:
		return "tweet", nil
	}
	return "", fmt.Errorf("unknown like kind %q", k)
}

// LikeTarget is a tagged reference to exactly one likeable entity.
type LikeTarget struct {
	Kind LikeKind
	ID   primitive.ObjectID
}

// Like is a join row recording that a user liked one video, comment or
// tweet. Exactly one of the target fields is set, matching the tag the
// row was created with.
type Like struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	LikedBy   primitive.ObjectID  `json:"liked_by" bson:"liked_by"`
	Video     *primitive.ObjectID `json:"video,omitempty" bson:"video,omitempty"`
	Comment   *primitive.ObjectID `json:"comment,omitempty" bson:"comment,omitempty"`
	Tweet     *primitive.ObjectID `json:"tweet,omitempty" bson:"tweet,omitempty"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" bson:"updated_at"`
}

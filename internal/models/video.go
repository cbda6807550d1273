package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video represents an uploaded video stored in MongoDB
type Video struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	VideoFile   Image              `json:"video_file" bson:"video_file"`
	Thumbnail   Image              `json:"thumbnail" bson:"thumbnail"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Duration    float64            `json:"duration" bson:"duration"` // seconds
	Views       int64              `json:"views" bson:"views"`
	IsPublished bool               `json:"is_published" bson:"is_published"`
	Owner       primitive.ObjectID `json:"owner" bson:"owner"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// PublishVideoRequest defines the multipart fields accompanying an upload
type PublishVideoRequest struct {
	Title       string  `json:"title" form:"title" validate:"required,min=1,max=200"`
	Description string  `json:"description" form:"description" validate:"required,min=1"`
	Duration    float64 `json:"duration" form:"duration" validate:"omitempty,min=0"`
}

// UpdateVideoRequest defines the fields an owner may edit
type UpdateVideoRequest struct {
	Title       string `json:"title" form:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" form:"description" validate:"required,min=1"`
}

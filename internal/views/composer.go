// Package views assembles the denormalized, viewer-annotated read views of
// the platform. Each view is a pure pipeline-builder function plus a
// Composer method that executes it against the store; nothing here caches
// state between requests.
package views

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/anonto42/vidtube/backend/internal/models"
)

// Composer executes view pipelines against the entity store.
type Composer struct {
	db *mongo.Database
}

// NewComposer creates a Composer bound to the given database handle.
func NewComposer(db *mongo.Database) *Composer {
	return &Composer{db: db}
}

// OwnerProfile is the public slice of a user joined into other views.
type OwnerProfile struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	UserName string             `json:"username" bson:"username"`
	FullName string             `json:"full_name" bson:"full_name"`
	Avatar   models.Image       `json:"avatar" bson:"avatar"`
}

// ownerProjection shapes a joined user down to its public profile fields.
var ownerProjection = bson.M{
	"username":  1,
	"full_name": 1,
	"avatar":    1,
}

// flagIn builds the viewer-relative boolean annotation: true iff the
// viewer id appears in the referenced array field. With a zero (anonymous)
// viewer the membership test is false, so the flag is present but false,
// never omitted.
func flagIn(viewer primitive.ObjectID, arrayField string) bson.M {
	return bson.M{"$cond": bson.M{
		"if":   bson.M{"$in": bson.A{viewer, arrayField}},
		"then": true,
		"else": false,
	}}
}

// size counts a joined array field.
func size(arrayField string) bson.M {
	return bson.M{"$size": arrayField}
}

// first lifts a single-element join array to an embedded document. A
// vanished optional reference leaves the array empty and the field absent,
// which decodes to a zero value rather than failing the view.
func first(arrayField string) bson.M {
	return bson.M{"$first": arrayField}
}

// Package guard holds the ownership predicate applied before every
// edit or delete of an owned entity.
package guard

import "go.mongodb.org/mongo-driver/bson/primitive"

// CanMutate reports whether the viewer is the single true owner of the
// entity. An unauthenticated (zero) viewer can never mutate.
func CanMutate(viewer, owner primitive.ObjectID) bool {
	return !viewer.IsZero() && viewer == owner
}

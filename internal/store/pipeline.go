package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Stage is one step of an aggregation pipeline. View composition builds an
// ordered []Stage from request parameters and hands it to a single runner,
// so no call site assembles raw bson documents conditionally.
type Stage interface {
	stage() bson.D
}

// Match filters documents of the current collection.
type Match bson.M

func (m Match) stage() bson.D { return bson.D{{Key: "$match", Value: bson.M(m)}} }

// Join pulls documents from another collection into an array field,
// optionally shaping them with a sub-pipeline.
type Join struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	Pipeline     Pipeline
}

func (j Join) stage() bson.D {
	lookup := bson.M{
		"from":         j.From,
		"localField":   j.LocalField,
		"foreignField": j.ForeignField,
		"as":           j.As,
	}
	if len(j.Pipeline) > 0 {
		lookup["pipeline"] = j.Pipeline.Compile()
	}
	return bson.D{{Key: "$lookup", Value: lookup}}
}

// Annotate adds computed fields to each document.
type Annotate bson.M

func (a Annotate) stage() bson.D { return bson.D{{Key: "$addFields", Value: bson.M(a)}} }

// Unwind flattens a joined array field to a single embedded document.
// PreserveEmpty keeps the parent document when the join matched nothing,
// which is how a vanished optional reference degrades to an empty field.
type Unwind struct {
	Path          string
	PreserveEmpty bool
}

func (u Unwind) stage() bson.D {
	return bson.D{{Key: "$unwind", Value: bson.M{
		"path":                       "$" + u.Path,
		"preserveNullAndEmptyArrays": u.PreserveEmpty,
	}}}
}

// Project shapes the output documents.
type Project bson.M

func (p Project) stage() bson.D { return bson.D{{Key: "$project", Value: bson.M(p)}} }

// Group accumulates documents into summary rows.
type Group bson.M

func (g Group) stage() bson.D { return bson.D{{Key: "$group", Value: bson.M(g)}} }

// Sort orders documents; field order in the bson.D is significant.
type Sort bson.D

func (s Sort) stage() bson.D { return bson.D{{Key: "$sort", Value: bson.D(s)}} }

// Skip drops the first n documents.
type Skip int64

func (s Skip) stage() bson.D { return bson.D{{Key: "$skip", Value: int64(s)}} }

// Limit caps the number of documents.
type Limit int64

func (l Limit) stage() bson.D { return bson.D{{Key: "$limit", Value: int64(l)}} }

// Pipeline is an ordered list of stages.
type Pipeline []Stage

// Compile lowers the typed stages to the driver's pipeline representation.
func (p Pipeline) Compile() mongo.Pipeline {
	out := make(mongo.Pipeline, 0, len(p))
	for _, s := range p {
		out = append(out, s.stage())
	}
	return out
}

// Aggregate runs the pipeline against coll and decodes every result document.
func Aggregate[T any](ctx context.Context, coll *mongo.Collection, p Pipeline) ([]T, error) {
	cursor, err := coll.Aggregate(ctx, p.Compile())
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s aggregation: %w", coll.Name(), err)
	}
	return docs, nil
}

// AggregateOne runs the pipeline and returns the first result document,
// or ErrNotFound when the pipeline matched nothing.
func AggregateOne[T any](ctx context.Context, coll *mongo.Collection, p Pipeline) (*T, error) {
	docs, err := Aggregate[T](ctx, coll, p)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return &docs[0], nil
}

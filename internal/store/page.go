package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page is a 1-based pagination cursor.
type Page struct {
	Number int64
	Size   int64
}

// Normalize clamps the cursor to sane bounds: page numbers start at 1 and
// the size is capped so a caller cannot request the whole collection.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

// SkipCount returns the number of documents preceding this page.
func (p Page) SkipCount() int64 {
	return (p.Number - 1) * p.Size
}

// PagedResult is one page of view documents plus total-count metadata.
type PagedResult[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"total_docs"`
	Page        int64 `json:"page"`
	Limit       int64 `json:"limit"`
	TotalPages  int64 `json:"total_pages"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

// pageShell is the facet output document: one page of results in docs and
// the exact match count in total. The total leg is empty when the pipeline
// matched nothing at all.
type pageShell[T any] struct {
	Docs  []T `bson:"docs"`
	Total []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
}

// buildPagedResult folds the facet shells into the page envelope. A page
// past the end of the result set gets an empty Docs slice with the true
// TotalDocs, never an error.
func buildPagedResult[T any](shells []pageShell[T], page Page) *PagedResult[T] {
	result := &PagedResult[T]{
		Docs:  []T{},
		Page:  page.Number,
		Limit: page.Size,
	}
	if len(shells) > 0 {
		if shells[0].Docs != nil {
			result.Docs = shells[0].Docs
		}
		if len(shells[0].Total) > 0 {
			result.TotalDocs = shells[0].Total[0].Count
		}
	}
	result.TotalPages = (result.TotalDocs + page.Size - 1) / page.Size
	result.HasNextPage = page.Number < result.TotalPages
	result.HasPrevPage = page.Number > 1 && result.TotalDocs > 0
	return result
}

// AggregatePage runs the pipeline with a trailing facet that produces one
// page of documents and the exact total in a single round trip.
func AggregatePage[T any](ctx context.Context, coll *mongo.Collection, p Pipeline, page Page) (*PagedResult[T], error) {
	page = page.Normalize()

	facet := append(p.Compile(), bson.D{{Key: "$facet", Value: bson.M{
		"docs": mongo.Pipeline{
			bson.D{{Key: "$skip", Value: page.SkipCount()}},
			bson.D{{Key: "$limit", Value: page.Size}},
		},
		"total": mongo.Pipeline{
			bson.D{{Key: "$count", Value: "count"}},
		},
	}}})

	cursor, err := coll.Aggregate(ctx, facet)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s page: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var shells []pageShell[T]
	if err := cursor.All(ctx, &shells); err != nil {
		return nil, fmt.Errorf("decode %s page: %w", coll.Name(), err)
	}
	return buildPagedResult(shells, page), nil
}

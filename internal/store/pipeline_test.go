package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCompileStageOrder(t *testing.T) {
	p := Pipeline{
		Match{"is_published": true},
		Sort{{Key: "created_at", Value: -1}},
		Skip(20),
		Limit(10),
	}

	compiled := p.Compile()
	require.Len(t, compiled, 4)
	assert.Equal(t, "$match", compiled[0][0].Key)
	assert.Equal(t, "$sort", compiled[1][0].Key)
	assert.Equal(t, "$skip", compiled[2][0].Key)
	assert.Equal(t, "$limit", compiled[3][0].Key)
	assert.Equal(t, int64(20), compiled[2][0].Value)
	assert.Equal(t, int64(10), compiled[3][0].Value)
}

func TestCompileJoinWithoutPipeline(t *testing.T) {
	j := Join{From: Users, LocalField: "owner", ForeignField: "_id", As: "owner_details"}

	doc := j.stage()
	require.Equal(t, "$lookup", doc[0].Key)

	lookup, ok := doc[0].Value.(bson.M)
	require.True(t, ok)
	assert.Equal(t, Users, lookup["from"])
	assert.Equal(t, "owner", lookup["localField"])
	assert.Equal(t, "_id", lookup["foreignField"])
	assert.Equal(t, "owner_details", lookup["as"])
	_, hasPipeline := lookup["pipeline"]
	assert.False(t, hasPipeline, "empty sub-pipeline must be omitted")
}

func TestCompileJoinWithSubPipeline(t *testing.T) {
	j := Join{
		From:         Users,
		LocalField:   "owner",
		ForeignField: "_id",
		As:           "owner_details",
		Pipeline:     Pipeline{Project{"username": 1}},
	}

	lookup := j.stage()[0].Value.(bson.M)
	sub, ok := lookup["pipeline"]
	require.True(t, ok)
	assert.Len(t, sub, 1)
}

func TestCompileUnwind(t *testing.T) {
	u := Unwind{Path: "owner_details", PreserveEmpty: true}

	doc := u.stage()
	require.Equal(t, "$unwind", doc[0].Key)

	spec := doc[0].Value.(bson.M)
	assert.Equal(t, "$owner_details", spec["path"])
	assert.Equal(t, true, spec["preserveNullAndEmptyArrays"])
}

func TestCompileSortPreservesFieldOrder(t *testing.T) {
	s := Sort{{Key: "views", Value: -1}, {Key: "created_at", Value: -1}}

	doc := s.stage()[0].Value.(bson.D)
	require.Len(t, doc, 2)
	assert.Equal(t, "views", doc[0].Key)
	assert.Equal(t, "created_at", doc[1].Key)
}

func TestCompileEmptyPipeline(t *testing.T) {
	compiled := Pipeline{}.Compile()
	assert.NotNil(t, compiled)
	assert.Len(t, compiled, 0)
}

package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/vidtube/backend/internal/store"
)

// stageKeys flattens a compiled pipeline to its operator names.
func stageKeys(p store.Pipeline) []string {
	compiled := p.Compile()
	keys := make([]string, 0, len(compiled))
	for _, doc := range compiled {
		keys = append(keys, doc[0].Key)
	}
	return keys
}

func findMatch(t *testing.T, p store.Pipeline, field string) (interface{}, bool) {
	t.Helper()
	for _, doc := range p.Compile() {
		if doc[0].Key != "$match" {
			continue
		}
		m := doc[0].Value.(bson.M)
		if v, ok := m[field]; ok {
			return v, true
		}
	}
	return nil, false
}

func TestFeedPipelineAlwaysFiltersUnpublished(t *testing.T) {
	p := feedPipeline(FeedParams{})

	published, ok := findMatch(t, p, "is_published")
	require.True(t, ok, "feed must filter on the publish flag")
	assert.Equal(t, true, published)
}

func TestFeedPipelineDefaultSortIsNewestFirst(t *testing.T) {
	p := feedPipeline(FeedParams{})

	for _, doc := range p.Compile() {
		if doc[0].Key != "$sort" {
			continue
		}
		sort := doc[0].Value.(bson.D)
		require.Len(t, sort, 1)
		assert.Equal(t, "created_at", sort[0].Key)
		assert.Equal(t, -1, sort[0].Value)
		return
	}
	t.Fatal("feed pipeline has no sort stage")
}

func TestFeedPipelineRejectsUnknownSortKey(t *testing.T) {
	p := feedPipeline(FeedParams{SortBy: "password", SortAsc: true})

	for _, doc := range p.Compile() {
		if doc[0].Key != "$sort" {
			continue
		}
		sort := doc[0].Value.(bson.D)
		assert.Equal(t, "created_at", sort[0].Key, "unknown keys fall back to recency")
		assert.Equal(t, -1, sort[0].Value, "fallback ignores the requested direction")
		return
	}
	t.Fatal("feed pipeline has no sort stage")
}

func TestFeedPipelineAscendingWhitelistedSort(t *testing.T) {
	p := feedPipeline(FeedParams{SortBy: "views", SortAsc: true})

	for _, doc := range p.Compile() {
		if doc[0].Key != "$sort" {
			continue
		}
		sort := doc[0].Value.(bson.D)
		assert.Equal(t, "views", sort[0].Key)
		assert.Equal(t, 1, sort[0].Value)
		return
	}
	t.Fatal("feed pipeline has no sort stage")
}

func TestFeedPipelineOwnerFilter(t *testing.T) {
	owner := primitive.NewObjectID()

	ownerMatch, ok := findMatch(t, feedPipeline(FeedParams{Owner: owner}), "owner")
	require.True(t, ok)
	assert.Equal(t, owner, ownerMatch)

	_, ok = findMatch(t, feedPipeline(FeedParams{}), "owner")
	assert.False(t, ok, "zero owner means no owner filter")
}

func TestFeedPipelineQueryIsLiteral(t *testing.T) {
	p := feedPipeline(FeedParams{Query: "c++ (tutorial)"})

	or, ok := findMatch(t, p, "$or")
	require.True(t, ok)

	clauses := or.(bson.A)
	require.Len(t, clauses, 2)
	rx := clauses[0].(bson.M)["title"].(primitive.Regex)
	assert.Equal(t, `c\+\+ \(tutorial\)`, rx.Pattern)
	assert.Equal(t, "i", rx.Options)
}

func TestFeedPipelineEndsWithOwnerJoin(t *testing.T) {
	keys := stageKeys(feedPipeline(FeedParams{}))
	require.GreaterOrEqual(t, len(keys), 2)
	assert.Equal(t, "$lookup", keys[len(keys)-2])
	assert.Equal(t, "$unwind", keys[len(keys)-1])
}

func TestVideoDetailPipelineViewerFlags(t *testing.T) {
	viewer := primitive.NewObjectID()
	videoID := primitive.NewObjectID()

	compiled := videoDetailPipeline(videoID, viewer).Compile()
	require.Equal(t, "$match", compiled[0][0].Key)
	assert.Equal(t, bson.M{"_id": videoID}, compiled[0][0].Value)

	var annotated bson.M
	for _, doc := range compiled {
		if doc[0].Key == "$addFields" {
			annotated = doc[0].Value.(bson.M)
		}
	}
	require.NotNil(t, annotated)
	require.Contains(t, annotated, "is_liked")
	require.Contains(t, annotated, "likes_count")

	// The flag must compare against the concrete viewer id, so an
	// anonymous (zero) viewer can never be a member of the likers array.
	cond := annotated["is_liked"].(bson.M)["$cond"].(bson.M)
	in := cond["if"].(bson.M)["$in"].(bson.A)
	assert.Equal(t, viewer, in[0])
}

func TestWatchHistoryPipelineKeepsStoredIDs(t *testing.T) {
	p := watchHistoryPipeline(primitive.NewObjectID())
	compiled := p.Compile()

	last := compiled[len(compiled)-1]
	require.Equal(t, "$project", last[0].Key)
	projection := last[0].Value.(bson.M)

	// The joined documents land in their own field so the stored id
	// order survives alongside them.
	assert.Contains(t, projection, "watch_history")
	assert.Contains(t, projection, "history_videos")
}

func TestOrderHistoryNewestAdditionFirst(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	videos := []HistoryVideo{{ID: b}, {ID: c}, {ID: a}}

	ordered := orderHistory([]primitive.ObjectID{a, b, c}, videos)

	require.Len(t, ordered, 3)
	assert.Equal(t, c, ordered[0].ID)
	assert.Equal(t, b, ordered[1].ID)
	assert.Equal(t, a, ordered[2].ID)
}

func TestOrderHistorySkipsDeletedVideos(t *testing.T) {
	a, b, gone := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	videos := []HistoryVideo{{ID: a}, {ID: b}}

	ordered := orderHistory([]primitive.ObjectID{a, gone, b}, videos)

	require.Len(t, ordered, 2)
	assert.Equal(t, b, ordered[0].ID)
	assert.Equal(t, a, ordered[1].ID)
}

func TestOrderHistoryEmpty(t *testing.T) {
	ordered := orderHistory(nil, nil)
	require.NotNil(t, ordered)
	assert.Empty(t, ordered)
}

func TestRegexEscape(t *testing.T) {
	assert.Equal(t, "plain words", regexEscape("plain words"))
	assert.Equal(t, `a\.b\*c`, regexEscape("a.b*c"))
	assert.Equal(t, `\[\]\(\)\{\}\^\$\|\?\+\\`, regexEscape(`[](){}^$|?+\`))
	assert.Equal(t, "", regexEscape(""))
}

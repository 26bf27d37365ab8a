package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSubmissionMaps(t *testing.T) {
	entry := map[string]interface{}{"id": "t3_1"}

	tests := []struct {
		name    string
		payload interface{}
		want    int
	}{
		{
			name:    "bare array",
			payload: []interface{}{entry},
			want:    1,
		},
		{
			name: "listing shape",
			payload: map[string]interface{}{
				"kind": "Listing",
				"data": map[string]interface{}{
					"children": []interface{}{entry, entry},
				},
			},
			want: 2,
		},
		{
			name: "buried under results",
			payload: map[string]interface{}{
				"results": map[string]interface{}{
					"items": []interface{}{entry},
				},
			},
			want: 1,
		},
		{
			name:    "scalar payload",
			payload: "nothing here",
			want:    0,
		},
		{
			name: "no known key",
			payload: map[string]interface{}{
				"posts": []interface{}{entry},
			},
			want: 0,
		},
		{
			name: "mixed array keeps only objects",
			payload: []interface{}{entry, "junk", 42.0, entry},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, extractSubmissionMaps(tt.payload), tt.want)
		})
	}
}

func TestExtractSubmissionMaps_SelfReferentialPayload(t *testing.T) {
	loop := map[string]interface{}{}
	loop["data"] = loop

	// Must terminate without finding anything.
	assert.Empty(t, extractSubmissionMaps(loop))
}

func TestNormalizeSubmission(t *testing.T) {
	raw := map[string]interface{}{
		"id":           "abc123",
		"title":        "First impressions",
		"subreddit":    "gadgets",
		"score":        42.0,
		"num_comments": 7.0,
		"created_utc":  1756700000.0,
	}

	sub := normalizeSubmission(raw, "fallback")

	assert.Equal(t, "abc123", sub.ID)
	assert.Equal(t, "First impressions", sub.Title)
	assert.Equal(t, "gadgets", sub.Subreddit)
	assert.Equal(t, 42.0, sub.Score)
	assert.Equal(t, 7, sub.NumComments)
	assert.Equal(t, 1756700000.0, sub.CreatedUTC)
}

func TestNormalizeSubmission_UnwrapsKindDataWrapper(t *testing.T) {
	raw := map[string]interface{}{
		"kind": "t3",
		"data": map[string]interface{}{
			"id":       "abc123",
			"score":    10.0,
			"comments": 3.0,
		},
	}

	sub := normalizeSubmission(raw, "gadgets")

	assert.Equal(t, "abc123", sub.ID)
	assert.Equal(t, 10.0, sub.Score)
	assert.Equal(t, 3, sub.NumComments)
	assert.Equal(t, "gadgets", sub.Subreddit)
}

func TestNormalizeSubmission_DataWithoutKindIsNotAWrapper(t *testing.T) {
	raw := map[string]interface{}{
		"id":   "outer",
		"data": map[string]interface{}{"id": "inner"},
	}

	sub := normalizeSubmission(raw, "")

	assert.Equal(t, "outer", sub.ID)
}

func TestNormalizeSubmission_MissingCreatedStaysZero(t *testing.T) {
	sub := normalizeSubmission(map[string]interface{}{"id": "x"}, "gadgets")
	assert.Zero(t, sub.CreatedUTC)
}

func TestResolveSubredditName(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]interface{}
		fallback string
		want     string
	}{
		{
			name: "plain string",
			raw:  map[string]interface{}{"subreddit": "gadgets"},
			want: "gadgets",
		},
		{
			name:     "empty string uses fallback",
			raw:      map[string]interface{}{"subreddit": ""},
			fallback: "apple",
			want:     "apple",
		},
		{
			name: "object with display name",
			raw: map[string]interface{}{
				"subreddit": map[string]interface{}{"display_name": "technology"},
			},
			want: "technology",
		},
		{
			name: "object falls through display_name to name",
			raw: map[string]interface{}{
				"subreddit": map[string]interface{}{"name": "t5_xyz"},
			},
			want: "t5_xyz",
		},
		{
			name:     "absent field uses fallback",
			raw:      map[string]interface{}{},
			fallback: "gadgets",
			want:     "gadgets",
		},
		{
			name: "unusable shape yields empty without fallback",
			raw:  map[string]interface{}{"subreddit": 7.0},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveSubredditName(tt.raw, tt.fallback))
		})
	}
}

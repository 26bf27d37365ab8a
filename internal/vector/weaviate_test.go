package vector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodsense/social-sensing-bot/internal/models"
)

type fakeAnswerer struct {
	answer string
	err    error
	prompt string
}

func (f *fakeAnswerer) Summarize(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

// weaviateStub serves the schema endpoint plus a canned GraphQL response.
func weaviateStub(t *testing.T, graphqlBody string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/schema/Comment":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/graphql":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(graphqlBody))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/objects":
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestEnsureSchema_CreatesWhenMissing(t *testing.T) {
	var created bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/schema/Comment":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/schema":
			var schema map[string]interface{}
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &schema))
			assert.Equal(t, "Comment", schema["class"])
			assert.Equal(t, "text2vec-openai", schema["vectorizer"])
			created = true
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewWeaviateClient(server.URL, "", "", nil)

	assert.True(t, client.EnsureSchema(context.Background()))
	assert.True(t, created)

	// Second call is served from the cached flag, no further requests.
	server.Close()
	assert.True(t, client.EnsureSchema(context.Background()))
}

func TestAddCommentsBatch(t *testing.T) {
	server := weaviateStub(t, `{}`)
	defer server.Close()

	client := NewWeaviateClient(server.URL, "", "", nil)

	added := client.AddCommentsBatch(context.Background(), []models.Comment{
		{ID: 1, Comment: "first"},
		{ID: 2, Comment: "second"},
	})

	assert.Equal(t, 2, added)
}

func TestSearchComments_ParsesHits(t *testing.T) {
	server := weaviateStub(t, `{
		"data": {"Get": {"Comment": [
			{
				"comment_id": 7,
				"brand_name": "unknown",
				"product_name": "iPhone16",
				"comment_text": "battery lasts forever",
				"comment_sentiment": "positive",
				"upvotes": 12,
				"_additional": {"certainty": 0.91}
			}
		]}}
	}`)
	defer server.Close()

	client := NewWeaviateClient(server.URL, "", "", nil)

	results := client.SearchComments(context.Background(), "battery life", 5, "", "iPhone16")

	require.Len(t, results, 1)
	assert.Equal(t, int64(7), results[0].CommentID)
	assert.Equal(t, "battery lasts forever", results[0].CommentText)
	assert.Equal(t, 12, results[0].Upvotes)
	assert.InDelta(t, 0.91, results[0].SimilarityScore, 1e-9)
}

func TestSearchComments_FailureDegradesToNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewWeaviateClient(server.URL, "", "", nil)

	assert.Nil(t, client.SearchComments(context.Background(), "anything", 5, "", ""))
}

func TestAnswerQuestion_UsesAnswerer(t *testing.T) {
	server := weaviateStub(t, `{
		"data": {"Get": {"Comment": [
			{"comment_id": 1, "brand_name": "unknown", "product_name": "iPhone16", "comment_text": "great battery"}
		]}}
	}`)
	defer server.Close()

	answerer := &fakeAnswerer{answer: "Users praise the battery."}
	client := NewWeaviateClient(server.URL, "", "", answerer)

	answer := client.AnswerQuestion(context.Background(), "How is the battery?", 5)

	assert.Equal(t, "Users praise the battery.", answer.Answer)
	assert.Equal(t, 1, answer.Sources)
	assert.Contains(t, answerer.prompt, "great battery")
	assert.Contains(t, answerer.prompt, "How is the battery?")
}

func TestAnswerQuestion_SnippetsWhenAnswererFails(t *testing.T) {
	server := weaviateStub(t, `{
		"data": {"Get": {"Comment": [
			{"comment_id": 1, "brand_name": "unknown", "product_name": "iPhone16", "comment_text": "screen cracks easily"}
		]}}
	}`)
	defer server.Close()

	answerer := &fakeAnswerer{err: assert.AnError}
	client := NewWeaviateClient(server.URL, "", "", answerer)

	answer := client.AnswerQuestion(context.Background(), "Is the screen durable?", 5)

	assert.Contains(t, answer.Answer, "screen cracks easily")
	assert.Equal(t, 1, answer.Sources)
}

func TestAnswerQuestion_NoHits(t *testing.T) {
	server := weaviateStub(t, `{"data": {"Get": {"Comment": []}}}`)
	defer server.Close()

	client := NewWeaviateClient(server.URL, "", "", nil)

	answer := client.AnswerQuestion(context.Background(), "anything", 5)

	assert.Contains(t, answer.Answer, "No relevant comments")
	assert.Empty(t, answer.RelevantComments)
	assert.Zero(t, answer.Sources)
}

func TestGetStats(t *testing.T) {
	server := weaviateStub(t, `{"data": {"Aggregate": {"Comment": [{"meta": {"count": 42}}]}}}`)
	defer server.Close()

	client := NewWeaviateClient(server.URL, "", "", nil)
	stats := client.GetStats(context.Background())

	assert.Equal(t, 42, stats.TotalComments)
	assert.Equal(t, "connected", stats.Status)
}

func TestGetStats_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewWeaviateClient(server.URL, "", "", nil)
	stats := client.GetStats(context.Background())

	assert.Equal(t, "unavailable", stats.Status)
	assert.Zero(t, stats.TotalComments)
}

func TestWhereClause(t *testing.T) {
	assert.Equal(t, "", whereClause("", ""))
	assert.Equal(t,
		` where: {path: ["brand_name"], operator: Equal, valueString: "acme"}`,
		whereClause("acme", ""))
	assert.Contains(t, whereClause("acme", "iPhone16"), "operator: And")
	// Quotes inside values must not break the query document.
	assert.Contains(t, whereClause(`a"b`, ""), `"a\"b"`)
}

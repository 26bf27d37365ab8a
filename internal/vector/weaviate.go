package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/prodsense/social-sensing-bot/internal/models"
)

const commentClass = "Comment"

// Answerer condenses retrieved comments into a short answer. Optional; with
// a nil answerer the Q&A surface falls back to raw snippets.
type Answerer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// WeaviateClient stores comment documents in a Weaviate collection and
// answers near-text queries over them. Every method degrades to an empty or
// zero result on failure; nothing in here is allowed to crash the process.
type WeaviateClient struct {
	client   *resty.Client
	baseURL  string
	answerer Answerer
	schemaOK bool
}

// SearchResult is one vector search hit.
type SearchResult struct {
	CommentID          int64   `json:"comment_id"`
	BrandName          string  `json:"brand_name"`
	ProductName        string  `json:"product_name"`
	CommentText        string  `json:"comment_text"`
	CommentSentiment   string  `json:"comment_sentiment"`
	CommentTimestamp   string  `json:"comment_timestamp"`
	ThreadName         string  `json:"thread_name"`
	Upvotes            int     `json:"upvotes"`
	AttributeDiscussed string  `json:"attribute_discussed"`
	AttributeSentiment string  `json:"attribute_sentiment"`
	SimilarityScore    float64 `json:"similarity_score"`
}

// Answer is the Q&A response: a summarized answer plus its supporting hits.
type Answer struct {
	Answer           string         `json:"answer"`
	RelevantComments []SearchResult `json:"relevant_comments"`
	Sources          int            `json:"sources"`
}

// Stats reports the collection size and connection state.
type Stats struct {
	TotalComments int    `json:"total_comments"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

// NewWeaviateClient creates a vector store client. An empty URL yields a
// client whose operations all report unavailability.
func NewWeaviateClient(baseURL, apiKey, openAIKey string, answerer Answerer) *WeaviateClient {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	if openAIKey != "" {
		// The collection vectorizes through OpenAI server-side.
		client.SetHeader("X-OpenAI-Api-Key", openAIKey)
	}

	return &WeaviateClient{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/") + "/v1",
		answerer: answerer,
	}
}

// EnsureSchema creates the comment collection when it doesn't exist yet.
func (w *WeaviateClient) EnsureSchema(ctx context.Context) bool {
	if w.schemaOK {
		return true
	}

	resp, err := w.client.R().SetContext(ctx).Get(w.baseURL + "/schema/" + commentClass)
	if err == nil && resp.StatusCode() == 200 {
		w.schemaOK = true
		return true
	}

	schema := map[string]interface{}{
		"class":       commentClass,
		"description": "Reddit comments with metadata",
		"vectorizer":  "text2vec-openai",
		"moduleConfig": map[string]interface{}{
			"text2vec-openai": map[string]interface{}{
				"model": "text-embedding-3-small",
				"type":  "text",
			},
		},
		"properties": []map[string]interface{}{
			{"name": "comment_id", "dataType": []string{"int"}, "description": "row id in the relational store"},
			{"name": "brand_name", "dataType": []string{"string"}},
			{"name": "product_name", "dataType": []string{"string"}},
			{"name": "comment_text", "dataType": []string{"text"}},
			{"name": "comment_sentiment", "dataType": []string{"string"}},
			{"name": "comment_timestamp", "dataType": []string{"string"}},
			{"name": "thread_name", "dataType": []string{"string"}},
			{"name": "upvotes", "dataType": []string{"int"}},
			{"name": "attribute_discussed", "dataType": []string{"string"}},
			{"name": "attribute_sentiment", "dataType": []string{"string"}},
		},
	}

	resp, err = w.client.R().SetContext(ctx).SetBody(schema).Post(w.baseURL + "/schema")
	if err != nil || resp.IsError() {
		logrus.Warnf("Failed to ensure Weaviate schema: %v (status %d)", err, resp.StatusCode())
		return false
	}
	w.schemaOK = true
	return true
}

// AddComment mirrors one comment row into the collection.
func (w *WeaviateClient) AddComment(ctx context.Context, comment models.Comment) bool {
	if !w.EnsureSchema(ctx) {
		return false
	}

	object := map[string]interface{}{
		"class": commentClass,
		"properties": map[string]interface{}{
			"comment_id":          comment.ID,
			"brand_name":          comment.BrandName,
			"product_name":        comment.ProductName,
			"comment_text":        comment.Comment,
			"comment_sentiment":   comment.CommentSentiment,
			"comment_timestamp":   comment.CommentTimestamp,
			"thread_name":         comment.ThreadName,
			"upvotes":             comment.Upvotes,
			"attribute_discussed": comment.AttributeDiscussed,
			"attribute_sentiment": comment.AttributeSentiment,
		},
	}

	resp, err := w.client.R().SetContext(ctx).SetBody(object).Post(w.baseURL + "/objects")
	if err != nil || resp.IsError() {
		logrus.Warnf("Failed to add comment to Weaviate: %v (status %d)", err, resp.StatusCode())
		return false
	}
	return true
}

// AddCommentsBatch mirrors a batch of rows, returning how many made it in.
func (w *WeaviateClient) AddCommentsBatch(ctx context.Context, comments []models.Comment) int {
	success := 0
	for _, c := range comments {
		if w.AddComment(ctx, c) {
			success++
		}
	}
	return success
}

// SearchComments runs a near-text query, optionally filtered by brand and
// product equality.
func (w *WeaviateClient) SearchComments(ctx context.Context, query string, limit int, brandName, productName string) []SearchResult {
	if !w.EnsureSchema(ctx) {
		return nil
	}
	if limit < 1 {
		limit = 1
	}

	gql := fmt.Sprintf(`{
  Get {
    %s(nearText: {concepts: [%s]} limit: %d%s) {
      comment_id brand_name product_name comment_text comment_sentiment
      comment_timestamp thread_name upvotes attribute_discussed attribute_sentiment
      _additional { certainty distance }
    }
  }
}`, commentClass, quoteGraphQL(query), limit, whereClause(brandName, productName))

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"query": gql}).
		Post(w.baseURL + "/graphql")
	if err != nil || resp.IsError() {
		logrus.Warnf("Weaviate search failed: %v (status %d)", err, resp.StatusCode())
		return nil
	}

	var parsed struct {
		Data struct {
			Get struct {
				Comment []struct {
					CommentID          float64 `json:"comment_id"`
					BrandName          string  `json:"brand_name"`
					ProductName        string  `json:"product_name"`
					CommentText        string  `json:"comment_text"`
					CommentSentiment   string  `json:"comment_sentiment"`
					CommentTimestamp   string  `json:"comment_timestamp"`
					ThreadName         string  `json:"thread_name"`
					Upvotes            float64 `json:"upvotes"`
					AttributeDiscussed string  `json:"attribute_discussed"`
					AttributeSentiment string  `json:"attribute_sentiment"`
					Additional         struct {
						Certainty float64 `json:"certainty"`
					} `json:"_additional"`
				} `json:"Comment"`
			} `json:"Get"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		logrus.Warnf("Failed to decode Weaviate search response: %v", err)
		return nil
	}

	out := make([]SearchResult, 0, len(parsed.Data.Get.Comment))
	for _, hit := range parsed.Data.Get.Comment {
		out = append(out, SearchResult{
			CommentID:          int64(hit.CommentID),
			BrandName:          hit.BrandName,
			ProductName:        hit.ProductName,
			CommentText:        hit.CommentText,
			CommentSentiment:   hit.CommentSentiment,
			CommentTimestamp:   hit.CommentTimestamp,
			ThreadName:         hit.ThreadName,
			Upvotes:            int(hit.Upvotes),
			AttributeDiscussed: hit.AttributeDiscussed,
			AttributeSentiment: hit.AttributeSentiment,
			SimilarityScore:    hit.Additional.Certainty,
		})
	}
	return out
}

// AnswerQuestion retrieves the most similar comments and summarizes them into
// an answer. Without an answerer (or when it fails) the top snippets stand in
// for a summary.
func (w *WeaviateClient) AnswerQuestion(ctx context.Context, question string, limit int) Answer {
	results := w.SearchComments(ctx, question, limit, "", "")
	if len(results) == 0 {
		return Answer{
			Answer:           "No relevant comments found or vector store unavailable.",
			RelevantComments: []SearchResult{},
		}
	}

	var contextLines []string
	for _, r := range results {
		contextLines = append(contextLines, fmt.Sprintf("[%s %s] %s", r.BrandName, r.ProductName, strings.TrimSpace(r.CommentText)))
	}
	if len(contextLines) > 10 {
		contextLines = contextLines[:10]
	}

	snippet := strings.Join(contextLines[:min(3, len(contextLines))], "\n")
	answer := "Top findings based on similar comments:\n" + snippet

	if w.answerer != nil {
		prompt := "Summarize the following Reddit comments to answer the user question." +
			" Be concise and factual.\n\nComments:\n" + strings.Join(contextLines, "\n") +
			"\n\nQuestion: " + question
		if summarized, err := w.answerer.Summarize(ctx, prompt); err == nil && summarized != "" {
			answer = summarized
		} else if err != nil {
			logrus.Warnf("Q&A summarization failed, returning snippets: %v", err)
		}
	}

	return Answer{
		Answer:           answer,
		RelevantComments: results,
		Sources:          len(results),
	}
}

// GetStats returns the collection's comment count.
func (w *WeaviateClient) GetStats(ctx context.Context) Stats {
	gql := fmt.Sprintf(`{ Aggregate { %s { meta { count } } } }`, commentClass)

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"query": gql}).
		Post(w.baseURL + "/graphql")
	if err != nil || resp.IsError() {
		return Stats{Status: "unavailable"}
	}

	var parsed struct {
		Data struct {
			Aggregate struct {
				Comment []struct {
					Meta struct {
						Count int `json:"count"`
					} `json:"meta"`
				} `json:"Comment"`
			} `json:"Aggregate"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return Stats{Status: "error", Error: err.Error()}
	}

	count := 0
	if len(parsed.Data.Aggregate.Comment) > 0 {
		count = parsed.Data.Aggregate.Comment[0].Meta.Count
	}
	return Stats{TotalComments: count, Status: "connected"}
}

// whereClause renders the optional equality filter for the Get query.
func whereClause(brandName, productName string) string {
	var operands []string
	if brandName != "" {
		operands = append(operands, fmt.Sprintf(`{path: ["brand_name"], operator: Equal, valueString: %s}`, quoteGraphQL(brandName)))
	}
	if productName != "" {
		operands = append(operands, fmt.Sprintf(`{path: ["product_name"], operator: Equal, valueString: %s}`, quoteGraphQL(productName)))
	}

	switch len(operands) {
	case 0:
		return ""
	case 1:
		return " where: " + operands[0]
	default:
		return fmt.Sprintf(" where: {operator: And, operands: [%s]}", strings.Join(operands, ", "))
	}
}

func quoteGraphQL(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const (
	maxSuggestedSubreddits = 8
	maxSuggestedQueries    = 5
)

// Client wraps the OpenAI Responses API for the three jobs this system needs
// it for: channel/query suggestion, attribute vocabulary derivation, and
// per-comment sentiment classification.
type Client struct {
	api   *openai.Client
	model string
}

// SentimentScores is the raw structured output of one classification call,
// before percentage normalization.
type SentimentScores struct {
	SentimentPositive          int    `json:"sentiment_positive" jsonschema:"minimum=0,maximum=100"`
	SentimentNeutral           int    `json:"sentiment_neutral" jsonschema:"minimum=0,maximum=100"`
	SentimentNegative          int    `json:"sentiment_negative" jsonschema:"minimum=0,maximum=100"`
	AttributeDiscussed         string `json:"attribute_discussed"`
	AttributeSentimentPositive int    `json:"attribute_sentiment_positive" jsonschema:"minimum=0,maximum=100"`
	AttributeSentimentNeutral  int    `json:"attribute_sentiment_neutral" jsonschema:"minimum=0,maximum=100"`
	AttributeSentimentNegative int    `json:"attribute_sentiment_negative" jsonschema:"minimum=0,maximum=100"`
}

var sentimentSchema = generateSchema[SentimentScores]()

// NewClient creates an OpenAI-backed client. The API key is required; a
// missing key is a configuration error surfaced at construction.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	api := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{api: &api, model: model}, nil
}

// SuggestSubreddits asks for up to 8 candidate subreddit names for the given
// products. Names come back trimmed with any r/ prefix stripped. Upstream
// errors propagate: suggestion failure is discovery failure for the batch.
func (c *Client) SuggestSubreddits(ctx context.Context, products []string) ([]string, error) {
	prompt := "Given these product names, list up to 8 relevant subreddit names (without r/ prefix), " +
		"comma-separated, no explanations. Products: " + strings.Join(products, ", ")

	text, err := c.complete(ctx, "", prompt)
	if err != nil {
		return nil, fmt.Errorf("subreddit suggestion failed: %w", err)
	}

	names := splitList(text)
	for i, name := range names {
		names[i] = strings.TrimPrefix(name, "r/")
	}
	if len(names) > maxSuggestedSubreddits {
		names = names[:maxSuggestedSubreddits]
	}
	return names, nil
}

// SuggestQueries asks for up to 5 high-signal search queries for the products.
func (c *Client) SuggestQueries(ctx context.Context, products []string) ([]string, error) {
	prompt := "Create up to 5 high-signal Reddit search queries for these products. " +
		"Return comma-separated queries only. Products: " + strings.Join(products, ", ")

	text, err := c.complete(ctx, "", prompt)
	if err != nil {
		return nil, fmt.Errorf("query suggestion failed: %w", err)
	}

	queries := splitList(text)
	if len(queries) > maxSuggestedQueries {
		queries = queries[:maxSuggestedQueries]
	}
	return queries, nil
}

// AttributeVocabulary derives the most commonly discussed attributes for a
// product, as a flat list of terms.
func (c *Client) AttributeVocabulary(ctx context.Context, product string) ([]string, error) {
	system := "You are an expert product analyst. Given a product name, return the top 30 most " +
		"commonly discussed attributes/features that people typically mention when reviewing " +
		"or discussing this product. Focus on attributes that would be relevant for sentiment analysis. " +
		"Return ONLY a JSON array of strings, no explanations or additional text."
	user := fmt.Sprintf("Product: %s\n\nReturn the top 30 most discussed attributes as a JSON array.", product)

	text, err := c.complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("attribute vocabulary for %q failed: %w", product, err)
	}

	var vocab []string
	if err := decodeModelJSON(text, &vocab); err != nil {
		return nil, fmt.Errorf("attribute vocabulary for %q returned unusable output: %w", product, err)
	}
	return vocab, nil
}

// ClassifyComment runs one sentiment/attribute classification constrained to
// the fixed response schema. The chosen attribute is restricted to the given
// vocabulary, with "general" as the escape hatch.
func (c *Client) ClassifyComment(ctx context.Context, comment string, vocab []string) (SentimentScores, error) {
	system := "You are a strict JSON API. " +
		"Return only JSON that matches the provided JSON schema. " +
		"Produce whole-number percentages (0-100) and make each triad sum to 100. " +
		"Pick the single most-relevant product attribute from this list; if unclear choose 'general': " +
		strings.Join(vocab, ", ")
	user := fmt.Sprintf("Comment: %q", comment)

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:   "Sentiment",
			Schema: sentimentSchema,
			Strict: openai.Bool(true),
			Type:   "json_schema",
		},
	}
	params := responses.ResponseNewParams{
		Model:        c.model,
		Instructions: openai.String(system),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(user, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := callWithRetry(ctx, c.api, params)
	if err != nil {
		return SentimentScores{}, fmt.Errorf("classification call failed: %w", err)
	}

	var scores SentimentScores
	if err := decodeModelJSON(resp.OutputText(), &scores); err != nil {
		return SentimentScores{}, fmt.Errorf("classification output unusable: %w", err)
	}
	return scores, nil
}

// Summarize answers a free-form prompt with a short completion. Used by the
// Q&A surface to condense retrieved comments.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, "", prompt)
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	params := responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(user, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if system != "" {
		params.Instructions = openai.String(system)
	}

	resp, err := callWithRetry(ctx, c.api, params)
	if err != nil {
		return "", err
	}
	return resp.OutputText(), nil
}

// splitList parses a comma-separated model reply into trimmed, non-empty items.
func splitList(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// decodeModelJSON unmarshals model output, tolerating prose or code fences
// around the JSON document.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return fmt.Errorf("empty model output")
	}

	// Fast path: valid JSON as-is.
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	// Fallback: extract the first top-level JSON object or array.
	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(s, pair[0])
		end := strings.LastIndexByte(s, pair[1])
		if start == -1 || end <= start {
			continue
		}
		if err := json.Unmarshal([]byte(s[start:end+1]), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no usable JSON found in model output (len=%d)", len(s))
}

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/prodsense/social-sensing-bot/internal/models"
)

const (
	searchResultsPerSort = 5
	commentThreadDepth   = 3
)

// RedditSource implements the Reddit API source
type RedditSource struct {
	clientID          string
	clientSecret      string
	userAgent         string
	maxCommentsPerSub int
	client            *resty.Client
	accessToken       string
}

// Ensure RedditSource implements Source
var _ Source = (*RedditSource)(nil)

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewRedditSource creates a new Reddit source
func NewRedditSource(clientID, clientSecret, userAgent string, maxCommentsPerSub int) *RedditSource {
	return &RedditSource{
		clientID:          clientID,
		clientSecret:      clientSecret,
		userAgent:         userAgent,
		maxCommentsPerSub: maxCommentsPerSub,
		client:            resty.New().SetTimeout(30 * time.Second),
	}
}

func (r *RedditSource) GetName() string {
	return "reddit"
}

func (r *RedditSource) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

func (r *RedditSource) authenticate() error {
	resp, err := r.client.R().
		SetHeader("User-Agent", r.userAgent).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post("https://www.reddit.com/api/v1/access_token")

	if err != nil {
		return err
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return err
	}
	if authResp.AccessToken == "" {
		return fmt.Errorf("reddit auth returned no token")
	}

	r.accessToken = authResp.AccessToken
	return nil
}

// ListNew fetches the most recent submissions of one subreddit.
func (r *RedditSource) ListNew(ctx context.Context, subreddit string, limit int) ([]models.Submission, error) {
	listURL := fmt.Sprintf("https://oauth.reddit.com/r/%s/new.json?limit=%d", url.PathEscape(subreddit), limit)
	payload, err := r.getJSON(ctx, listURL)
	if err != nil {
		return nil, err
	}
	return normalizeAll(extractSubmissionMaps(payload), subreddit), nil
}

// Search runs a submission search. With subreddit "all" the search spans the
// global feed and submissions keep only the subreddit name they carry
// themselves; otherwise the searched subreddit serves as the fallback name.
func (r *RedditSource) Search(ctx context.Context, subreddit, query, sort, timeFilter string, limit int) ([]models.Submission, error) {
	restrict := "1"
	fallback := subreddit
	if subreddit == "all" {
		restrict = "0"
		fallback = ""
	}
	searchURL := fmt.Sprintf(
		"https://oauth.reddit.com/r/%s/search.json?q=%s&restrict_sr=%s&sort=%s&t=%s&limit=%d",
		url.PathEscape(subreddit), url.QueryEscape(query), restrict, sort, timeFilter, limit,
	)

	payload, err := r.getJSON(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	return normalizeAll(extractSubmissionMaps(payload), fallback), nil
}

// CommentsForProduct collects comment rows for one product within one
// subreddit: top-ranked and most-discussed submissions of the last week, each
// expanded up to a small fixed thread depth, capped per submission.
// Submissions already visited within this call are skipped by ID.
func (r *RedditSource) CommentsForProduct(ctx context.Context, product, subreddit string) ([]models.Comment, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reddit source disabled - missing credentials")
		return nil, nil
	}
	if err := r.authenticate(); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	var out []models.Comment
	seenIDs := make(map[string]bool)

	for _, sort := range []string{"top", "comments"} {
		submissions, err := r.Search(ctx, subreddit, product, sort, "week", searchResultsPerSort)
		if err != nil {
			logrus.Errorf("Reddit %s search failed for product '%s' in r/%s: %v", sort, product, subreddit, err)
			continue
		}
		for _, submission := range submissions {
			if submission.ID == "" || seenIDs[submission.ID] {
				continue
			}
			seenIDs[submission.ID] = true

			comments, err := r.fetchThread(ctx, product, submission)
			if err != nil {
				logrus.Warnf("Failed to expand thread '%s': %v", submission.ID, err)
				continue
			}
			logrus.Debugf("submission='%s' comments=%d", submission.ID, len(comments))
			out = append(out, comments...)
		}
	}

	return out, nil
}

// fetchThread expands one submission's comment tree and converts replies into
// comment rows, up to the per-submission cap.
func (r *RedditSource) fetchThread(ctx context.Context, product string, submission models.Submission) ([]models.Comment, error) {
	threadURL := fmt.Sprintf(
		"https://oauth.reddit.com/comments/%s.json?depth=%d&limit=100",
		url.PathEscape(submission.ID), commentThreadDepth,
	)
	payload, err := r.getJSON(ctx, threadURL)
	if err != nil {
		return nil, err
	}

	// A thread response is a two-element array: the submission listing and
	// the comment listing.
	parts, ok := payload.([]interface{})
	if !ok || len(parts) < 2 {
		return nil, nil
	}

	brand := product
	if brand == "" {
		brand = "unknown"
	}

	var out []models.Comment
	var walk func(node interface{})
	walk = func(node interface{}) {
		for _, wrapper := range extractSubmissionMaps(node) {
			if len(out) >= r.maxCommentsPerSub {
				return
			}
			data, ok := wrapper["data"].(map[string]interface{})
			if !ok {
				continue
			}
			body := asString(data["body"])
			if body != "" {
				created := int64(asFloat(firstPresent(data, "created_utc", "created")))
				out = append(out, models.Comment{
					BrandName:        brand,
					ProductName:      product,
					Comment:          body,
					CommentTimestamp: time.Unix(created, 0).UTC().Format(time.RFC3339),
					ThreadName:       submission.Title,
					Upvotes:          asInt(data["score"]),
				})
			}
			if replies, ok := data["replies"].(map[string]interface{}); ok {
				walk(replies)
			}
		}
	}
	walk(parts[1])

	return out, nil
}

// getJSON performs an authenticated GET and decodes the body into a generic
// JSON value so normalization can cope with whatever shape comes back.
func (r *RedditSource) getJSON(ctx context.Context, requestURL string) (interface{}, error) {
	if r.accessToken == "" {
		if err := r.authenticate(); err != nil {
			return nil, fmt.Errorf("reddit authentication failed: %w", err)
		}
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+r.accessToken).
		SetHeader("User-Agent", r.userAgent).
		Get(requestURL)

	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var payload interface{}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func normalizeAll(raw []map[string]interface{}, fallbackSubreddit string) []models.Submission {
	if len(raw) == 0 {
		return nil
	}
	out := make([]models.Submission, 0, len(raw))
	for _, m := range raw {
		out = append(out, normalizeSubmission(m, fallbackSubreddit))
	}
	return out
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/prodsense/social-sensing-bot/internal/models"
)

const commentsTable = "main_reddit"

// Candidate names for the channel table. Deployments disagree on the
// singular/plural spelling, so every channel operation tries both in order.
var channelTables = []string{"source_channel", "source_channels"}

// SupabaseStore talks to a Supabase PostgREST endpoint. All access is
// table-scoped select/insert/update/delete with equality filters; no
// transactions are assumed.
type SupabaseStore struct {
	client  *resty.Client
	baseURL string
}

// Ensure SupabaseStore implements Store
var _ Store = (*SupabaseStore)(nil)

// channelRow is the stored form of a ranked channel. Score and metrics are
// embedded as a nested document.
type channelRow struct {
	Platform  string                 `json:"platform"`
	ChannelID string                 `json:"channel_id"`
	Name      string                 `json:"name"`
	MetaData  map[string]interface{} `json:"meta_data"`
}

// NewSupabaseStore creates a table store client. The small fixed retry count
// lives here and nowhere else.
func NewSupabaseStore(baseURL, apiKey string) (*SupabaseStore, error) {
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}

	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetHeader("apikey", apiKey).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json")

	return &SupabaseStore{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/") + "/rest/v1",
	}, nil
}

// ReplaceChannels deletes a platform's channel rows and bulk-inserts the new
// candidate list, trying the primary table name and then the secondary one.
// It never returns an error; on total failure the summary carries zero counts
// plus an error tally. A crash between delete and insert can leave the table
// empty - callers must treat this as best-effort, not transactional.
func (s *SupabaseStore) ReplaceChannels(ctx context.Context, platform string, channels []models.ChannelCandidate) models.ReplaceSummary {
	summary := models.ReplaceSummary{}

	for _, table := range channelTables {
		deleted, err := s.deleteRows(ctx, table, map[string]string{"platform": "eq." + platform})
		if err != nil {
			logrus.Warnf("ReplaceChannels: delete from '%s' failed: %v", table, err)
			summary.Errors++
			continue
		}
		summary.Deleted = deleted

		if len(channels) == 0 {
			return summary
		}

		rows := make([]channelRow, 0, len(channels))
		for _, ch := range channels {
			rows = append(rows, channelRow{
				Platform:  platform,
				ChannelID: ch.ChannelID,
				Name:      ch.Name,
				MetaData: map[string]interface{}{
					"score":   ch.Score,
					"metrics": ch.Metrics,
				},
			})
		}

		resp, err := s.client.R().
			SetContext(ctx).
			SetHeader("Prefer", "return=representation").
			SetBody(rows).
			Post(s.tableURL(table))
		if err != nil || resp.IsError() {
			logrus.Warnf("ReplaceChannels: insert into '%s' failed: %v (status %d)", table, err, resp.StatusCode())
			summary.Errors++
			continue
		}

		var inserted []json.RawMessage
		if err := json.Unmarshal(resp.Body(), &inserted); err == nil && len(inserted) > 0 {
			summary.Inserted = len(inserted)
		} else {
			summary.Inserted = len(rows)
		}
		return summary
	}

	return summary
}

// TopChannels returns up to limit channel IDs for a platform, ranked by the
// stored meta_data score. Both candidate tables contribute; duplicates keep
// their first-seen score. Failures degrade to an empty list.
func (s *SupabaseStore) TopChannels(ctx context.Context, platform string, limit int) []string {
	type scored struct {
		id    string
		score float64
	}
	var candidates []scored
	seen := make(map[string]bool)

	for _, table := range channelTables {
		var rows []channelRow
		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"select":   "channel_id,meta_data",
				"platform": "eq." + platform,
				"limit":    "200",
			}).
			Get(s.tableURL(table))
		if err != nil || resp.IsError() {
			continue
		}
		if err := json.Unmarshal(resp.Body(), &rows); err != nil {
			continue
		}
		for _, row := range rows {
			if row.ChannelID == "" || seen[row.ChannelID] {
				continue
			}
			seen[row.ChannelID] = true
			candidates = append(candidates, scored{id: row.ChannelID, score: metaScore(row.MetaData)})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if limit < 0 {
		limit = 0
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.id)
	}
	return out
}

// TopChannel returns the single highest-ranked channel ID, or empty.
func (s *SupabaseStore) TopChannel(ctx context.Context, platform string) string {
	if top := s.TopChannels(ctx, platform, 1); len(top) > 0 {
		return top[0]
	}
	return ""
}

// InsertComment stores one comment row. A missing brand name defaults to
// "unknown"; the sentiment field is always present since some schemas
// require it non-null.
func (s *SupabaseStore) InsertComment(ctx context.Context, comment models.Comment) error {
	if comment.BrandName == "" {
		comment.BrandName = "unknown"
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody([]models.Comment{comment}).
		Post(s.tableURL(commentsTable))
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("comment insert returned status %d", resp.StatusCode())
	}
	return nil
}

// GetComments returns comments, optionally filtered by product, newest first.
func (s *SupabaseStore) GetComments(ctx context.Context, productName string, limit int) ([]models.Comment, error) {
	params := map[string]string{
		"select": "*",
		"order":  "comment_timestamp.desc",
		"limit":  strconv.Itoa(limit),
	}
	if productName != "" {
		params["product_name"] = "eq." + productName
	}
	return s.selectComments(ctx, params)
}

// GetCommentsByBrand returns comments for one brand, newest first.
func (s *SupabaseStore) GetCommentsByBrand(ctx context.Context, brandName string, limit int) ([]models.Comment, error) {
	return s.selectComments(ctx, map[string]string{
		"select":     "*",
		"brand_name": "eq." + brandName,
		"order":      "comment_timestamp.desc",
		"limit":      strconv.Itoa(limit),
	})
}

// GetRecentComments returns the most recently timestamped comments.
func (s *SupabaseStore) GetRecentComments(ctx context.Context, limit int) ([]models.Comment, error) {
	return s.GetComments(ctx, "", limit)
}

// GetUnanalyzedComments returns rows whose sentiment has not been filled in
// yet, newest first.
func (s *SupabaseStore) GetUnanalyzedComments(ctx context.Context, limit int) ([]models.Comment, error) {
	return s.selectComments(ctx, map[string]string{
		"select":            "*",
		"comment_sentiment": "eq.",
		"order":             "comment_timestamp.desc",
		"limit":             strconv.Itoa(limit),
	})
}

// DeleteCommentsForProduct removes all rows for one product, best-effort.
func (s *SupabaseStore) DeleteCommentsForProduct(ctx context.Context, productName string) int {
	deleted, err := s.deleteRows(ctx, commentsTable, map[string]string{"product_name": "eq." + productName})
	if err != nil {
		logrus.Errorf("Failed to delete comments for product '%s': %v", productName, err)
		return 0
	}
	return deleted
}

// DeleteAllComments wipes the comment table, best-effort.
func (s *SupabaseStore) DeleteAllComments(ctx context.Context) int {
	deleted, err := s.deleteRows(ctx, commentsTable, map[string]string{"id": "neq.-1"})
	if err != nil {
		logrus.Errorf("Failed to delete all comments: %v", err)
		return 0
	}
	return deleted
}

// UpdateCommentFields patches named fields of one comment row.
func (s *SupabaseStore) UpdateCommentFields(ctx context.Context, commentID int64, fields map[string]interface{}) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+strconv.FormatInt(commentID, 10)).
		SetBody(fields).
		Patch(s.tableURL(commentsTable))
	if err != nil {
		return fmt.Errorf("failed to update comment id=%d: %w", commentID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("comment update id=%d returned status %d", commentID, resp.StatusCode())
	}
	return nil
}

func (s *SupabaseStore) selectComments(ctx context.Context, params map[string]string) ([]models.Comment, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(s.tableURL(commentsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to select comments: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("comment select returned status %d", resp.StatusCode())
	}

	var comments []models.Comment
	if err := json.Unmarshal(resp.Body(), &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comment rows: %w", err)
	}
	return comments, nil
}

func (s *SupabaseStore) deleteRows(ctx context.Context, table string, filters map[string]string) (int, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "count=exact").
		SetQueryParams(filters).
		Delete(s.tableURL(table))
	if err != nil {
		return 0, err
	}
	if resp.IsError() {
		return 0, fmt.Errorf("delete from '%s' returned status %d", table, resp.StatusCode())
	}
	return countFromContentRange(resp.Header().Get("Content-Range")), nil
}

func (s *SupabaseStore) tableURL(table string) string {
	return s.baseURL + "/" + table
}

// countFromContentRange parses the total out of a PostgREST Content-Range
// header such as "0-4/5" or "*/5". Unknown shapes count as zero.
func countFromContentRange(header string) int {
	idx := strings.LastIndexByte(header, '/')
	if idx == -1 {
		return 0
	}
	total, err := strconv.Atoi(header[idx+1:])
	if err != nil {
		return 0
	}
	return total
}

func metaScore(meta map[string]interface{}) float64 {
	if meta == nil {
		return 0
	}
	switch v := meta["score"].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

package models

// ChannelMetrics holds the running metrics accumulated for a channel during
// a discovery run. AvgScore carries the raw score sum while folding and is
// converted to a true mean at finalize.
type ChannelMetrics struct {
	Mentions int     `json:"mentions"`
	AvgScore float64 `json:"avg_score"`
	Comments int     `json:"comments"`
}

// ChannelCandidate is a named social channel competing for ingestion priority.
// Score is derived from the metrics, never set directly. The candidate set for
// a platform is wholesale replaced on every discovery run.
type ChannelCandidate struct {
	Platform  string         `json:"platform"`
	ChannelID string         `json:"channel_id"`
	Name      string         `json:"name"`
	Metrics   ChannelMetrics `json:"metrics"`
	Score     float64        `json:"score"`
}

// Submission is a normalized view of one fetched post, independent of which
// upstream response shape produced it.
type Submission struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Subreddit   string  `json:"subreddit"`
	Score       float64 `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"` // epoch seconds; 0 means unknown, treated as recent
}

// Comment is one ingested remark tied to exactly one product. The sentiment
// and attribute fields stay empty until the analysis pass fills them in.
type Comment struct {
	ID                 int64  `json:"id,omitempty"`
	BrandName          string `json:"brand_name"`
	ProductName        string `json:"product_name"`
	Comment            string `json:"comment"`
	CommentSentiment   string `json:"comment_sentiment"`
	CommentTimestamp   string `json:"comment_timestamp"`
	ThreadName         string `json:"thread_name"`
	Upvotes            int    `json:"upvotes"`
	AttributeDiscussed string `json:"attribute_discussed,omitempty"`
	AttributeSentiment string `json:"attribute_sentiment,omitempty"`
}

// ReplaceSummary reports the outcome of a best-effort channel replacement.
type ReplaceSummary struct {
	Deleted  int `json:"deleted"`
	Inserted int `json:"inserted"`
	Errors   int `json:"errors,omitempty"`
}

// IngestSummary reports per-run ingestion counts.
type IngestSummary struct {
	Ingested int `json:"ingested"`
	Failed   int `json:"failed"`
}

// AnalysisSummary reports per-run analysis counts.
type AnalysisSummary struct {
	Updated      int `json:"updated"`
	Skipped      int `json:"skipped"`
	TotalScanned int `json:"total_scanned"`
}

// Classification is the result of one LLM sentiment/attribute pass over a
// single comment, after percentage normalization.
type Classification struct {
	CommentSentiment   string `json:"comment_sentiment"`
	AttributeDiscussed string `json:"attribute_discussed"`
	AttributeSentiment string `json:"attribute_sentiment"`
}

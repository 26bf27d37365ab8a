package sources

import (
	"reflect"

	"github.com/prodsense/social-sensing-bot/internal/models"
)

// Keys under which upstream responses have been observed to bury the
// submission array.
var submissionKeys = []string{"items", "results", "data", "submissions", "value", "children"}

// extractSubmissionMaps pulls the first array of objects out of an upstream
// payload. The payload may be the array itself, or a nested object hiding the
// array under one of the known keys. The walk is breadth-first and guarded by
// map identity so a self-referential structure cannot loop. When no array is
// found the result is empty, never an error.
func extractSubmissionMaps(payload interface{}) []map[string]interface{} {
	if items := dictItems(payload); items != nil {
		return items
	}
	root, ok := payload.(map[string]interface{})
	if !ok {
		return nil
	}

	queue := []interface{}{root}
	seen := make(map[uintptr]bool)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if items := dictItems(current); items != nil {
			return items
		}
		m, ok := current.(map[string]interface{})
		if !ok {
			continue
		}
		id := reflect.ValueOf(m).Pointer()
		if seen[id] {
			continue
		}
		seen[id] = true
		for _, key := range submissionKeys {
			if v, ok := m[key]; ok {
				queue = append(queue, v)
			}
		}
	}
	return nil
}

// dictItems returns the object entries of v when v is an array, else nil.
func dictItems(v interface{}) []map[string]interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	items := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			items = append(items, m)
		}
	}
	return items
}

// normalizeSubmission flattens one raw submission object into a Submission.
// Listing APIs wrap each entry as {kind, data}; the wrapper is unwrapped
// first. The subreddit name comes from the payload when present, else from
// the fallback channel context; it stays empty when neither is known.
func normalizeSubmission(raw map[string]interface{}, fallbackSubreddit string) models.Submission {
	if data, ok := raw["data"].(map[string]interface{}); ok {
		if _, isWrapper := raw["kind"]; isWrapper {
			raw = data
		}
	}

	sub := models.Submission{
		ID:          asString(raw["id"]),
		Title:       asString(raw["title"]),
		Subreddit:   resolveSubredditName(raw, fallbackSubreddit),
		Score:       asFloat(raw["score"]),
		NumComments: asInt(firstPresent(raw, "num_comments", "comments")),
	}
	if created := firstPresent(raw, "created_utc", "created"); created != nil {
		sub.CreatedUTC = asFloat(created)
	}
	return sub
}

// resolveSubredditName reads the subreddit field, which upstream delivers as
// either a plain string or an object carrying the display name.
func resolveSubredditName(raw map[string]interface{}, fallback string) string {
	switch v := raw["subreddit"].(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]interface{}:
		for _, key := range []string{"display_name", "name", "id"} {
			if name := asString(v[key]); name != "" {
				return name
			}
		}
	}
	return fallback
}

func firstPresent(m map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"
	"github.com/sirupsen/logrus"
)

const maxAttempts = 3

var (
	rateLimitWaits   = []time.Duration{30 * time.Second, 60 * time.Second}
	serverErrorWaits = []time.Duration{5 * time.Second, 20 * time.Second}
)

// callWithRetry issues one Responses API call, retrying rate limits and
// server-side failures with a fixed backoff. Any other error is returned
// immediately.
func callWithRetry(ctx context.Context, client *openai.Client, params responses.ResponseNewParams) (*responses.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var wait time.Duration
		switch {
		case isRateLimitError(err) && attempt < len(rateLimitWaits):
			wait = rateLimitWaits[attempt]
		case isServerError(err) && attempt < len(serverErrorWaits):
			wait = serverErrorWaits[attempt]
		default:
			return nil, err
		}

		logrus.Debugf("OpenAI call attempt %d failed, retrying in %v: %v", attempt+1, wait, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("openai call failed after %d attempts: %w", maxAttempts, lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "500") ||
		strings.Contains(s, "internal server error") ||
		strings.Contains(s, "server_error")
}

package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/prodsense/social-sensing-bot/internal/config"
	"github.com/prodsense/social-sensing-bot/internal/models"
)

type mockSuggester struct {
	mock.Mock
}

func (m *mockSuggester) SuggestSubreddits(ctx context.Context, products []string) ([]string, error) {
	args := m.Called(ctx, products)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockSuggester) SuggestQueries(ctx context.Context, products []string) ([]string, error) {
	args := m.Called(ctx, products)
	return args.Get(0).([]string), args.Error(1)
}

type mockSource struct {
	mock.Mock
	enabled bool
}

func (m *mockSource) GetName() string { return "reddit" }

func (m *mockSource) IsEnabled() bool { return m.enabled }

func (m *mockSource) ListNew(ctx context.Context, subreddit string, limit int) ([]models.Submission, error) {
	args := m.Called(ctx, subreddit, limit)
	return args.Get(0).([]models.Submission), args.Error(1)
}

func (m *mockSource) Search(ctx context.Context, subreddit, query, sort, timeFilter string, limit int) ([]models.Submission, error) {
	args := m.Called(ctx, subreddit, query, sort, timeFilter, limit)
	return args.Get(0).([]models.Submission), args.Error(1)
}

func (m *mockSource) CommentsForProduct(ctx context.Context, product, subreddit string) ([]models.Comment, error) {
	args := m.Called(ctx, product, subreddit)
	return args.Get(0).([]models.Comment), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ReplaceChannels(ctx context.Context, platform string, channels []models.ChannelCandidate) models.ReplaceSummary {
	args := m.Called(ctx, platform, channels)
	return args.Get(0).(models.ReplaceSummary)
}

func (m *mockStore) TopChannels(ctx context.Context, platform string, limit int) []string {
	args := m.Called(ctx, platform, limit)
	return args.Get(0).([]string)
}

func (m *mockStore) TopChannel(ctx context.Context, platform string) string {
	args := m.Called(ctx, platform)
	return args.String(0)
}

func (m *mockStore) InsertComment(ctx context.Context, comment models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockStore) GetComments(ctx context.Context, productName string, limit int) ([]models.Comment, error) {
	args := m.Called(ctx, productName, limit)
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *mockStore) GetCommentsByBrand(ctx context.Context, brandName string, limit int) ([]models.Comment, error) {
	args := m.Called(ctx, brandName, limit)
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *mockStore) GetRecentComments(ctx context.Context, limit int) ([]models.Comment, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *mockStore) GetUnanalyzedComments(ctx context.Context, limit int) ([]models.Comment, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *mockStore) DeleteCommentsForProduct(ctx context.Context, productName string) int {
	args := m.Called(ctx, productName)
	return args.Int(0)
}

func (m *mockStore) DeleteAllComments(ctx context.Context) int {
	args := m.Called(ctx)
	return args.Int(0)
}

func (m *mockStore) UpdateCommentFields(ctx context.Context, commentID int64, fields map[string]interface{}) error {
	args := m.Called(ctx, commentID, fields)
	return args.Error(0)
}

func discoveryConfig() *config.Config {
	return &config.Config{
		LookbackDays:        7,
		PostsLimit:          120,
		MaxDiscoveryResults: 20,
	}
}

func TestDiscover_SuggestionFailureIsFatal(t *testing.T) {
	suggester := new(mockSuggester)
	suggester.On("SuggestSubreddits", mock.Anything, []string{"iPhone16"}).
		Return([]string(nil), errors.New("model unavailable"))

	source := &mockSource{enabled: true}
	st := new(mockStore)

	svc := NewService(discoveryConfig(), suggester, source, st)
	_, err := svc.Discover(context.Background(), []string{"iPhone16"})

	assert.Error(t, err)
	st.AssertNotCalled(t, "ReplaceChannels", mock.Anything, mock.Anything, mock.Anything)
}

func TestDiscover_DisabledSourceYieldsEmpty(t *testing.T) {
	suggester := new(mockSuggester)
	suggester.On("SuggestSubreddits", mock.Anything, mock.Anything).Return([]string{"gadgets"}, nil)
	suggester.On("SuggestQueries", mock.Anything, mock.Anything).Return([]string{"iPhone16 review"}, nil)

	source := &mockSource{enabled: false}
	st := new(mockStore)

	svc := NewService(discoveryConfig(), suggester, source, st)
	results, err := svc.Discover(context.Background(), []string{"iPhone16"})

	assert.NoError(t, err)
	assert.Empty(t, results["reddit"])
	st.AssertNotCalled(t, "ReplaceChannels", mock.Anything, mock.Anything, mock.Anything)
}

func TestDiscover_ListNewFallsBackToSearch(t *testing.T) {
	suggester := new(mockSuggester)
	suggester.On("SuggestSubreddits", mock.Anything, mock.Anything).Return([]string{"gadgets"}, nil)
	suggester.On("SuggestQueries", mock.Anything, mock.Anything).Return([]string{}, nil)

	source := &mockSource{enabled: true}
	source.On("ListNew", mock.Anything, "gadgets", 120).
		Return([]models.Submission{}, nil)
	source.On("Search", mock.Anything, "gadgets", "iPhone16", "new", "week", 120).
		Return([]models.Submission{
			{ID: "t3_1", Subreddit: "gadgets", Score: 10, NumComments: 2},
		}, nil)

	st := new(mockStore)
	st.On("ReplaceChannels", mock.Anything, "reddit", mock.Anything).
		Return(models.ReplaceSummary{Deleted: 0, Inserted: 1})

	svc := NewService(discoveryConfig(), suggester, source, st)
	results, err := svc.Discover(context.Background(), []string{"iPhone16"})

	assert.NoError(t, err)
	assert.Len(t, results["reddit"], 1)
	assert.Equal(t, "gadgets", results["reddit"][0].ChannelID)
	source.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestDiscover_FetchFailureSkipsChannelOnly(t *testing.T) {
	suggester := new(mockSuggester)
	suggester.On("SuggestSubreddits", mock.Anything, mock.Anything).Return([]string{"broken", "gadgets"}, nil)
	suggester.On("SuggestQueries", mock.Anything, mock.Anything).Return([]string{}, nil)

	source := &mockSource{enabled: true}
	source.On("ListNew", mock.Anything, "broken", 120).
		Return([]models.Submission(nil), errors.New("503"))
	source.On("Search", mock.Anything, "broken", "iPhone16", "new", "week", 120).
		Return([]models.Submission(nil), errors.New("503"))
	source.On("ListNew", mock.Anything, "gadgets", 120).
		Return([]models.Submission{{ID: "t3_1", Subreddit: "gadgets", Score: 5, NumComments: 1}}, nil)

	st := new(mockStore)
	st.On("ReplaceChannels", mock.Anything, "reddit", mock.Anything).
		Return(models.ReplaceSummary{Inserted: 1})

	svc := NewService(discoveryConfig(), suggester, source, st)
	results, err := svc.Discover(context.Background(), []string{"iPhone16"})

	assert.NoError(t, err)
	assert.Len(t, results["reddit"], 1)
	assert.Equal(t, "gadgets", results["reddit"][0].ChannelID)
}

func TestDiscover_QueryPassDropsNamelessSubmissions(t *testing.T) {
	suggester := new(mockSuggester)
	suggester.On("SuggestSubreddits", mock.Anything, mock.Anything).Return([]string{}, nil)
	suggester.On("SuggestQueries", mock.Anything, mock.Anything).Return([]string{"iPhone16 battery"}, nil)

	source := &mockSource{enabled: true}
	source.On("Search", mock.Anything, "all", "iPhone16 battery", "new", "week", 120).
		Return([]models.Submission{
			{ID: "t3_1", Subreddit: "", Score: 99, NumComments: 9},
			{ID: "t3_2", Subreddit: "apple", Score: 4, NumComments: 1},
		}, nil)

	st := new(mockStore)
	st.On("ReplaceChannels", mock.Anything, "reddit", mock.Anything).
		Return(models.ReplaceSummary{Inserted: 1})

	svc := NewService(discoveryConfig(), suggester, source, st)
	results, err := svc.Discover(context.Background(), []string{"iPhone16"})

	assert.NoError(t, err)
	assert.Len(t, results["reddit"], 1)
	assert.Equal(t, "apple", results["reddit"][0].ChannelID)
}

func TestDiscover_LookbackWindowFiltersOldSubmissions(t *testing.T) {
	suggester := new(mockSuggester)
	suggester.On("SuggestSubreddits", mock.Anything, mock.Anything).Return([]string{"gadgets"}, nil)
	suggester.On("SuggestQueries", mock.Anything, mock.Anything).Return([]string{}, nil)

	source := &mockSource{enabled: true}
	source.On("ListNew", mock.Anything, "gadgets", 120).
		Return([]models.Submission{
			{ID: "old", Subreddit: "gadgets", Score: 100, CreatedUTC: 1},
			{ID: "undated", Subreddit: "gadgets", Score: 3, NumComments: 1},
		}, nil)

	st := new(mockStore)
	st.On("ReplaceChannels", mock.Anything, "reddit", mock.Anything).
		Return(models.ReplaceSummary{Inserted: 1})

	svc := NewService(discoveryConfig(), suggester, source, st)
	results, err := svc.Discover(context.Background(), []string{"iPhone16"})

	assert.NoError(t, err)
	assert.Len(t, results["reddit"], 1)
	// Only the undated submission survives the window, so a single mention.
	assert.Equal(t, 1, results["reddit"][0].Metrics.Mentions)
	assert.InDelta(t, 3.0, results["reddit"][0].Metrics.AvgScore, 1e-9)
}

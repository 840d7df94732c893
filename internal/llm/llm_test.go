package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/serene-finance/serene/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    ClassificationResponse
		wantErr bool
	}{
		{
			name:    "plain JSON",
			content: `{"category": "Groceries", "confidence": 0.92}`,
			want:    ClassificationResponse{Category: "Groceries", Confidence: 0.92},
		},
		{
			name:    "markdown wrapped",
			content: "```json\n{\"category\": \"Transport\", \"confidence\": 0.7}\n```",
			want:    ClassificationResponse{Category: "Transport", Confidence: 0.7},
		},
		{
			name:    "missing category",
			content: `{"confidence": 0.5}`,
			wantErr: true,
		},
		{
			name:    "not JSON",
			content: "I think this is Groceries",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClassification(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanMarkdownWrapper(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanMarkdownWrapper("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanMarkdownWrapper("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanMarkdownWrapper(`  {"a":1}  `))
}

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "card prefix and suffix", in: "CARTE 01/03 CARREFOUR CB*6759", want: "Carrefour"},
		{name: "sepa prefix", in: "PRLV SEPA NETFLIX 123456789", want: "Netflix"},
		{name: "transfer prefix", in: "VIR EMPLOYER SALARY", want: "Employer Salary"},
		{name: "already clean", in: "AMAZON", want: "Amazon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanLabel(tt.in))
		})
	}
}

func TestSuggestionCache(t *testing.T) {
	cache := newSuggestionCache(50 * time.Millisecond)
	defer cache.Close()

	_, found := cache.get("COFFEE")
	assert.False(t, found)

	cache.set("COFFEE", service.Suggestion{Category: "Restaurants", Confidence: 0.8})

	got, found := cache.get("COFFEE")
	require.True(t, found)
	assert.Equal(t, "Restaurants", got.Category)
	assert.Equal(t, 1, cache.size())

	time.Sleep(80 * time.Millisecond)
	_, found = cache.get("COFFEE")
	assert.False(t, found, "entry should expire after TTL")
}

func TestRateLimiterAcquire(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.Close()

	assert.True(t, rl.tryAcquire())
	assert.True(t, rl.tryAcquire())
	assert.False(t, rl.tryAcquire(), "bucket exhausted")
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.Close()

	require.True(t, rl.tryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "bard", APIKey: "k"})
	require.Error(t, err)

	_, err = NewClient(Config{Provider: "openai"})
	require.Error(t, err, "missing API key")

	_, err = NewClient(Config{Provider: "anthropic", APIKey: "k"})
	require.NoError(t, err)
}

// stubClient answers every prompt with a fixed response.
type stubClient struct {
	resp  ClassificationResponse
	err   error
	calls int
}

func (s *stubClient) Classify(context.Context, string) (ClassificationResponse, error) {
	s.calls++
	if s.err != nil {
		return ClassificationResponse{}, s.err
	}
	return s.resp, nil
}

func newStubClassifier(client Client) *Classifier {
	return &Classifier{
		client:      client,
		cache:       newSuggestionCache(time.Minute),
		logger:      slog.Default(),
		rateLimiter: newRateLimiter(600),
		retryOpts: service.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
		},
	}
}

func TestClassifierCachesByLabel(t *testing.T) {
	stub := &stubClient{resp: ClassificationResponse{Category: "Groceries", Confidence: 0.9}}
	classifier := newStubClassifier(stub)
	defer func() { _ = classifier.Close() }()

	ctx := context.Background()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := classifier.Classify(ctx, "CARREFOUR CB*6759", -42.10, date)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", first.Category)

	// Same label again: served from cache, no second provider call.
	_, err = classifier.Classify(ctx, "carrefour cb*6759", -42.10, date)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, 1, classifier.CacheSize())
}

func TestClassifierRetriesThenFails(t *testing.T) {
	stub := &stubClient{err: errors.New("rate limited")}
	classifier := newStubClassifier(stub)
	defer func() { _ = classifier.Close() }()

	_, err := classifier.Classify(context.Background(), "MYSTERY", -10, time.Now())
	require.Error(t, err)
	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, 0, classifier.CacheSize(), "failures are not cached")
}

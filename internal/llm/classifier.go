// Package llm implements the external AI classification collaborator:
// provider clients, rate limiting, caching, and prompt construction.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/serene-finance/serene/internal/common"
	"github.com/serene-finance/serene/internal/model"
	"github.com/serene-finance/serene/internal/service"
)

// Classifier implements service.AIClassifier using LLM APIs.
type Classifier struct {
	client      Client
	catalog     service.CategoryCatalog
	cache       *suggestionCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
}

// NewClassifier creates a new LLM-based classifier. The catalog may be nil;
// the prompt then simply omits the category list.
func NewClassifier(cfg Config, catalog service.CategoryCatalog, logger *slog.Logger) (*Classifier, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Classifier{
		client:      client,
		catalog:     catalog,
		cache:       newSuggestionCache(cfg.CacheTTL),
		logger:      logger,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}, nil
}

// Classify asks the provider for a category suggestion. Results are cached
// by label; repeated imports of the same statement hit the cache instead of
// the provider.
func (c *Classifier) Classify(ctx context.Context, label string, amount float64, date time.Time) (service.Suggestion, error) {
	cacheKey := strings.ToUpper(strings.TrimSpace(label))
	if suggestion, found := c.cache.get(cacheKey); found {
		c.logger.Debug("cache hit for label", "label", label)
		return suggestion, nil
	}

	if err := c.rateLimiter.wait(ctx); err != nil {
		return service.Suggestion{}, fmt.Errorf("rate limit error: %w", err)
	}

	prompt := c.buildPrompt(ctx, label, amount, date)

	var suggestion service.Suggestion

	err := common.WithRetry(ctx, func() error {
		response, err := c.client.Classify(ctx, prompt)
		if err != nil {
			c.logger.Warn("classification attempt failed",
				"error", err,
				"label", label)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		suggestion = service.Suggestion{
			Category:   response.Category,
			Confidence: response.Confidence,
		}
		return nil
	}, c.retryOpts)

	if err != nil {
		return service.Suggestion{}, fmt.Errorf("%w: %v", common.ErrClassificationFailed, err)
	}

	c.cache.set(cacheKey, suggestion)

	c.logger.Info("label classified",
		"label", label,
		"category", suggestion.Category,
		"confidence", suggestion.Confidence)

	return suggestion, nil
}

// buildPrompt creates the classification prompt. The label is cleaned of
// bank noise so the model focuses on the merchant, with the original kept
// for context.
func (c *Classifier) buildPrompt(ctx context.Context, label string, amount float64, date time.Time) string {
	categoryList := ""
	if c.catalog != nil {
		if categories, err := c.catalog.GetCategories(ctx); err == nil {
			names := make([]string, 0, len(categories))
			for _, cat := range categories {
				if cat.IsActive {
					names = append(names, cat.Name)
				}
			}
			categoryList = strings.Join(names, ", ")
		} else {
			c.logger.Warn("failed to load category catalog for prompt", "error", err)
		}
	}
	if categoryList == "" {
		categoryList = model.CategoryUnknown
	}

	return fmt.Sprintf(`You are an expert in financial categorization. Analyze the following transaction and determine the most appropriate category.
Possible categories: %s

Transaction:
- Label: %s (Original: %s)
- Amount: %.2f
- Date: %s

Respond ONLY in JSON format:
{
  "category": "Category name",
  "confidence": 0.0 to 1.0 (estimate of your certainty)
}`,
		categoryList,
		CleanLabel(label),
		label,
		amount,
		date.Format("2006-01-02"))
}

// CacheSize returns the number of cached suggestions.
func (c *Classifier) CacheSize() int {
	return c.cache.size()
}

// Close stops background goroutines and cleans up resources.
func (c *Classifier) Close() error {
	if c.cache != nil {
		c.cache.Close()
	}
	if c.rateLimiter != nil {
		c.rateLimiter.Close()
	}
	return nil
}

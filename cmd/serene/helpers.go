package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/serene-finance/serene/internal/engine"
	"github.com/serene-finance/serene/internal/llm"
	"github.com/serene-finance/serene/internal/rules"
	"github.com/serene-finance/serene/internal/service"
	"github.com/serene-finance/serene/internal/storage"
	"github.com/spf13/viper"
)

// defaultDatabasePath returns the XDG-style default database location.
func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "serene.db"
	}
	return filepath.Join(home, ".local", "share", "serene", "serene.db")
}

// openStorage opens the configured SQLite database and applies the rule
// collision policy from config.
func openStorage() (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = defaultDatabasePath()
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	policy, err := storage.ParseRuleCollisionPolicy(viper.GetString("rules.collision_policy"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	store.SetRuleCollisionPolicy(policy)

	return store, nil
}

// buildAIClassifier constructs the LLM collaborator from config, or nil when
// no provider is configured. Classification still works without one: rule
// misses degrade to Unknown.
func buildAIClassifier(store *storage.SQLiteStorage) (service.AIClassifier, func(), error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		return nil, func() {}, nil
	}

	cfg := llm.Config{
		Provider:    provider,
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RetryDelay:  viper.GetDuration("llm.retry_delay"),
		CacheTTL:    viper.GetDuration("llm.cache_ttl"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
	}

	classifier, err := llm.NewClassifier(cfg, store, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AI classifier: %w", err)
	}

	return classifier, func() { _ = classifier.Close() }, nil
}

// buildEngine wires the classification engine over the given storage.
func buildEngine(store *storage.SQLiteStorage) (*engine.Classifier, func(), error) {
	ai, cleanup, err := buildAIClassifier(store)
	if err != nil {
		return nil, nil, err
	}

	timeout := viper.GetDuration("llm.timeout")
	if timeout == 0 {
		timeout = engine.DefaultAITimeout
	}

	incomeCategory := viper.GetString("engine.income_category")
	if incomeCategory == "" {
		incomeCategory = "Income"
	}

	cfg := engine.Config{
		AITimeout:       timeout,
		TransferTargets: viper.GetStringSlice("transfers.targets"),
		IncomeCategory:  incomeCategory,
	}

	classifier := engine.New(rules.NewProvider(store), ai, cfg, slog.Default())
	return classifier, cleanup, nil
}

// buildRuleOnlyEngine wires the classification engine without an AI
// collaborator. Rule misses classify as Unknown with source "none".
func buildRuleOnlyEngine(store *storage.SQLiteStorage) (*engine.Classifier, func(), error) {
	cfg := engine.Config{
		TransferTargets: viper.GetStringSlice("transfers.targets"),
		IncomeCategory:  viper.GetString("engine.income_category"),
	}
	classifier := engine.New(rules.NewProvider(store), nil, cfg, slog.Default())
	return classifier, func() {}, nil
}

// parseDateFlag parses a --from/--to style date flag. Empty means the zero
// time.
func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

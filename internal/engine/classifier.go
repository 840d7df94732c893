// Package engine orchestrates transaction classification: compiled rules
// first, then the transfer heuristic, then the external AI collaborator.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/serene-finance/serene/internal/model"
	"github.com/serene-finance/serene/internal/rules"
	"github.com/serene-finance/serene/internal/service"
)

// DefaultAITimeout bounds a single AI collaborator call.
const DefaultAITimeout = 30 * time.Second

// transferKeywords are the label fragments that, combined with a configured
// internal target, mark a transaction as an internal transfer.
var transferKeywords = []string{"VIR ", "VIREMENT", "VRT", "PIVOT", "MOUVEMENT", "TRANSFERT"}

// Config holds classifier settings.
type Config struct {
	// AITimeout bounds each AI call; zero means DefaultAITimeout.
	AITimeout time.Duration
	// TransferTargets are account or member names whose presence in a
	// transfer-keyword label marks an internal transfer. Empty disables
	// the heuristic.
	TransferTargets []string
	// IncomeCategory, when set, is rejected for negative amounts: an AI
	// answer of this category for an outflow degrades to Unknown.
	IncomeCategory string
}

// Classifier decides which category a transaction belongs to. Classify is
// total: every input yields a classification and no failure propagates to
// the caller.
type Classifier struct {
	provider        *rules.Provider
	ai              service.AIClassifier
	logger          *slog.Logger
	incomeCategory  string
	transferTargets []string
	aiTimeout       time.Duration
}

// New creates a classifier. The AI collaborator may be nil, in which case
// rule misses classify as Unknown with source "none".
func New(provider *rules.Provider, ai service.AIClassifier, cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}

	targets := make([]string, 0, len(cfg.TransferTargets))
	for _, t := range cfg.TransferTargets {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, strings.ToUpper(t))
		}
	}

	return &Classifier{
		provider:        provider,
		ai:              ai,
		logger:          logger,
		aiTimeout:       timeout,
		transferTargets: targets,
		incomeCategory:  cfg.IncomeCategory,
	}
}

// Classify categorizes a single transaction. Order of attempts:
//
//  1. Compiled rules, first match in priority order wins: {category, "rule", 1.0}.
//  2. Internal-transfer heuristic: {Internal Transfer, "rule", 1.0}.
//  3. AI collaborator under a bounded timeout: {category, "ai", confidence}.
//     Any AI failure degrades to {Unknown, "ai", 0.0}.
//
// With no AI collaborator configured, a rule miss yields {Unknown, "none", 0.0}.
func (c *Classifier) Classify(ctx context.Context, label string, amount float64, date time.Time) model.Classification {
	snapshot, err := c.provider.Snapshot(ctx)
	if err != nil {
		// Rule evaluation is best-effort: log and fall through to the
		// remaining stages.
		c.logger.Error("failed to load rule snapshot", "error", err)
	} else if match, ok := snapshot.Match(label); ok {
		return model.Classification{
			Category:   match.Category,
			Source:     model.SourceRule,
			Confidence: 1.0,
		}
	}

	if c.isInternalTransfer(label) {
		return model.Classification{
			Category:   model.CategoryInternalTransfer,
			Source:     model.SourceRule,
			Confidence: 1.0,
		}
	}

	if c.ai == nil {
		return model.Unknown(model.SourceNone)
	}

	aiCtx, cancel := context.WithTimeout(ctx, c.aiTimeout)
	defer cancel()

	suggestion, err := c.ai.Classify(aiCtx, label, amount, date)
	if err != nil {
		c.logger.Warn("AI classification unavailable, degrading to Unknown",
			"label", label,
			"error", err)
		return model.Unknown(model.SourceAI)
	}

	category := suggestion.Category
	if category == "" {
		category = model.CategoryUnknown
	}

	confidence := suggestion.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	// Negative amounts cannot be income; an AI answer to the contrary is a
	// constraint violation, not a usable classification.
	if c.incomeCategory != "" && category == c.incomeCategory && amount < 0 {
		return model.Unknown(model.SourceRule)
	}

	return model.Classification{
		Category:   category,
		Source:     model.SourceAI,
		Confidence: confidence,
	}
}

// isInternalTransfer reports whether the label carries both a transfer
// keyword and one of the configured internal targets.
func (c *Classifier) isInternalTransfer(label string) bool {
	if len(c.transferTargets) == 0 {
		return false
	}

	labelUpper := strings.ToUpper(label)

	keyword := false
	for _, k := range transferKeywords {
		if strings.Contains(labelUpper, k) {
			keyword = true
			break
		}
	}
	if !keyword {
		return false
	}

	for _, target := range c.transferTargets {
		if strings.Contains(labelUpper, target) {
			return true
		}
	}

	return false
}

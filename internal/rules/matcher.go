package rules

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/serene-finance/serene/internal/service"
)

// Match is a successful rule evaluation.
type Match struct {
	Pattern  string
	Category string
	RuleID   int
}

// Match evaluates a label against the snapshot. Rules are tried in their
// pre-sorted order and the first match wins; there is no scoring and no
// combination of multiple matches. Pure and safe for concurrent callers.
func (s *Snapshot) Match(label string) (Match, bool) {
	labelUpper := strings.ToUpper(label)

	for _, rule := range s.rules {
		if rule.matches(labelUpper) {
			return Match{
				RuleID:   rule.ID,
				Pattern:  rule.Pattern,
				Category: rule.Category,
			}, true
		}
	}

	return Match{}, false
}

// Provider hands out the current compiled snapshot, recompiling only when
// the store's rule-set version has moved. Recompilation is copy-on-write:
// in-flight callers keep matching against the snapshot they hold while a
// new one is swapped in behind them.
type Provider struct {
	store    service.RulePersistence
	snapshot atomic.Pointer[Snapshot]
	mu       sync.Mutex
}

// NewProvider creates a snapshot provider backed by the given rule store.
func NewProvider(store service.RulePersistence) *Provider {
	return &Provider{store: store}
}

// Snapshot returns a compiled snapshot matching the store's current
// rule-set version, recompiling if a mutation has happened since the last
// call.
func (p *Provider) Snapshot(ctx context.Context) (*Snapshot, error) {
	version := p.store.RulesVersion()
	if snap := p.snapshot.Load(); snap != nil && snap.Version() == version {
		return snap, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another caller may have recompiled while we waited for the lock.
	version = p.store.RulesVersion()
	if snap := p.snapshot.Load(); snap != nil && snap.Version() == version {
		return snap, nil
	}

	rules, err := p.store.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules for compilation: %w", err)
	}

	snap := Compile(rules, version)
	p.snapshot.Store(snap)

	return snap, nil
}

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/serene-finance/serene/internal/service"
)

// MockAIClassifier is a configurable AI collaborator stub for tests.
type MockAIClassifier struct {
	// Err, when set, is returned from every call.
	Err error
	// Suggestion is returned when Err is nil.
	Suggestion service.Suggestion
	// Delay simulates provider latency before responding.
	Delay time.Duration

	mu    sync.Mutex
	calls int
}

// Classify implements service.AIClassifier.
func (m *MockAIClassifier) Classify(ctx context.Context, _ string, _ float64, _ time.Time) (service.Suggestion, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return service.Suggestion{}, ctx.Err()
		case <-time.After(m.Delay):
		}
	}

	if m.Err != nil {
		return service.Suggestion{}, m.Err
	}
	return m.Suggestion, nil
}

// Calls returns how many times Classify was invoked.
func (m *MockAIClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

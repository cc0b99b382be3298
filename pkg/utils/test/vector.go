package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/studai/pkg/vector"
)

// MockVectorDriver is a test vector driver. Query returns Results
// regardless of the embedding, truncated to topK.
type MockVectorDriver struct {
	Results []vector.QueryResult

	FailAdd   bool
	FailQuery bool

	// FailAddAfter makes Add fail once this many documents were stored. 0 disables it.
	FailAddAfter int

	mu       sync.Mutex
	added    []vector.Document
	lastTopK int
	queries  int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAdd || (m.FailAddAfter > 0 && len(m.added) >= m.FailAddAfter) {
		return errors.New("mock add failure")
	}
	m.added = append(m.added, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries++
	m.lastTopK = topK
	if m.FailQuery {
		return nil, errors.New("mock query failure")
	}
	if len(m.Results) < topK {
		return m.Results, nil
	}
	return m.Results[:topK], nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []vector.Document
	for _, d := range m.added {
		if want[d.ID] {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, _ []string) error {
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

// Added returns every document passed to Add.
func (m *MockVectorDriver) Added() []vector.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vector.Document(nil), m.added...)
}

// LastTopK returns the topK of the most recent Query.
func (m *MockVectorDriver) LastTopK() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTopK
}

// Queries returns how many times Query was called.
func (m *MockVectorDriver) Queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/studai/pkg/eventstream"
)

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []*eventstream.Event
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, event *eventstream.Event) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// Events returns the recorded events in publish order.
func (m *MockPublisher) Events() []*eventstream.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.Event(nil), m.events...)
}

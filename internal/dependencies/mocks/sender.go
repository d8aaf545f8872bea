package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/teamfinder/internal/model"
)

// SentMessage is one delivery recorded by MockSender
type SentMessage struct {
	To     model.PlayerID
	Render model.Render
}

// MockSender records outbound messages instead of delivering them.
// Recipients registered with FailFor get the given error.
type MockSender struct {
	mu       sync.Mutex
	sent     []SentMessage
	failures map[model.PlayerID]error
}

// NewMockSender creates a new MockSender
func NewMockSender() *MockSender {
	return &MockSender{failures: make(map[model.PlayerID]error)}
}

// Send records the message or returns the configured failure
func (m *MockSender) Send(ctx context.Context, to model.PlayerID, r model.Render) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[to]; ok {
		return err
	}
	m.sent = append(m.sent, SentMessage{To: to, Render: r})
	return nil
}

// FailFor makes every send to id fail with err
func (m *MockSender) FailFor(id model.PlayerID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = err
}

// Sent returns a copy of the recorded messages
func (m *MockSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// Package memory holds in-process adapters used when Redis is not configured.
package memory

import (
	"context"
	"sync"

	"seedflow-backend/internal/domain/oracle"
)

var _ oracle.Inbox = (*OracleInbox)(nil)

// OracleInbox keeps events in chronological order and each lender's inbox
// newest first, matching the Redis adapter.
type OracleInbox struct {
	mu     sync.RWMutex
	events []oracle.Event
	inbox  map[string][]oracle.Event
	unread map[string]int64
}

func NewOracleInbox() *OracleInbox {
	return &OracleInbox{inbox: map[string][]oracle.Event{}, unread: map[string]int64{}}
}

func (m *OracleInbox) Append(_ context.Context, ev oracle.Event, lenders []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	for _, l := range lenders {
		m.inbox[l] = append([]oracle.Event{ev}, m.inbox[l]...)
		m.unread[l]++
	}
	return nil
}

func (m *OracleInbox) Events(_ context.Context) ([]oracle.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]oracle.Event, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *OracleInbox) Inbox(_ context.Context, lenderID string) ([]oracle.Event, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]oracle.Event, len(m.inbox[lenderID]))
	copy(out, m.inbox[lenderID])
	return out, m.unread[lenderID], nil
}

func (m *OracleInbox) MarkRead(_ context.Context, lenderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.unread, lenderID)
	return nil
}

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/brightpath-tutoring/backend/internal/clock"
)

type record struct {
	attempts       int
	firstAttemptAt time.Time
}

// MemoryStore counts failures in process. Records expire lazily when read after the window;
// there is no background sweep. State is not shared between server instances.
type MemoryStore struct {
	policy  Policy
	clock   clock.Clock
	mu      sync.Mutex
	records map[string]record
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore(policy Policy, clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.Real{}
	}
	return &MemoryStore{policy: policy, clock: clk, records: make(map[string]record)}
}

// Name implements Store.
func (m *MemoryStore) Name() string { return "memory" }

// Check implements Store.
func (m *MemoryStore) Check(_ context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.current(key)
	if !ok || rec.attempts < m.policy.MaxAttempts {
		return Result{}, nil
	}
	remaining := m.policy.Window - m.clock.Now().Sub(rec.firstAttemptAt)
	return Result{Limited: true, RetryAfterSeconds: retryAfter(remaining)}, nil
}

// RecordFailure implements Store.
func (m *MemoryStore) RecordFailure(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.current(key)
	if !ok {
		rec = record{firstAttemptAt: m.clock.Now()}
	}
	rec.attempts++
	m.records[key] = rec
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.records, key)
	m.mu.Unlock()
	return nil
}

// Reset drops every record.
func (m *MemoryStore) Reset() {
	m.mu.Lock()
	m.records = make(map[string]record)
	m.mu.Unlock()
}

// current returns the live record for key, deleting it if its window has elapsed. Caller holds mu.
func (m *MemoryStore) current(key string) (record, bool) {
	rec, ok := m.records[key]
	if !ok {
		return record{}, false
	}
	if m.clock.Now().Sub(rec.firstAttemptAt) >= m.policy.Window {
		delete(m.records, key)
		return record{}, false
	}
	return rec, true
}

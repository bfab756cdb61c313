package notify

import (
	"context"
	"sync"
)

// MockAdapter is an in-memory Adapter for tests. It records every posted
// digest and can be primed to fail.
type MockAdapter struct {
	mu        sync.Mutex
	connected bool
	closed    bool
	posts     []Digest

	// ConnectErr and PostErr, when set, are returned by the respective calls.
	ConnectErr error
	PostErr    error
}

// NewMockAdapter creates a MockAdapter.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

func (m *MockAdapter) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.connected = true
	return nil
}

func (m *MockAdapter) Post(ctx context.Context, d Digest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PostErr != nil {
		return m.PostErr
	}
	m.posts = append(m.posts, d)
	return nil
}

func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.connected = false
	return nil
}

// Posts returns a copy of all digests posted so far.
func (m *MockAdapter) Posts() []Digest {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Digest, len(m.posts))
	copy(cp, m.posts)
	return cp
}

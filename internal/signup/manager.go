package signup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"xolvetech/internal/auth"
)

// ErrFlowNotFound means no live flow exists for the given ID.
var ErrFlowNotFound = errors.New("signup flow not found")

// StoreFactory builds the per-flow auth store. Each flow gets its own store
// so its cached session and event subscription are torn down with it.
type StoreFactory func() *auth.Store

// Manager owns the live sign-up flows, keyed by flow ID. Idle flows are
// evicted after the TTL; eviction closes the flow's auth store so nothing
// keeps listening for a client that walked away.
type Manager struct {
	newStore StoreFactory
	sender   CodeSender
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	flows map[uuid.UUID]*Flow
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithManagerClock replaces the manager's time source.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a flow manager. A zero TTL defaults to 30 minutes.
func NewManager(newStore StoreFactory, sender CodeSender, ttl time.Duration, opts ...ManagerOption) *Manager {
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	m := &Manager{
		newStore: newStore,
		sender:   sender,
		ttl:      ttl,
		now:      time.Now,
		flows:    make(map[uuid.UUID]*Flow),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new flow at the landing step and registers it.
func (m *Manager) Create() *Flow {
	flow := NewFlow(m.newStore(), m.sender, WithClock(m.now))

	m.mu.Lock()
	m.flows[flow.ID()] = flow
	m.mu.Unlock()

	return flow
}

// Get returns the live flow for the given ID.
func (m *Manager) Get(id uuid.UUID) (*Flow, error) {
	m.mu.Lock()
	flow, ok := m.flows[id]
	m.mu.Unlock()

	if !ok {
		return nil, ErrFlowNotFound
	}
	return flow, nil
}

// CompleteOAuth hands a finished provider exchange to the flow that
// initiated it. The flow ID travels in the OAuth state payload, so the
// session reaches exactly the client that asked for it and no other.
func (m *Manager) CompleteOAuth(ctx context.Context, id uuid.UUID, user *auth.User, token string) error {
	flow, err := m.Get(id)
	if err != nil {
		return err
	}
	return flow.CompleteOAuth(ctx, user, token)
}

// Destroy removes a flow and closes its auth store. Destroying a flow that
// is already gone is not an error.
func (m *Manager) Destroy(id uuid.UUID) {
	m.mu.Lock()
	flow, ok := m.flows[id]
	if ok {
		delete(m.flows, id)
	}
	m.mu.Unlock()

	if ok {
		flow.Close()
	}
}

// Sweep evicts flows idle past the TTL and returns how many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var evicted []*Flow
	for id, flow := range m.flows {
		if flow.TouchedAt().Before(cutoff) {
			delete(m.flows, id)
			evicted = append(evicted, flow)
		}
	}
	m.mu.Unlock()

	for _, flow := range evicted {
		flow.Close()
	}
	return len(evicted)
}

// Len reports the number of live flows.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.flows)
}

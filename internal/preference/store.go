package preference

import (
	"context"
	"sync"

	"digimess/internal/menu"
)

// Store holds one user's mess choices, keyed by cycle name, plus the small
// amount of onboarding state the surfaces need.
type Store interface {
	PreferenceForCycle(ctx context.Context, cycle string) (menu.Category, bool, error)
	SetPreferenceForCycle(ctx context.Context, cycle string, category menu.Category) error
	AllPreferences(ctx context.Context) (map[string]menu.Category, error)
	// ClearAll forgets every preference and the onboarding state.
	ClearAll(ctx context.Context) error

	SetupComplete(ctx context.Context) (bool, error)
	MarkSetupComplete(ctx context.Context) error
	LastSeenCycle(ctx context.Context) (string, error)
	SetLastSeenCycle(ctx context.Context, name string) error
}

// Provider hands out the store of a single user.
type Provider interface {
	ForUser(userID string) Store
}

// MemoryStore is an in-process Store. The zero value is ready to use.
type MemoryStore struct {
	mu            sync.RWMutex
	prefs         map[string]menu.Category
	setupComplete bool
	lastSeen      string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) PreferenceForCycle(_ context.Context, cycle string) (menu.Category, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cat, ok := s.prefs[cycle]
	return cat, ok, nil
}

func (s *MemoryStore) SetPreferenceForCycle(_ context.Context, cycle string, category menu.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs == nil {
		s.prefs = make(map[string]menu.Category)
	}
	s.prefs[cycle] = category
	return nil
}

func (s *MemoryStore) AllPreferences(_ context.Context) (map[string]menu.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]menu.Category, len(s.prefs))
	for k, v := range s.prefs {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = nil
	s.setupComplete = false
	s.lastSeen = ""
	return nil
}

func (s *MemoryStore) SetupComplete(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setupComplete, nil
}

func (s *MemoryStore) MarkSetupComplete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setupComplete = true
	return nil
}

func (s *MemoryStore) LastSeenCycle(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen, nil
}

func (s *MemoryStore) SetLastSeenCycle(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = name
	return nil
}

// MemoryProvider keeps a MemoryStore per user.
type MemoryProvider struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

// NewMemoryProvider returns an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{stores: make(map[string]*MemoryStore)}
}

func (p *MemoryProvider) ForUser(userID string) Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stores[userID]
	if !ok {
		s = NewMemoryStore()
		p.stores[userID] = s
	}
	return s
}

package session

import (
	"context"
	"sync"
	"time"

	"github.com/citamedica/evolution-bridge/internal/bot"
)

const defaultJanitorInterval = time.Minute

type memoryEntry struct {
	sess      *bot.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory with TTL eviction. A
// background janitor sweeps expired entries so abandoned conversations do
// not accumulate.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source. Used by tests.
func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.clock = clock
	}
}

// NewMemoryStore creates a MemoryStore whose entries expire after ttl and
// starts the eviction janitor. Call Close to stop it.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		clock:   time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Load(_ context.Context, senderID string) (*bot.Session, error) {
	s.mu.RLock()
	entry, ok := s.entries[senderID]
	s.mu.RUnlock()
	if !ok || s.clock().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.sess, nil
}

func (s *MemoryStore) Save(_ context.Context, senderID string, sess *bot.Session) error {
	s.mu.Lock()
	s.entries[senderID] = memoryEntry{sess: sess, expiresAt: s.clock().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, senderID string) error {
	s.mu.Lock()
	delete(s.entries, senderID)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, including ones that expired
// but have not been swept yet.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the eviction janitor.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(defaultJanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.clock()
	s.mu.Lock()
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()
}

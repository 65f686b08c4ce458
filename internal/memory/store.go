package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultWindowSize is the number of turns kept per user when no limit is configured.
const DefaultWindowSize = 20

// Store keeps a bounded, in-process conversation window per user.
//
// The map lock only guards window lookup and creation; each window carries its
// own mutex so users never wait on each other while a turn is recorded.
// Nothing is persisted: a restart starts every user from an empty window.
type Store struct {
	mu      sync.RWMutex
	windows map[string]*window
	limit   int
	now     func() time.Time
}

type window struct {
	mu    sync.Mutex
	turns []Turn
	// detached is set once Clear has unlinked the window from the map.
	detached bool
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultWindowSize
	}
	return &Store{
		windows: make(map[string]*window),
		limit:   limit,
		now:     time.Now,
	}
}

// Limit returns the maximum number of turns kept per user.
func (s *Store) Limit() int { return s.limit }

// Window returns a copy of the user's turns, oldest first. Unknown users get an empty window.
func (s *Store) Window(userID string) []Turn {
	w := s.lookup(userID)
	if w == nil {
		return []Turn{}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Append records a turn for the user and evicts the oldest turns beyond the limit.
func (s *Store) Append(userID string, role Role, content string) (Turn, error) {
	if !role.Valid() {
		return Turn{}, &InvalidRoleError{Role: role}
	}
	turn := Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}

	for {
		w := s.acquire(userID)
		w.mu.Lock()
		if w.detached {
			// Cleared between lookup and lock; retry against the fresh window.
			w.mu.Unlock()
			continue
		}
		w.turns = append(w.turns, turn)
		if over := len(w.turns) - s.limit; over > 0 {
			copy(w.turns, w.turns[over:])
			clear(w.turns[s.limit:])
			w.turns = w.turns[:s.limit]
		}
		w.mu.Unlock()
		return turn, nil
	}
}

// Clear drops the user's window. Clearing an unknown user is a no-op.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	w, ok := s.windows[userID]
	if ok {
		delete(s.windows, userID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	w.mu.Lock()
	w.detached = true
	w.turns = nil
	w.mu.Unlock()
}

// Size returns the number of turns currently held for the user.
func (s *Store) Size(userID string) int {
	w := s.lookup(userID)
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.turns)
}

// Users returns the number of users with a live window.
func (s *Store) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}

func (s *Store) lookup(userID string) *window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.windows[userID]
}

func (s *Store) acquire(userID string) *window {
	if w := s.lookup(userID); w != nil {
		return w
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.windows[userID]; ok {
		return w
	}
	w := &window{}
	s.windows[userID] = w
	return w
}

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hrygo/arisu/store"
)

// Store keeps every user's history in memory and persists the whole mapping
// as one snapshot document.
//
// Sessions of different users are independent map entries, but they share the
// snapshot, so Save runs under a single writer lock.
type Store struct {
	snapshots *store.Store

	mu       sync.RWMutex
	sessions map[string][]ChatTurn
	// epoch counts ClearAll calls so commits started before a clear can tell.
	epoch uint64

	saveMu sync.Mutex
	users  *keyedMutex
}

// NewStore creates a conversation store backed by the given snapshot store.
func NewStore(snapshots *store.Store) *Store {
	return &Store{
		snapshots: snapshots,
		sessions:  make(map[string][]ChatTurn),
		users:     newKeyedMutex(),
	}
}

// Load replaces the in-memory sessions with the persisted snapshot.
// A missing snapshot yields no sessions; an unreadable one is returned as
// *store.SnapshotCorruptError and leaves the store untouched.
func (s *Store) Load(ctx context.Context) error {
	loaded := make(map[string][]ChatTurn)
	found, err := s.snapshots.ReadJSON(ctx, store.ChatHistoryKey, &loaded)
	if err != nil {
		return fmt.Errorf("failed to load chat history: %w", err)
	}
	if !found || loaded == nil {
		loaded = make(map[string][]ChatTurn)
	}

	s.mu.Lock()
	s.sessions = loaded
	s.mu.Unlock()

	slog.Info("chat history loaded", "users", len(loaded))
	return nil
}

// Save writes the full mapping, overwriting the previous snapshot.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	snapshot := make(map[string][]ChatTurn, len(s.sessions))
	for userID, turns := range s.sessions {
		snapshot[userID] = turns
	}
	// Encoding happens under the read lock because the turn slices are shared.
	err := s.snapshots.WriteJSON(ctx, store.ChatHistoryKey, snapshot)
	s.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to save chat history: %w", err)
	}
	return nil
}

// Append adds one turn to the end of the user's history, creating it if absent.
func (s *Store) Append(userID string, turn ChatTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = append(s.sessions[userID], turn)
}

// Turns returns a copy of the user's history, oldest first.
func (s *Store) Turns(userID string) []ChatTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.sessions[userID]
	out := make([]ChatTurn, len(turns))
	copy(out, turns)
	return out
}

// Replace swaps the user's history for turns.
func (s *Store) Replace(userID string, turns []ChatTurn) {
	stored := make([]ChatTurn, len(turns))
	copy(stored, turns)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = stored
}

// Epoch returns the current clear generation. Read it before Turns when the
// history will be written back with CommitSince.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// CommitSince swaps the user's history for turns when no ClearAll ran after
// epoch was read. Otherwise only the last keep turns are stored so cleared
// history is never written back. It returns what was stored.
func (s *Store) CommitSince(userID string, epoch uint64, turns []ChatTurn, keep int) []ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch && len(turns) > keep {
		turns = turns[len(turns)-keep:]
	}
	stored := make([]ChatTurn, len(turns))
	copy(stored, turns)
	s.sessions[userID] = stored
	return stored
}

// TruncateFront drops the n oldest turns of the user's history.
func (s *Store) TruncateFront(userID string, n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	turns, ok := s.sessions[userID]
	if !ok {
		return
	}
	if n >= len(turns) {
		s.sessions[userID] = []ChatTurn{}
		return
	}
	s.sessions[userID] = append([]ChatTurn(nil), turns[n:]...)
}

// ClearAll empties every history and persists the empty snapshot.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	s.sessions = make(map[string][]ChatTurn)
	s.epoch++
	s.mu.Unlock()

	return s.Save(ctx)
}

// Users returns the ids that have a session, sorted.
func (s *Store) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.sessions))
	for userID := range s.sessions {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// LockUser serializes request handling for one user.
func (s *Store) LockUser(userID string) func() {
	return s.users.Lock(userID)
}

// Ensure Store implements SessionService
var _ SessionService = (*Store)(nil)

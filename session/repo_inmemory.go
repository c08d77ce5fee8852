package session

import (
	"fmt"
	"sync"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface. Sessions do not survive a restart; browsers re-authenticate.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]StoredSession
}

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]StoredSession),
	}
}

// Upsert creates or updates a stored session
func (r *InMemoryRepo) Upsert(sessionID string, stored StoredSession) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = stored
	return nil
}

// Get retrieves a stored session by id
func (r *InMemoryRepo) Get(sessionID string) (StoredSession, error) {
	if sessionID == "" {
		return StoredSession{}, fmt.Errorf("sessionID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.sessions[sessionID]
	if !ok {
		return StoredSession{}, fmt.Errorf("session not found")
	}
	return stored, nil
}

// Delete removes a stored session
func (r *InMemoryRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

// Len reports the number of stored sessions.
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

var _ Repo = (*InMemoryRepo)(nil)

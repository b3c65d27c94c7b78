package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
)

// InMemoryRepo is an in-memory implementation of Repo
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]Session),
	}
}

// Upsert creates or updates a session
func (r *InMemoryRepo) Upsert(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy so callers cannot mutate the stored session
	r.sessions[session.ID] = copySession(session)
	return nil
}

// Get retrieves a session by ID
func (r *InMemoryRepo) Get(_ context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, dasherrors.ErrSessionNotFound
	}
	s := copySession(&session)
	return &s, nil
}

// Delete removes a session
func (r *InMemoryRepo) Delete(_ context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return false, nil // Already gone, no error
	}
	delete(r.sessions, sessionID)
	return true, nil
}

// Update mutates a stored session under the write lock
func (r *InMemoryRepo) Update(_ context.Context, sessionID string, mutate func(*Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return dasherrors.ErrSessionNotFound
	}
	updated := copySession(&session)
	mutate(&updated)
	r.sessions[sessionID] = copySession(&updated)
	return nil
}

// Touch updates the last activity time
func (r *InMemoryRepo) Touch(ctx context.Context, sessionID string, at time.Time) error {
	return r.Update(ctx, sessionID, func(s *Session) {
		s.LastActivity = at
	})
}

// Len returns the number of live sessions
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func copySession(s *Session) Session {
	c := *s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	return c
}

package sessions

import (
	"context"
	"time"
)

// Repo defines the storage operations for dashboard sessions.
type Repo interface {
	// Upsert creates or updates a session
	Upsert(ctx context.Context, session *Session) error

	// Get retrieves a session by ID, returning ErrSessionNotFound when absent
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Delete removes a session and reports whether this call removed it.
	// Exactly one of several concurrent callers observes true.
	Delete(ctx context.Context, sessionID string) (bool, error)

	// Update applies mutate to a stored session as one atomic step. It never
	// recreates a deleted session and returns ErrSessionNotFound instead.
	Update(ctx context.Context, sessionID string, mutate func(*Session)) error

	// Touch records the last qualifying interaction
	Touch(ctx context.Context, sessionID string, at time.Time) error
}

package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EndListener is notified once when a session is destroyed
type EndListener func(session *Session, reason EndReason)

// LogoutFunc invalidates the backend token; failures are logged only
type LogoutFunc func(ctx context.Context, token string) error

// Manager owns the session lifecycle. SignOut is idempotent per session: the
// caller that wins the repo delete runs the side effects, everyone else is a no-op.
type Manager struct {
	repo      Repo
	logout    LogoutFunc
	nowTime   func() time.Time
	listeners []EndListener
	mu        sync.RWMutex
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithBackendLogout sets the function used to invalidate the backend token on sign-out
func WithBackendLogout(logout LogoutFunc) ManagerOption {
	return func(m *Manager) {
		m.logout = logout
	}
}

func NewManager(repo Repo, options ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[NewManager] session repo is required")
	}
	m := &Manager{
		repo:    repo,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// OnEnd registers a listener that runs after a session is signed out
func (m *Manager) OnEnd(listener EndListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

// Begin creates a session for a successful backend login
func (m *Manager) Begin(ctx context.Context, token string, user *users.User) (*Session, error) {
	if token == "" {
		return nil, errors.New("[Begin] token is required")
	}
	if user != nil {
		if err := user.Validate(); err != nil {
			return nil, errors.Wrap(err, "[Begin] invalid user")
		}
	}

	now := m.nowTime()
	session := &Session{
		ID:           uuid.New().String(),
		Token:        token,
		User:         user,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := m.repo.Upsert(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Begin] failed to store session")
	}
	return session, nil
}

func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, dasherrors.ErrSessionNotFound
	}
	return m.repo.Get(ctx, sessionID)
}

// SetUser stores a freshly fetched user record on the session. A session that
// was signed out meanwhile stays gone.
func (m *Manager) SetUser(ctx context.Context, sessionID string, user *users.User) error {
	if err := user.Validate(); err != nil {
		return errors.Wrap(err, "[SetUser] invalid user")
	}
	err := m.repo.Update(ctx, sessionID, func(s *Session) {
		s.User = user
	})
	if err != nil {
		return errors.Wrap(err, "[SetUser] failed to update session")
	}
	return nil
}

// Touch records a qualifying interaction
func (m *Manager) Touch(ctx context.Context, sessionID string) error {
	return m.repo.Touch(ctx, sessionID, m.nowTime())
}

// SignOut destroys the session. It returns true only for the call that actually
// ended it; repeated or concurrent calls return false without side effects.
func (m *Manager) SignOut(ctx context.Context, sessionID string, reason EndReason) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	session, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		if dasherrors.Is(err, dasherrors.ErrSessionNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "[SignOut] failed to load session")
	}

	removed, err := m.repo.Delete(ctx, sessionID)
	if err != nil {
		return false, errors.Wrap(err, "[SignOut] failed to delete session")
	}
	if !removed {
		return false, nil
	}

	if m.logout != nil && session.Token != "" {
		// The browser side is already gone; a failed backend logout only leaves a stale token.
		if err := m.logout(context.WithoutCancel(ctx), session.Token); err != nil {
			log.Err(err).Str("session_id", sessionID).Msg("SignOut: backend logout failed")
		}
	}

	m.mu.RLock()
	listeners := append([]EndListener(nil), m.listeners...)
	m.mu.RUnlock()
	for _, listener := range listeners {
		listener(session, reason)
	}

	log.Info().Str("session_id", sessionID).Str("reason", string(reason)).Msg("session ended")
	return true, nil
}

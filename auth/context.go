package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/consulta-dashboard/sessions"
	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/pkg/errors"
)

// State is the Auth Context's view of the current browser session
type State struct {
	SessionID string
	Token     string
	User      *users.User
	Loading   bool
}

// Authenticated reports whether a user is present
func (s State) Authenticated() bool {
	return s.User != nil
}

// Context is the single source of truth for "is a user logged in". It reads
// the server-side session on every call instead of caching it.
type Context struct {
	store   *sessions.Store
	manager *sessions.Manager
}

func NewContext(store *sessions.Store, manager *sessions.Manager) (*Context, error) {
	if store == nil {
		return nil, errors.New("[NewContext] cookie store is required")
	}
	if manager == nil {
		return nil, errors.New("[NewContext] session manager is required")
	}
	return &Context{store: store, manager: manager}, nil
}

// Current resolves the session named by the dashboard_sid cookie
func (c *Context) Current(r *http.Request) State {
	sid := c.store.Read(r).SessionID
	return c.Lookup(r.Context(), sid)
}

// Lookup resolves a session by ID; an unknown session is an anonymous state
func (c *Context) Lookup(ctx context.Context, sessionID string) State {
	session, err := c.manager.Get(ctx, sessionID)
	if err != nil {
		return State{}
	}
	return State{
		SessionID: session.ID,
		Token:     session.Token,
		User:      session.User,
		Loading:   session.Loading(),
	}
}

// Cookies re-reads the raw cookies, bypassing the server-side session
func (c *Context) Cookies(r *http.Request) sessions.Credentials {
	return c.store.Read(r)
}

// SignIn starts a session and writes its cookies
func (c *Context) SignIn(ctx context.Context, w http.ResponseWriter, r *http.Request, token string, user *users.User) (*sessions.Session, error) {
	session, err := c.manager.Begin(ctx, token, user)
	if err != nil {
		return nil, errors.Wrap(err, "[SignIn] failed to begin session")
	}
	if err := c.store.Write(w, r, session.ID, token, user); err != nil {
		_, _ = c.manager.SignOut(ctx, session.ID, sessions.ReasonSignOut)
		return nil, errors.Wrap(err, "[SignIn] failed to write cookies")
	}
	return session, nil
}

// RefreshUser replaces the cached user after a backend re-fetch
func (c *Context) RefreshUser(ctx context.Context, w http.ResponseWriter, r *http.Request, sessionID string, user *users.User) error {
	if err := c.manager.SetUser(ctx, sessionID, user); err != nil {
		return err
	}
	if w != nil {
		return c.store.WriteUser(w, r, user)
	}
	return nil
}

// SignOut clears the cookies and ends the server-side session. It is safe to
// call repeatedly; only the first call reports true.
func (c *Context) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request, reason sessions.EndReason) (bool, error) {
	sid := c.store.Read(r).SessionID
	c.store.Clear(w, r)
	return c.manager.SignOut(ctx, sid, reason)
}

// SignOutSession ends a session when no response is available (timers)
func (c *Context) SignOutSession(ctx context.Context, sessionID string, reason sessions.EndReason) (bool, error) {
	return c.manager.SignOut(ctx, sessionID, reason)
}

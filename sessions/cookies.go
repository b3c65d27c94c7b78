package sessions

import (
	"net/http"
	"time"

	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/pkg/errors"
)

const (
	// CookieToken holds the backend session token
	CookieToken = "session_token"
	// CookieAPIToken is the alias some backend builds set instead of session_token
	CookieAPIToken = "api_session_token"
	// CookieUser holds the signed user snapshot
	CookieUser = "auth_user"
	// CookieSessionID identifies the server-side session runtime
	CookieSessionID = "dashboard_sid"
)

// Credentials is what the browser's cookies say about the session right now
type Credentials struct {
	SessionID string
	Token     string
	User      *users.User
}

// Complete reports whether both the token and the user snapshot are present
func (c Credentials) Complete() bool {
	return c.Token != "" && c.User != nil
}

// Store reads and writes the session cookies
type Store struct {
	signer *SnapshotSigner
}

func NewStore(signer *SnapshotSigner) *Store {
	return &Store{signer: signer}
}

// Read returns the raw cookie state, bypassing any cached session
func (s *Store) Read(r *http.Request) Credentials {
	var creds Credentials

	if c, err := r.Cookie(CookieSessionID); err == nil {
		creds.SessionID = c.Value
	}

	if c, err := r.Cookie(CookieToken); err == nil && c.Value != "" {
		creds.Token = c.Value
	} else if c, err := r.Cookie(CookieAPIToken); err == nil && c.Value != "" {
		creds.Token = c.Value
	}

	if c, err := r.Cookie(CookieUser); err == nil && c.Value != "" {
		if user, err := s.signer.Parse(c.Value); err == nil {
			creds.User = user
		}
	}
	return creds
}

// Write sets the session cookies for a freshly started session. A nil user
// (still loading) leaves the snapshot cookie for WriteUser.
func (s *Store) Write(w http.ResponseWriter, r *http.Request, sessionID, token string, user *users.User) error {
	var snapshot string
	if user != nil {
		var err error
		if snapshot, err = s.signer.Sign(user); err != nil {
			return errors.Wrap(err, "[Store.Write] failed to sign user snapshot")
		}
	}
	setCookie(w, r, CookieSessionID, sessionID, 0)
	setCookie(w, r, CookieToken, token, 0)
	if snapshot != "" {
		setCookie(w, r, CookieUser, snapshot, 0)
	}
	return nil
}

// WriteUser refreshes the user snapshot after a backend re-fetch
func (s *Store) WriteUser(w http.ResponseWriter, r *http.Request, user *users.User) error {
	snapshot, err := s.signer.Sign(user)
	if err != nil {
		return errors.Wrap(err, "[Store.WriteUser] failed to sign user snapshot")
	}
	setCookie(w, r, CookieUser, snapshot, 0)
	return nil
}

// Clear deletes every session cookie
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{CookieSessionID, CookieToken, CookieAPIToken, CookieUser} {
		setCookie(w, r, name, "", -1)
	}
}

func setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
	if maxAge < 0 {
		c.Expires = time.Unix(0, 0)
	}
	http.SetCookie(w, c)
}

func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}

package sessions

import (
	"time"

	"github.com/jrsteele09/consulta-dashboard/users"
)

// Session is the server-side half of a logged-in browser. The backend token and
// the user snapshot are mirrored in cookies; the cookies are re-read on every
// guarded request so an out-of-band clear is noticed.
type Session struct {
	ID           string      `json:"id"`            // Unique session identifier (UUID), also the dashboard_sid cookie
	Token        string      `json:"token"`         // Backend session token sent as Bearer
	User         *users.User `json:"user"`          // Nil while the user record is still loading
	CreatedAt    time.Time   `json:"created_at"`    // Login time
	LastActivity time.Time   `json:"last_activity"` // Last qualifying interaction
}

// Loading reports whether the session exists but the user record has not arrived yet
func (s *Session) Loading() bool {
	return s != nil && s.User == nil
}

// EndReason records why a session was destroyed
type EndReason string

const (
	ReasonSignOut      EndReason = "sign_out"     // Explicit logout
	ReasonExpired      EndReason = "expired"      // Cookies disappeared while the session was live
	ReasonIdle         EndReason = "idle"         // No interaction within the idle window
	ReasonUnauthorized EndReason = "unauthorized" // Backend rejected the token
)

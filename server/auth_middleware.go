package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/consulta-dashboard/auth"
	"github.com/jrsteele09/consulta-dashboard/guard"
	"github.com/jrsteele09/consulta-dashboard/idle"
	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/sessions"
	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyAuthState stores the resolved auth.State
	ContextKeyAuthState ContextKey = "auth_state"
	// ContextKeyRuntime stores the per-session runtime
	ContextKeyRuntime ContextKey = "session_runtime"
)

const (
	msgSessionExpired = "Sessão expirada. Faça login novamente."
	msgSessionLoading = "Sessão carregando"
	msgForbidden      = "Acesso restrito"
)

func authStateFromContext(ctx context.Context) auth.State {
	state, _ := ctx.Value(ContextKeyAuthState).(auth.State)
	return state
}

func runtimeFromContext(ctx context.Context) *sessionRuntime {
	rt, _ := ctx.Value(ContextKeyRuntime).(*sessionRuntime)
	return rt
}

// passiveRoutes are polled by the shell on a timer and do not count as user
// activity. The activity route records its own event kind.
var passiveRoutes = map[string]struct{}{
	RouteAPIToasts:       {},
	RouteAPIPaymentState: {},
	RouteAPIActivity:     {},
}

// withSession stores the state and, for authenticated sessions, the runtime.
// Every other authenticated request counts as pointer activity.
func (s *Server) withSession(r *http.Request, state auth.State) (*http.Request, error) {
	ctx := context.WithValue(r.Context(), ContextKeyAuthState, state)
	if state.Authenticated() {
		rt, err := s.runtimes.ensure(r.Context(), state.SessionID)
		if err != nil {
			return nil, err
		}
		ctx = context.WithValue(ctx, ContextKeyRuntime, rt)

		if _, passive := passiveRoutes[r.URL.Path]; !passive {
			s.recordActivity(r.Context(), rt, state.SessionID, idle.EventPointer)
		}
	}
	return r.WithContext(ctx), nil
}

// recordActivity resets the idle countdown and stores the interaction time
func (s *Server) recordActivity(ctx context.Context, rt *sessionRuntime, sessionID string, kind idle.EventKind) {
	if !rt.idle.Touch(kind) {
		return
	}
	if err := s.manager.Touch(ctx, sessionID); err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Msg("Activity: failed to record")
	}
}

// RequireSession is middleware for HTML routes. It applies the guard decision
// synchronously: loading sessions wait on the loading page, missing users go to
// login, and a user whose cookies disappeared is signed out first.
func (s *Server) RequireSession() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			state := s.auth.Current(r)
			decision := guard.Evaluate(s.policy, r.URL.Path, state, func() sessions.Credentials {
				return s.auth.Cookies(r)
			})

			switch decision {
			case guard.DecisionSkip:
				redirectSuccess(w, r, RouteAuthLoading)
				return
			case guard.DecisionRedirect:
				redirectSuccess(w, r, RouteLogin)
				return
			case guard.DecisionExpire:
				s.forceSignOut(w, r, sessions.ReasonExpired)
				redirectWithError(w, r, RouteLogin, msgSessionExpired)
				return
			}

			sessionReq, err := s.withSession(r, state)
			if dasherrors.Is(err, dasherrors.ErrSessionNotFound) {
				s.forceSignOut(w, r, sessions.ReasonExpired)
				redirectWithError(w, r, RouteLogin, msgSessionExpired)
				return
			}
			if err != nil {
				log.Err(err).Str("session_id", state.SessionID).Msg("RequireSession: failed to create session runtime")
				http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
				return
			}
			next(w, sessionReq)
		}
	}
}

// RequireAPISession is the JSON counterpart of RequireSession. Failures answer
// 401 so the client navigates to the login page itself.
func (s *Server) RequireAPISession(allowLoading bool) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			state := s.auth.Current(r)
			decision := guard.Evaluate(s.policy, r.URL.Path, state, func() sessions.Credentials {
				return s.auth.Cookies(r)
			})

			switch decision {
			case guard.DecisionSkip:
				if !allowLoading {
					writeError(w, http.StatusConflict, msgSessionLoading)
					return
				}
			case guard.DecisionRedirect:
				writeUnauthorized(w)
				return
			case guard.DecisionExpire:
				s.forceSignOut(w, r, sessions.ReasonExpired)
				writeUnauthorized(w)
				return
			}

			sessionReq, err := s.withSession(r, state)
			if dasherrors.Is(err, dasherrors.ErrSessionNotFound) {
				s.forceSignOut(w, r, sessions.ReasonExpired)
				writeUnauthorized(w)
				return
			}
			if err != nil {
				log.Err(err).Str("session_id", state.SessionID).Msg("RequireAPISession: failed to create session runtime")
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			next(w, sessionReq)
		}
	}
}

// RequireRole must run after RequireSession or RequireAPISession
func (s *Server) RequireRole(role users.RoleType) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			state := authStateFromContext(r.Context())
			if state.User == nil || state.User.Role != role {
				if isAPIRequest(r) {
					writeError(w, http.StatusForbidden, msgForbidden)
					return
				}
				redirectWithError(w, r, RouteDashboard, msgForbidden)
				return
			}
			next(w, r)
		}
	}
}

// forceSignOut clears the cookies and ends the session for an auth failure
func (s *Server) forceSignOut(w http.ResponseWriter, r *http.Request, reason sessions.EndReason) {
	if _, err := s.auth.SignOut(r.Context(), w, r, reason); err != nil {
		log.Err(err).Str("reason", string(reason)).Msg("forced sign-out failed")
	}
}

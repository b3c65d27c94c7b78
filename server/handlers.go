package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/consulta-dashboard/auth"
	"github.com/jrsteele09/consulta-dashboard/backend"
	"github.com/jrsteele09/consulta-dashboard/guard"
	"github.com/jrsteele09/consulta-dashboard/idle"
	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/lookup"
	"github.com/jrsteele09/consulta-dashboard/sessions"
	"github.com/jrsteele09/consulta-dashboard/toast"
	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/rs/zerolog/log"
)

const (
	msgInvalidCPF     = "CPF inválido."
	msgLookupFailed   = "Não foi possível concluir a consulta. Tente novamente."
	msgUpstreamFailed = "Serviço indisponível. Tente novamente."
)

// isUpstreamFailure separates backend outages from rejections
func isUpstreamFailure(err error) bool {
	var apiErr *backend.APIError
	if dasherrors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

// handleAuthFailure ends the session when the backend rejected the token. It
// reports whether it wrote a response.
func (s *Server) handleAuthFailure(w http.ResponseWriter, r *http.Request, err error) bool {
	if !dasherrors.Is(err, dasherrors.ErrUnauthorized) {
		return false
	}
	s.forceSignOut(w, r, sessions.ReasonUnauthorized)
	writeUnauthorized(w)
	return true
}

// HealthHandler reports liveness and, when the repo supports it, session store health
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger, ok := s.repo.(Pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				log.Err(err).Msg("Health: session store unreachable")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// MeResponse is the current user as seen by the client
type MeResponse struct {
	User         *users.User `json:"user"`
	TotalBalance float64     `json:"total_balance"`
}

// MeHandler returns the session user. A loading session is resolved through
// the backend's token validation; ?refresh=1 re-fetches the record.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := authStateFromContext(r.Context())
		if state.Loading || r.URL.Query().Get("refresh") == "1" {
			var user *users.User
			var err error
			if state.Loading {
				user, err = s.resolveLoadingUser(w, r, state)
			} else {
				user, err = s.refreshUser(w, r, state)
			}
			if err != nil {
				if s.handleAuthFailure(w, r, err) {
					return
				}
				log.Err(err).Str("session_id", state.SessionID).Msg("Me: failed to fetch user")
				writeError(w, http.StatusBadGateway, msgUpstreamFailed)
				return
			}
			state.User = user
			if _, err := s.runtimes.ensure(r.Context(), state.SessionID); err != nil {
				log.Err(err).Str("session_id", state.SessionID).Msg("Me: failed to create session runtime")
			}
		}
		writeJSON(w, http.StatusOK, MeResponse{User: state.User, TotalBalance: state.User.TotalBalance()})
	}
}

// resolveLoadingUser validates the token of a session that has no user yet
func (s *Server) resolveLoadingUser(w http.ResponseWriter, r *http.Request, state auth.State) (*users.User, error) {
	validation, err := s.api.ValidateSession(r.Context(), state.Token)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return nil, dasherrors.ErrUnauthorized
	}
	if validation.User == nil {
		return s.refreshUser(w, r, state)
	}
	if err := s.auth.RefreshUser(r.Context(), w, r, state.SessionID, validation.User); err != nil {
		return nil, err
	}
	return validation.User, nil
}

// refreshUser re-fetches the user and stores it on the session and cookie
func (s *Server) refreshUser(w http.ResponseWriter, r *http.Request, state auth.State) (*users.User, error) {
	user, err := s.api.Me(r.Context(), state.Token)
	if err != nil {
		return nil, err
	}
	if err := s.auth.RefreshUser(r.Context(), w, r, state.SessionID, user); err != nil {
		return nil, err
	}
	return user, nil
}

type navigationRequest struct {
	Path string `json:"path"`
}

// NavigationHandler feeds a client route change to the debounced guard and
// answers with its decision, so a redirect reaches the client directly
func (s *Server) NavigationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req navigationRequest
		if err := decodeJSON(w, r, &req); err != nil || req.Path == "" {
			writeError(w, http.StatusBadRequest, "path is required")
			return
		}
		rt := runtimeFromContext(r.Context())
		select {
		case decision, ok := <-rt.guard.Navigate(req.Path, s.auth.Cookies(r)):
			// A closed result means the runtime stopped because the session ended
			if !ok || decision == guard.DecisionRedirect || decision == guard.DecisionExpire {
				s.forceSignOut(w, r, sessions.ReasonExpired)
				writeUnauthorized(w)
				return
			}
			w.WriteHeader(http.StatusAccepted)
		case <-r.Context().Done():
		}
	}
}

type activityRequest struct {
	Event string `json:"event"`
}

// ActivityHandler resets the idle countdown for a qualifying interaction
func (s *Server) ActivityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req activityRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
		kind, ok := idle.ParseEventKind(req.Event)
		if !ok {
			writeError(w, http.StatusBadRequest, "unsupported event")
			return
		}

		state := authStateFromContext(r.Context())
		s.recordActivity(r.Context(), runtimeFromContext(r.Context()), state.SessionID, kind)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ToastsHandler drains the session's pending notifications
func (s *Server) ToastsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())
		if rt == nil {
			writeJSON(w, http.StatusOK, []toast.Toast{})
			return
		}
		writeJSON(w, http.StatusOK, rt.outbox.Drain())
	}
}

// ModulesHandler lists lookup modules; failures render as an empty list
func (s *Server) ModulesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := authStateFromContext(r.Context())
		modules, err := s.api.ListModules(r.Context(), state.Token)
		if err != nil {
			if s.handleAuthFailure(w, r, err) {
				return
			}
			log.Err(err).Str("session_id", state.SessionID).Msg("Modules: failed to list")
			modules = []backend.Module{}
		}
		writeJSON(w, http.StatusOK, modules)
	}
}

// ReferralStatsHandler returns referral numbers; failures render as zeros
func (s *Server) ReferralStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := authStateFromContext(r.Context())
		stats, err := s.api.ReferralStats(r.Context(), state.Token)
		if err != nil {
			if s.handleAuthFailure(w, r, err) {
				return
			}
			log.Err(err).Str("session_id", state.SessionID).Msg("Referrals: failed to load stats")
			stats = &backend.ReferralStats{}
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// LookupCPFHandler validates the CPF locally before the paid backend lookup
func (s *Server) LookupCPFHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())
		cpf, err := lookup.NormalizeCPF(r.PathValue("cpf"))
		if err != nil {
			rt.outbox.Error(msgInvalidCPF)
			writeError(w, http.StatusBadRequest, msgInvalidCPF)
			return
		}

		state := authStateFromContext(r.Context())
		result, err := s.api.LookupCPF(r.Context(), state.Token, cpf)
		if err != nil {
			if s.handleAuthFailure(w, r, err) {
				return
			}
			log.Err(err).Str("cpf", lookup.MaskCPF(cpf)).Msg("Lookup: backend lookup failed")
			rt.outbox.Error(msgLookupFailed)
			status := http.StatusBadGateway
			if dasherrors.Is(err, dasherrors.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, msgLookupFailed)
			return
		}

		// Lookups are charged; the balance shown must follow
		if _, err := s.refreshUser(w, r, state); err != nil {
			log.Debug().Err(err).Str("session_id", state.SessionID).Msg("Lookup: failed to refresh balance")
		}
		writeJSON(w, http.StatusOK, result)
	}
}

package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/consulta-dashboard/sessions"
	"github.com/rs/zerolog/log"
)

const (
	msgLoginRequired      = "Informe login e senha."
	msgInvalidCredentials = "Login ou senha inválidos."
	msgLoginUnavailable   = "Não foi possível entrar agora. Tente novamente."
	msgAccountSuspended   = "Sua conta está suspensa. Fale com o suporte."
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName string
	Error   string
	Login   string // Preserve login on error
}

// LoginPageHandler displays the login page (GET /login). A user who is already
// signed in goes straight to the dashboard.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if state := s.auth.Current(r); state.Authenticated() && s.auth.Cookies(r).Complete() {
			redirectSuccess(w, r, RouteDashboard)
			return
		}
		s.pages.render(w, s.pages.login, LoginPageData{
			AppName: s.config.GetAppName(),
			Error:   r.URL.Query().Get("error"),
			Login:   r.URL.Query().Get("login"),
		})
	}
}

// LoginSubmissionHandler exchanges credentials with the backend and starts a session
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		login := strings.TrimSpace(r.FormValue("login"))
		password := r.FormValue("password")
		if login == "" || password == "" {
			s.renderLoginError(w, http.StatusBadRequest, msgLoginRequired, login)
			return
		}

		resp, err := s.api.Login(r.Context(), login, password)
		if err != nil {
			status, message := http.StatusUnauthorized, msgInvalidCredentials
			if isUpstreamFailure(err) {
				status, message = http.StatusBadGateway, msgLoginUnavailable
			}
			log.Info().Err(err).Str("login", login).Msg("Login: rejected")
			s.renderLoginError(w, status, message, login)
			return
		}

		if resp.User != nil && !resp.User.IsActive() {
			if err := s.api.Logout(r.Context(), resp.Token); err != nil {
				log.Err(err).Str("login", login).Msg("Login: failed to release token of inactive account")
			}
			log.Info().Str("login", login).Str("status", string(resp.User.Status)).Msg("Login: account not active")
			s.renderLoginError(w, http.StatusForbidden, msgAccountSuspended, login)
			return
		}

		// Any previous session in this browser ends before the new one starts
		if sid := s.auth.Cookies(r).SessionID; sid != "" {
			s.endSession(r.Context(), sid, sessions.ReasonSignOut)
		}

		session, err := s.auth.SignIn(r.Context(), w, r, resp.Token, resp.User)
		if err != nil {
			log.Err(err).Str("login", login).Msg("Login: failed to start session")
			s.renderLoginError(w, http.StatusInternalServerError, msgLoginUnavailable, login)
			return
		}

		log.Info().Str("session_id", session.ID).Str("login", login).Msg("Login: session started")
		if session.Loading() {
			redirectSuccess(w, r, RouteAuthLoading)
			return
		}
		redirectSuccess(w, r, RouteDashboard)
	}
}

// LogoutHandler ends the session; calling it without a session just redirects
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.forceSignOut(w, r, sessions.ReasonSignOut)
		redirectSuccess(w, r, RouteLogin)
	}
}

func (s *Server) renderLoginError(w http.ResponseWriter, status int, message, login string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	s.pages.render(w, s.pages.login, LoginPageData{
		AppName: s.config.GetAppName(),
		Error:   message,
		Login:   login,
	})
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/consulta-dashboard/auth"
	"github.com/jrsteele09/consulta-dashboard/backend"
	"github.com/jrsteele09/consulta-dashboard/guard"
	"github.com/jrsteele09/consulta-dashboard/internal/config"
	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/sessions"
	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Backend is the part of the PHP API the gateway talks to
type Backend interface {
	Login(ctx context.Context, login, password string) (*backend.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	ValidateSession(ctx context.Context, token string) (*backend.ValidateResponse, error)
	users.Directory
	ListModules(ctx context.Context, token string) ([]backend.Module, error)
	ReferralStats(ctx context.Context, token string) (*backend.ReferralStats, error)
	LookupCPF(ctx context.Context, token, cpf string) (*backend.LookupResult, error)
	CreatePendingTransaction(ctx context.Context, token string, amount float64, method string) (*backend.PendingTransaction, error)
	ConfirmTransaction(ctx context.Context, token, transactionID string) (*backend.PendingTransaction, error)
	ListPendingTransactions(ctx context.Context, token string) ([]backend.PendingTransaction, error)
	CheckPendingPayments(ctx context.Context, token string) (int, error)
}

// Pinger is implemented by session repos that can report their health
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	api      Backend
	repo     sessions.Repo
	manager  *sessions.Manager
	auth     *auth.Context
	policy   guard.Policy
	runtimes *runtimeRegistry
	pages    *pageRenderer
}

func New(cfg config.Config, api Backend, repo sessions.Repo) (*Server, error) {
	if api == nil {
		return nil, errors.New("[Server New] backend is required")
	}
	if repo == nil {
		return nil, errors.New("[Server New] session repo is required")
	}

	signer, err := sessions.NewSnapshotSigner(cfg.GetAppSecret())
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create snapshot signer")
	}
	manager, err := sessions.NewManager(repo, sessions.WithBackendLogout(api.Logout))
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create session manager")
	}
	authContext, err := auth.NewContext(sessions.NewStore(signer), manager)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create auth context")
	}
	pages, err := newPageRenderer()
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to parse templates")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		api:     api,
		repo:    repo,
		manager: manager,
		auth:    authContext,
		policy:  guard.DefaultPolicy(),
		pages:   pages,
	}
	s.runtimes = newRuntimeRegistry(s.newRuntime, s.sessionAlive)

	// Session teardown stops the per-session timers exactly once
	manager.OnEnd(func(session *sessions.Session, reason sessions.EndReason) {
		s.runtimes.end(session.ID)
	})

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// sessionAlive is false only once the session is known to be gone; a store
// error keeps the runtime
func (s *Server) sessionAlive(ctx context.Context, sessionID string) bool {
	_, err := s.manager.Get(ctx, sessionID)
	return !dasherrors.Is(err, dasherrors.ErrSessionNotFound)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Shutdown stops every live session runtime
func (s *Server) Shutdown() {
	s.runtimes.closeAll()
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Debug().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}

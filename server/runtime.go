package server

import (
	"context"
	"sync"

	"github.com/jrsteele09/consulta-dashboard/auth"
	"github.com/jrsteele09/consulta-dashboard/guard"
	"github.com/jrsteele09/consulta-dashboard/idle"
	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/payment"
	"github.com/jrsteele09/consulta-dashboard/polling"
	"github.com/jrsteele09/consulta-dashboard/sessions"
	"github.com/jrsteele09/consulta-dashboard/toast"
	"github.com/rs/zerolog/log"
)

const msgPaymentsReconciled = "Pagamento confirmado! Seu saldo foi atualizado."

// sessionRuntime is the server-side state of one browser session: the timers
// and UI state a single-page client would otherwise keep in memory.
type sessionRuntime struct {
	sessionID string
	guard     *guard.Guard
	idle      *idle.Monitor
	poller    *polling.Poller
	modals    *payment.Modals
	outbox    *toast.Outbox
	payments  *payment.Orchestrator
	autoPoll  bool
}

// start arms the timers of a freshly registered runtime
func (rt *sessionRuntime) start() {
	rt.idle.Start()
	if rt.autoPoll {
		rt.poller.Start()
	}
}

func (rt *sessionRuntime) stop() {
	rt.guard.Stop()
	rt.idle.Stop()
	rt.poller.Stop()
	rt.modals.CloseAll()
}

// newRuntime wires the components of a session to the shared services
func (s *Server) newRuntime(sessionID string) (*sessionRuntime, error) {
	rt := &sessionRuntime{
		sessionID: sessionID,
		modals:    payment.NewModals(),
		outbox:    toast.NewOutbox(),
		autoPoll:  s.config.GetPollEnabled(),
	}

	orchestrator, err := payment.NewOrchestrator(s.api, rt.modals, rt.outbox, payment.WithMaxAmount(s.config.GetMaxPaymentAmount()))
	if err != nil {
		return nil, err
	}
	rt.payments = orchestrator

	rt.guard = guard.New(s.policy, s.config.GetGuardDebounce(), guard.Deps{
		State: func() auth.State {
			return s.auth.Lookup(context.Background(), sessionID)
		},
		SignOut: func() {
			s.endSession(context.Background(), sessionID, sessions.ReasonExpired)
		},
		Navigator: guard.NavigatorFunc(func(path string) {
			log.Debug().Str("session_id", sessionID).Str("to", path).Msg("Guard: redirect")
		}),
	})

	rt.idle = idle.New(func() {
		s.endSession(context.Background(), sessionID, sessions.ReasonIdle)
	}, idle.WithWindow(s.config.GetIdleTimeout()), idle.WithThrottle(s.config.GetActivityThrottle()))

	rt.poller = polling.New(func(ctx context.Context) (int, error) {
		state := s.auth.Lookup(ctx, sessionID)
		if !state.Authenticated() {
			return 0, nil
		}
		return s.api.CheckPendingPayments(ctx, state.Token)
	}, func(updated int) {
		s.onPaymentsReconciled(rt, updated)
	}, polling.WithInterval(s.config.GetPollInterval()))

	return rt, nil
}

// onPaymentsReconciled runs on the poller goroutine; it must never end the session
func (s *Server) onPaymentsReconciled(rt *sessionRuntime, updated int) {
	ctx := context.Background()
	state := s.auth.Lookup(ctx, rt.sessionID)
	if !state.Authenticated() {
		return
	}

	if pending, err := s.api.ListPendingTransactions(ctx, state.Token); err == nil {
		open := make(map[string]struct{}, len(pending))
		for _, tx := range pending {
			open[tx.ID] = struct{}{}
		}
		for _, tx := range rt.payments.Pending() {
			if _, ok := open[tx.ID]; !ok {
				rt.payments.Forget(tx.ID)
			}
		}
	} else {
		log.Debug().Err(err).Str("session_id", rt.sessionID).Msg("Polling: failed to list pending transactions")
	}

	if user, err := s.api.Me(ctx, state.Token); err == nil {
		if err := s.manager.SetUser(ctx, rt.sessionID, user); err != nil {
			log.Debug().Err(err).Str("session_id", rt.sessionID).Msg("Polling: failed to store refreshed user")
		}
	} else {
		log.Debug().Err(err).Str("session_id", rt.sessionID).Msg("Polling: failed to refresh user")
	}

	rt.outbox.Success(msgPaymentsReconciled)
	log.Info().Str("session_id", rt.sessionID).Int("updated", updated).Msg("Polling: payments reconciled")
}

// endSession signs a session out from a timer, where no response is available
func (s *Server) endSession(ctx context.Context, sessionID string, reason sessions.EndReason) {
	if _, err := s.auth.SignOutSession(ctx, sessionID, reason); err != nil {
		log.Err(err).Str("session_id", sessionID).Str("reason", string(reason)).Msg("failed to end session")
	}
}

// runtimeRegistry owns one sessionRuntime per live session
type runtimeRegistry struct {
	factory func(sessionID string) (*sessionRuntime, error)
	alive   func(ctx context.Context, sessionID string) bool

	mu       sync.Mutex
	runtimes map[string]*sessionRuntime
}

func newRuntimeRegistry(factory func(sessionID string) (*sessionRuntime, error), alive func(ctx context.Context, sessionID string) bool) *runtimeRegistry {
	return &runtimeRegistry{
		factory:  factory,
		alive:    alive,
		runtimes: make(map[string]*sessionRuntime),
	}
}

// ensure returns the runtime for an authenticated session, creating and
// starting it on first use. A session that ended while the runtime was being
// created is torn down again and reported as ErrSessionNotFound.
func (r *runtimeRegistry) ensure(ctx context.Context, sessionID string) (*sessionRuntime, error) {
	r.mu.Lock()
	if rt, ok := r.runtimes[sessionID]; ok {
		r.mu.Unlock()
		return rt, nil
	}
	rt, err := r.factory(sessionID)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.runtimes[sessionID] = rt
	rt.start()
	r.mu.Unlock()

	// Registered before this check, so a later sign-out finds it through end
	if !r.alive(ctx, sessionID) {
		r.end(sessionID)
		return nil, dasherrors.ErrSessionNotFound
	}
	return rt, nil
}

// end tears a runtime down; unknown ids are ignored
func (r *runtimeRegistry) end(sessionID string) {
	r.mu.Lock()
	rt, ok := r.runtimes[sessionID]
	delete(r.runtimes, sessionID)
	r.mu.Unlock()

	if ok {
		rt.stop()
	}
}

func (r *runtimeRegistry) closeAll() {
	r.mu.Lock()
	runtimes := r.runtimes
	r.runtimes = make(map[string]*sessionRuntime)
	r.mu.Unlock()

	for _, rt := range runtimes {
		rt.stop()
	}
}

package guard

import (
	"sync"
	"time"

	"github.com/jrsteele09/consulta-dashboard/auth"
	"github.com/jrsteele09/consulta-dashboard/sessions"
)

const DefaultDebounce = 150 * time.Millisecond

type Decision int

const (
	DecisionSkip     Decision = iota // Auth state still loading, do nothing
	DecisionAllow                    // Path may be shown
	DecisionRedirect                 // No user, send to login
	DecisionExpire                   // User in context but cookies gone: sign out, then send to login
)

func (d Decision) String() string {
	switch d {
	case DecisionSkip:
		return "skip"
	case DecisionAllow:
		return "allow"
	case DecisionRedirect:
		return "redirect"
	case DecisionExpire:
		return "expire"
	}
	return "unknown"
}

// Evaluate decides whether path is permitted. readCookies is only called when a
// user is present, to re-check the raw cookies behind the cached state.
func Evaluate(policy Policy, path string, state auth.State, readCookies func() sessions.Credentials) Decision {
	if state.Loading {
		return DecisionSkip
	}
	if policy.IsPublic(path) {
		return DecisionAllow
	}
	if !state.Authenticated() {
		return DecisionRedirect
	}
	if readCookies == nil || !readCookies().Complete() {
		return DecisionExpire
	}
	return DecisionAllow
}

// Navigator performs the redirect side effect
type Navigator interface {
	Redirect(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) { f(path) }

// Deps are the ambient inputs the guard reads at check time
type Deps struct {
	State     func() auth.State           // Fresh Auth Context state
	SignOut   func()                      // Ends the session (idempotent)
	Navigator Navigator                   // Redirect target
	Cookies   func() sessions.Credentials // Optional; defaults to the cookies passed to Navigate
}

// Guard validates route changes after a short debounce so a burst of
// navigations triggers a single check of the latest path.
type Guard struct {
	policy   Policy
	debounce time.Duration
	deps     Deps

	mu      sync.Mutex
	timer   *time.Timer
	path    string
	cookies sessions.Credentials
	waiters []chan Decision
	stopped bool
}

func New(policy Policy, debounce time.Duration, deps Deps) *Guard {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Guard{policy: policy, debounce: debounce, deps: deps}
}

// Navigate schedules validation of path with the cookies seen on that
// navigation. The returned channel receives the decision of the check that
// covers this call; a burst shares the decision for its latest path. The
// channel is closed without a value when the guard stops first.
func (g *Guard) Navigate(path string, cookies sessions.Credentials) <-chan Decision {
	result := make(chan Decision, 1)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		close(result)
		return result
	}
	g.path = path
	g.cookies = cookies
	g.waiters = append(g.waiters, result)
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.debounce, g.check)
	return result
}

// Stop cancels any pending check
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopped = true
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	for _, w := range g.waiters {
		close(w)
	}
	g.waiters = nil
}

// Check runs the validation immediately and applies its side effects
func (g *Guard) Check(path string, cookies sessions.Credentials) Decision {
	readCookies := func() sessions.Credentials { return cookies }
	if g.deps.Cookies != nil {
		readCookies = g.deps.Cookies
	}

	var state auth.State
	if g.deps.State != nil {
		state = g.deps.State()
	}

	decision := Evaluate(g.policy, path, state, readCookies)
	switch decision {
	case DecisionRedirect:
		g.redirect()
	case DecisionExpire:
		if g.deps.SignOut != nil {
			g.deps.SignOut()
		}
		g.redirect()
	}
	return decision
}

func (g *Guard) check() {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	path, cookies, waiters := g.path, g.cookies, g.waiters
	g.timer = nil
	g.waiters = nil
	g.mu.Unlock()

	decision := g.Check(path, cookies)
	for _, w := range waiters {
		w <- decision
	}
}

func (g *Guard) redirect() {
	if g.deps.Navigator != nil {
		g.deps.Navigator.Redirect(PathLogin)
	}
}

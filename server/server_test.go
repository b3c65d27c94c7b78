package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/consulta-dashboard/backend"
	"github.com/jrsteele09/consulta-dashboard/internal/config"
	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/payment"
	"github.com/jrsteele09/consulta-dashboard/server"
	"github.com/jrsteele09/consulta-dashboard/sessions"
	"github.com/jrsteele09/consulta-dashboard/toast"
	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/stretchr/testify/require"
)

const testToken = "tok-1"

// testConfig overrides the env-backed defaults with short timers
type testConfig struct {
	config.EnvVars
	config.Cors
	config.Session
	config.Payment
	idleTimeout  time.Duration
	pollInterval time.Duration
}

func (testConfig) GetEnv() string { return "TEST" }
func (testConfig) GetAppSecret() string { return "test-secret" }
func (testConfig) GetGuardDebounce() time.Duration { return 10 * time.Millisecond }
func (testConfig) GetActivityThrottle() time.Duration { return 0 }
func (testConfig) GetPollEnabled() bool { return true }
func (testConfig) GetMaxPaymentAmount() float64 { return 5000 }
func (c testConfig) GetPollInterval() time.Duration {
	if c.pollInterval > 0 {
		return c.pollInterval
	}
	return time.Hour
}
func (c testConfig) GetIdleTimeout() time.Duration {
	if c.idleTimeout > 0 {
		return c.idleTimeout
	}
	return time.Hour
}

// fakeBackend stands in for the PHP API
type fakeBackend struct {
	mu         sync.Mutex
	loginUser  *users.User
	loginErr   error
	meErr      error
	invalid    bool
	modulesErr error
	logouts    int
	lookups    int
	created    []string
	createErr  error
	userList   []users.User
	checks     int
	updated    int // reported by the next reconciliation check only
	pending    []backend.PendingTransaction
	balance    float64
}

func (f *fakeBackend) Login(ctx context.Context, login, password string) (*backend.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &backend.LoginResponse{Token: testToken, User: f.loginUser}, nil
}

func (f *fakeBackend) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return nil
}

func (f *fakeBackend) ValidateSession(ctx context.Context, token string) (*backend.ValidateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &backend.ValidateResponse{Valid: !f.invalid}, nil
}

func (f *fakeBackend) Me(ctx context.Context, token string) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meErr != nil {
		return nil, f.meErr
	}
	balance := 42.0
	if f.balance > 0 {
		balance = f.balance
	}
	return &users.User{ID: 1, Login: "maria", Role: users.RoleSubscriber, Balance: balance}, nil
}

func (f *fakeBackend) ListModules(ctx context.Context, token string) ([]backend.Module, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modulesErr != nil {
		return nil, f.modulesErr
	}
	return []backend.Module{{ID: 1, Slug: "cpf", Name: "Consulta CPF", Price: 1.5, Active: true}}, nil
}

func (f *fakeBackend) ReferralStats(ctx context.Context, token string) (*backend.ReferralStats, error) {
	return nil, &backend.APIError{Status: http.StatusInternalServerError}
}

func (f *fakeBackend) LookupCPF(ctx context.Context, token, cpf string) (*backend.LookupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return &backend.LookupResult{CPF: cpf, Name: "FULANO DE TAL", Charged: 1.5}, nil
}

func (f *fakeBackend) ListUsers(ctx context.Context, token string) ([]users.User, error) {
	return f.userList, nil
}

func (f *fakeBackend) UpdateUserStatus(ctx context.Context, token string, userID int64, status users.StatusType) error {
	return nil
}

func (f *fakeBackend) CreatePendingTransaction(ctx context.Context, token string, amount float64, method string) (*backend.PendingTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, method)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &backend.PendingTransaction{ID: "tx-1", Method: method, Amount: amount, Status: backend.TransactionPending}, nil
}

func (f *fakeBackend) ConfirmTransaction(ctx context.Context, token, transactionID string) (*backend.PendingTransaction, error) {
	return &backend.PendingTransaction{ID: transactionID, Status: backend.TransactionConfirmed}, nil
}

func (f *fakeBackend) ListPendingTransactions(ctx context.Context, token string) ([]backend.PendingTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, nil
}

func (f *fakeBackend) CheckPendingPayments(ctx context.Context, token string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	updated := f.updated
	f.updated = 0
	return updated, nil
}

func (f *fakeBackend) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks
}

// settle makes the next reconciliation report n updated payments
func (f *fakeBackend) settle(n int, balance float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = n
	f.pending = nil
	f.balance = balance
}

func (f *fakeBackend) logoutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts
}

// testFixture is a server with a fake backend and a browser cookie jar
type testFixture struct {
	api     *fakeBackend
	repo    *sessions.InMemoryRepo
	srv     *server.Server
	cookies map[string]string
}

func setupTestFixture(t *testing.T, cfg testConfig) *testFixture {
	t.Helper()

	f := &testFixture{
		api:     &fakeBackend{loginUser: &users.User{ID: 1, Login: "maria", Role: users.RoleSubscriber, Balance: 10}},
		repo:    sessions.NewInMemoryRepo(),
		cookies: map[string]string{},
	}
	srv, err := server.New(cfg, f.api, f.repo)
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)
	f.srv = srv
	return f
}

// do sends a request with the jar's cookies and stores any cookies set
func (f *testFixture) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for name, value := range f.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(f.cookies, c.Name)
			continue
		}
		f.cookies[c.Name] = c.Value
	}
	return rec
}

func (f *testFixture) get(target string) *httptest.ResponseRecorder {
	return f.do(http.MethodGet, target, "", "")
}

func (f *testFixture) postJSON(target, body string) *httptest.ResponseRecorder {
	return f.do(http.MethodPost, target, "application/json", body)
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()
	form := url.Values{"login": {"maria"}, "password": {"segredo"}}
	rec := f.do(http.MethodPost, "/auth/login", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
	require.NotEmpty(t, f.cookies[sessions.CookieSessionID])
}

func TestPublicPages_NoSession(t *testing.T) {
	f := setupTestFixture(t, testConfig{})

	for _, path := range []string{"/", "/login", "/registration", "/forgot-password", "/auth-loading", "/planos-publicos", "/indicacoes"} {
		rec := f.get(path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
	}
}

func TestHealth(t *testing.T) {
	f := setupTestFixture(t, testConfig{})

	rec := f.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProtectedPage_NoSessionRedirectsToLogin(t *testing.T) {
	f := setupTestFixture(t, testConfig{})

	rec := f.get("/dashboard")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLogin_ThenDashboard(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)

	rec := f.get("/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "maria")
	require.Equal(t, 1, f.repo.Len())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.api.loginErr = &backend.APIError{Status: http.StatusUnauthorized, Message: "Credenciais inválidas"}

	form := url.Values{"login": {"maria"}, "password": {"errada"}}
	rec := f.do(http.MethodPost, "/auth/login", "application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, f.cookies)
	require.Zero(t, f.repo.Len())
}

// TestLogin_SuspendedAccountRejected tests that an inactive account never gets a session
func TestLogin_SuspendedAccountRejected(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.api.loginUser = &users.User{ID: 1, Login: "maria", Role: users.RoleSubscriber, Status: users.StatusSuspended}

	form := url.Values{"login": {"maria"}, "password": {"segredo"}}
	rec := f.do(http.MethodPost, "/auth/login", "application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Zero(t, f.repo.Len())
	require.Equal(t, 1, f.api.logoutCount())
}

// TestLogin_LoadingSessionResolvesOnMe tests a login answer without a user record
func TestLogin_LoadingSessionResolvesOnMe(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.api.loginUser = nil

	form := url.Values{"login": {"maria"}, "password": {"segredo"}}
	rec := f.do(http.MethodPost, "/auth/login", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/auth-loading", rec.Header().Get("Location"))

	// Protected pages wait while loading
	rec = f.get("/dashboard")
	require.Equal(t, "/auth-loading", rec.Header().Get("Location"))

	rec = f.get("/api/me")
	require.Equal(t, http.StatusOK, rec.Code)
	var me server.MeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "maria", me.User.Login)
	require.NotEmpty(t, f.cookies[sessions.CookieUser])

	require.Equal(t, http.StatusOK, f.get("/dashboard").Code)
}

func TestLogin_LoadingSessionWithRevokedToken(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.api.loginUser = nil
	f.api.invalid = true

	form := url.Values{"login": {"maria"}, "password": {"segredo"}}
	f.do(http.MethodPost, "/auth/login", "application/x-www-form-urlencoded", form.Encode())

	rec := f.get("/api/me")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, 1, f.api.logoutCount())
	require.Zero(t, f.repo.Len())
}

func TestMe_RefreshFailureKeepsSession(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)
	f.api.meErr = &backend.APIError{Status: http.StatusServiceUnavailable}

	require.Equal(t, http.StatusBadGateway, f.get("/api/me?refresh=1").Code)
	require.Equal(t, http.StatusOK, f.get("/api/me").Code)
	require.Zero(t, f.api.logoutCount())
}

// TestProtectedPage_MissingTokenCookieSignsOut tests the cookie re-check on a protected page
func TestProtectedPage_MissingTokenCookieSignsOut(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)
	delete(f.cookies, sessions.CookieToken)

	rec := f.get("/carteira")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?error="))
	require.Equal(t, 1, f.api.logoutCount())
	require.Zero(t, f.repo.Len())
	require.Empty(t, f.cookies)
}

func TestAPI_NoSessionUnauthorized(t *testing.T) {
	f := setupTestFixture(t, testConfig{})

	rec := f.get("/api/me")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body server.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "/login", body.Redirect)
}

func TestAPI_BackendUnauthorizedForcesSignOut(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)
	f.api.modulesErr = &backend.APIError{Status: http.StatusUnauthorized}

	rec := f.get("/api/modules")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, 1, f.api.logoutCount())
	require.Zero(t, f.repo.Len())
}

// TestAPI_NonCriticalReadsDegrade tests that read failures render empty state
func TestAPI_NonCriticalReadsDegrade(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)
	f.api.modulesErr = &backend.APIError{Status: http.StatusBadGateway}

	rec := f.get("/api/modules")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = f.get("/api/referrals/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats backend.ReferralStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Zero(t, stats.TotalReferrals)
}

func TestLookupCPF(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)

	rec := f.get("/api/lookup/cpf/111.111.111-11")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, f.api.lookups)

	rec = f.get("/api/lookup/cpf/529.982.247-25")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, f.api.lookups)

	var result backend.LookupResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, "52998224725", result.CPF)
}

// TestPaymentIntent_CreditOpensCreditModal tests amount=100 with the credit method
func TestPaymentIntent_CreditOpensCreditModal(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)

	rec := f.postJSON("/api/payments/intents", `{"amount":100,"method":"credit"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"Cartão de Crédito"}, f.api.created)

	rec = f.get("/api/payments/state")
	require.Equal(t, http.StatusOK, rec.Code)
	var state server.PaymentState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Len(t, state.OpenModals, 1)
	require.EqualValues(t, "credit", state.OpenModals[0])
	require.Equal(t, "tx-1", state.CurrentTransaction)

	rec = f.postJSON("/api/payments/intents/tx-1/confirm", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.get("/api/payments/state")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Empty(t, state.OpenModals)
}

func TestPaymentIntent_RejectedSelectionToastsOnce(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)

	rec := f.postJSON("/api/payments/intents", `{"amount":0,"method":"pix"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, f.api.created)

	rec = f.get("/api/toasts")
	var toasts []toast.Toast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toasts))
	require.Len(t, toasts, 1)
	require.Equal(t, toast.LevelError, toasts[0].Level)
}

func TestCloseModal(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)
	require.Equal(t, http.StatusCreated, f.postJSON("/api/payments/intents", `{"amount":10,"method":"pix"}`).Code)

	require.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/payments/modals/boleto", "", "").Code)
	require.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/payments/modals/pix", "", "").Code)

	var state server.PaymentState
	require.NoError(t, json.Unmarshal(f.get("/api/payments/state").Body.Bytes(), &state))
	require.Empty(t, state.OpenModals)
}

func TestPollingToggle(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)

	rec := f.postJSON("/api/payments/polling", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"polling":true}`, rec.Body.String())

	rec = f.postJSON("/api/payments/polling", `{"enabled":false}`)
	require.JSONEq(t, `{"polling":false}`, rec.Body.String())
}

// TestPolling_StartsWithSession tests that reconciliation runs without any
// client opting in
func TestPolling_StartsWithSession(t *testing.T) {
	f := setupTestFixture(t, testConfig{pollInterval: 20 * time.Millisecond})
	f.login(t)
	require.Equal(t, http.StatusOK, f.get("/dashboard").Code)

	require.Eventually(t, func() bool {
		return f.api.checkCount() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	var state server.PaymentState
	require.NoError(t, json.Unmarshal(f.get("/api/payments/state").Body.Bytes(), &state))
	require.True(t, state.Polling)

	// Sign-out stops the loop
	require.Equal(t, http.StatusSeeOther, f.get("/auth/logout").Code)
	stopped := f.api.checkCount()
	require.Never(t, func() bool {
		return f.api.checkCount() > stopped
	}, 100*time.Millisecond, 10*time.Millisecond)
}

// TestPolling_ReconcilesPayments tests a settled payment closes its modal,
// refreshes the balance and tells the user
func TestPolling_ReconcilesPayments(t *testing.T) {
	f := setupTestFixture(t, testConfig{pollInterval: 20 * time.Millisecond})
	f.login(t)
	require.Equal(t, http.StatusCreated, f.postJSON("/api/payments/intents", `{"amount":50,"method":"pix"}`).Code)

	var state server.PaymentState
	require.NoError(t, json.Unmarshal(f.get("/api/payments/state").Body.Bytes(), &state))
	require.Len(t, state.OpenModals, 1)
	require.Len(t, state.Pending, 1)

	f.api.settle(2, 60)

	var drained []toast.Toast
	require.Eventually(t, func() bool {
		var batch []toast.Toast
		if err := json.Unmarshal(f.get("/api/toasts").Body.Bytes(), &batch); err != nil {
			return false
		}
		drained = append(drained, batch...)
		for _, item := range drained {
			if item.Level == toast.LevelSuccess {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, json.Unmarshal(f.get("/api/payments/state").Body.Bytes(), &state))
	require.Empty(t, state.OpenModals)
	require.Empty(t, state.Pending)

	var me server.MeResponse
	require.NoError(t, json.Unmarshal(f.get("/api/me").Body.Bytes(), &me))
	require.InDelta(t, 60.0, me.User.Balance, 0.0001)
	require.Zero(t, f.api.logoutCount())
}

// TestPaymentIntent_BackendFailureHidesDetail tests the client only sees the
// user-facing message
func TestPaymentIntent_BackendFailureHidesDetail(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)
	f.api.createErr = &backend.APIError{Status: http.StatusInternalServerError, Message: "SQLSTATE[42S02]"}

	rec := f.postJSON("/api/payments/intents", `{"amount":50,"method":"pix"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body server.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, payment.MsgCreateFailed, body.Error)
	require.NotContains(t, rec.Body.String(), "SQLSTATE")
	require.NotContains(t, rec.Body.String(), "[Begin]")

	rec = f.postJSON("/api/payments/intents/tx-404/confirm", `{}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, payment.MsgConfirmFailed, body.Error)
}

// TestPageLoads_KeepSessionAlive tests that plain page navigation counts as activity
func TestPageLoads_KeepSessionAlive(t *testing.T) {
	f := setupTestFixture(t, testConfig{idleTimeout: 400 * time.Millisecond})
	f.login(t)

	for i := 0; i < 6; i++ {
		require.Equal(t, http.StatusOK, f.get("/dashboard").Code)
		time.Sleep(100 * time.Millisecond)
	}
	require.Zero(t, f.api.logoutCount())
	require.Equal(t, 1, f.repo.Len())
}

// TestToastDrain_IsNotActivity tests that the shell's background polling lets
// an idle session expire
func TestToastDrain_IsNotActivity(t *testing.T) {
	f := setupTestFixture(t, testConfig{idleTimeout: 150 * time.Millisecond})
	f.login(t)
	require.Equal(t, http.StatusOK, f.get("/dashboard").Code)

	require.Eventually(t, func() bool {
		f.get("/api/toasts")
		return f.api.logoutCount() == 1
	}, 2*time.Second, 20*time.Millisecond)
	require.Zero(t, f.repo.Len())
}

func TestAdmin_RequiresSupportRole(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)

	require.Equal(t, http.StatusForbidden, f.get("/api/admin/users").Code)
	rec := f.get("/admin/usuarios")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/dashboard?error="))
}

func TestAdmin_SupportCanManageUsers(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.api.loginUser = &users.User{ID: 2, Login: "ana", Role: users.RoleSupport}
	f.api.userList = []users.User{{ID: 15, Login: "joao", Role: users.RoleSubscriber}}
	f.login(t)

	rec := f.get("/api/admin/users")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "joao")

	rec = f.do(http.MethodPatch, "/api/admin/users/15/status", "application/json", `{"status":"suspenso"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPatch, "/api/admin/users/15/status", "application/json", `{"status":"banido"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestLogout_IsIdempotent tests that repeated logouts call the backend once
func TestLogout_IsIdempotent(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)
	sid := f.cookies[sessions.CookieSessionID]

	rec := f.get("/auth/logout")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	// Replay the stale cookie
	f.cookies[sessions.CookieSessionID] = sid
	f.get("/auth/logout")

	require.Equal(t, 1, f.api.logoutCount())
	_, err := f.repo.Get(context.Background(), sid)
	require.ErrorIs(t, err, dasherrors.ErrSessionNotFound)
}

// TestIdleTimeout_EndsSession tests that an idle session is signed out exactly once
func TestIdleTimeout_EndsSession(t *testing.T) {
	f := setupTestFixture(t, testConfig{idleTimeout: 100 * time.Millisecond})
	f.login(t)
	require.Equal(t, http.StatusOK, f.get("/dashboard").Code)

	require.Eventually(t, func() bool {
		return f.api.logoutCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, http.StatusUnauthorized, f.get("/api/me").Code)
	require.Never(t, func() bool {
		return f.api.logoutCount() > 1
	}, 300*time.Millisecond, 10*time.Millisecond)
}

func TestActivity_KeepsSessionAlive(t *testing.T) {
	f := setupTestFixture(t, testConfig{idleTimeout: 400 * time.Millisecond})
	f.login(t)
	require.Equal(t, http.StatusOK, f.get("/dashboard").Code)

	for i := 0; i < 5; i++ {
		time.Sleep(100 * time.Millisecond)
		require.Equal(t, http.StatusNoContent, f.postJSON("/api/activity", `{"event":"keydown"}`).Code)
	}
	require.Zero(t, f.api.logoutCount())

	require.Equal(t, http.StatusBadRequest, f.postJSON("/api/activity", `{"event":"focus"}`).Code)
}

func TestNavigation_Accepted(t *testing.T) {
	f := setupTestFixture(t, testConfig{})
	f.login(t)

	require.Equal(t, http.StatusAccepted, f.postJSON("/api/navigation", `{"path":"/carteira"}`).Code)
	require.Equal(t, http.StatusBadRequest, f.postJSON("/api/navigation", `{}`).Code)
}

func TestStaticScript(t *testing.T) {
	f := setupTestFixture(t, testConfig{})

	rec := f.get("/js/dashboard.js")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/api/navigation")
	require.Equal(t, http.StatusNotFound, f.get("/js/missing.js").Code)
}

package sessions_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/consulta-dashboard/sessions"
	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, secret string) *sessions.Store {
	t.Helper()
	signer, err := sessions.NewSnapshotSigner(secret)
	require.NoError(t, err)
	return sessions.NewStore(signer)
}

// requestWithCookies copies the cookies set on a recorder into a new request
func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return r
}

func TestStore_WriteThenRead(t *testing.T) {
	store := newStore(t, "secret")
	rec := httptest.NewRecorder()
	user := &users.User{ID: 9, Login: "joao", Role: users.RoleSupport, PlanBalance: 3}

	err := store.Write(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil), "sid-9", "tok-9", user)
	require.NoError(t, err)

	creds := store.Read(requestWithCookies(rec))
	require.True(t, creds.Complete())
	require.Equal(t, "sid-9", creds.SessionID)
	require.Equal(t, "tok-9", creds.Token)
	require.Equal(t, user.Login, creds.User.Login)
	require.Equal(t, users.RoleSupport, creds.User.Role)
}

func TestStore_CookiesAreHttpOnly(t *testing.T) {
	store := newStore(t, "secret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	require.NoError(t, store.Write(rec, req, "sid", "tok", &users.User{ID: 1, Login: "a", Role: users.RoleSubscriber}))
	for _, c := range rec.Result().Cookies() {
		require.True(t, c.HttpOnly, c.Name)
		require.True(t, c.Secure, c.Name)
		require.Equal(t, http.SameSiteLaxMode, c.SameSite, c.Name)
	}
}

func TestStore_ReadsAPITokenAlias(t *testing.T) {
	store := newStore(t, "secret")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessions.CookieAPIToken, Value: "api-tok"})

	creds := store.Read(r)
	require.Equal(t, "api-tok", creds.Token)
	require.False(t, creds.Complete(), "no user snapshot")
}

func TestStore_TamperedSnapshotReadsAsMissing(t *testing.T) {
	writer := newStore(t, "secret-a")
	reader := newStore(t, "secret-b")
	rec := httptest.NewRecorder()
	require.NoError(t, writer.Write(rec, httptest.NewRequest(http.MethodPost, "/", nil), "sid", "tok",
		&users.User{ID: 1, Login: "a", Role: users.RoleSubscriber}))

	creds := reader.Read(requestWithCookies(rec))
	require.Equal(t, "tok", creds.Token)
	require.Nil(t, creds.User)
	require.False(t, creds.Complete())
}

func TestStore_ClearExpiresEveryCookie(t *testing.T) {
	store := newStore(t, "secret")
	rec := httptest.NewRecorder()
	store.Clear(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cleared := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		require.Negative(t, c.MaxAge)
		cleared[c.Name] = true
	}
	for _, name := range []string{sessions.CookieSessionID, sessions.CookieToken, sessions.CookieAPIToken, sessions.CookieUser} {
		require.True(t, cleared[name], name)
	}
}

func TestSnapshotSigner_RejectsInvalidUser(t *testing.T) {
	signer, err := sessions.NewSnapshotSigner("secret")
	require.NoError(t, err)

	_, err = signer.Sign(&users.User{Login: "no-id", Role: users.RoleSubscriber})
	require.Error(t, err)

	_, err = sessions.NewSnapshotSigner("")
	require.Error(t, err)
}

// TestStore_WriteWithoutUser tests that a loading session gets no snapshot cookie
func TestStore_WriteWithoutUser(t *testing.T) {
	store := newStore(t, "secret")
	rec := httptest.NewRecorder()

	require.NoError(t, store.Write(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil), "sid", "tok", nil))

	creds := store.Read(requestWithCookies(rec))
	require.Equal(t, "sid", creds.SessionID)
	require.Equal(t, "tok", creds.Token)
	require.Nil(t, creds.User)
	require.False(t, creds.Complete())
}

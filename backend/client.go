package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout  = 15 * time.Second
	maxErrorBody    = 4 << 10
	contentTypeJSON = "application/json"
)

var _ users.Directory = (*Client)(nil)

// API paths of the PHP backend
const (
	pathLogin           = "/auth/login"
	pathLogout          = "/auth/logout"
	pathValidate        = "/auth/validate"
	pathMe              = "/users/me"
	pathModules         = "/modules"
	pathReferralStats   = "/referrals/stats"
	pathLookupCPF       = "/consultas/cpf/"
	pathAdminUsers      = "/admin/users"
	pathPending         = "/transactions/pending"
	pathTransactions    = "/transactions/"
	pathCheckPendingPay = "/mercadopago/check-pending-payments"
)

// Client talks JSON to the PHP API. Authenticated calls carry the session token
// as a Bearer header through an oauth2 transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func New(baseURL string, options ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errors.Wrap(err, "[backend.New] invalid base url")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// authed returns an HTTP client that adds "Authorization: Bearer <token>"
func (c *Client) authed(token string) *http.Client {
	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		},
	}
}

func (c *Client) Login(ctx context.Context, login, password string) (*LoginResponse, error) {
	var resp envelope[LoginResponse]
	err := c.do(ctx, c.httpClient, http.MethodPost, pathLogin, LoginRequest{Login: login, Password: password}, nil, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] request failed")
	}
	if err := resp.check(); err != nil {
		return nil, errors.Wrap(err, "[Login] rejected")
	}
	if resp.Data.Token == "" {
		return nil, errors.New("[Login] backend returned no token")
	}
	return &resp.Data, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return errors.Wrap(c.do(ctx, c.authed(token), http.MethodPost, pathLogout, nil, nil, nil), "[Logout] request failed")
}

// ValidateSession asks the backend whether the token is still live
func (c *Client) ValidateSession(ctx context.Context, token string) (*ValidateResponse, error) {
	var resp envelope[ValidateResponse]
	if err := c.do(ctx, c.authed(token), http.MethodGet, pathValidate, nil, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[ValidateSession] request failed")
	}
	return &resp.Data, nil
}

func (c *Client) Me(ctx context.Context, token string) (*users.User, error) {
	var resp envelope[users.User]
	if err := c.do(ctx, c.authed(token), http.MethodGet, pathMe, nil, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[Me] request failed")
	}
	if err := resp.check(); err != nil {
		return nil, errors.Wrap(err, "[Me] rejected")
	}
	return &resp.Data, nil
}

func (c *Client) ListModules(ctx context.Context, token string) ([]Module, error) {
	var resp envelope[[]Module]
	if err := c.do(ctx, c.authed(token), http.MethodGet, pathModules, nil, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[ListModules] request failed")
	}
	return resp.Data, resp.check()
}

func (c *Client) ReferralStats(ctx context.Context, token string) (*ReferralStats, error) {
	var resp envelope[ReferralStats]
	if err := c.do(ctx, c.authed(token), http.MethodGet, pathReferralStats, nil, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[ReferralStats] request failed")
	}
	if err := resp.check(); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// LookupCPF runs a paid lookup; the backend charges the balance
func (c *Client) LookupCPF(ctx context.Context, token, cpf string) (*LookupResult, error) {
	var resp envelope[LookupResult]
	if err := c.do(ctx, c.authed(token), http.MethodGet, pathLookupCPF+url.PathEscape(cpf), nil, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[LookupCPF] request failed")
	}
	if err := resp.check(); err != nil {
		return nil, errors.Wrap(err, "[LookupCPF] rejected")
	}
	return &resp.Data, nil
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]users.User, error) {
	var resp envelope[[]users.User]
	if err := c.do(ctx, c.authed(token), http.MethodGet, pathAdminUsers, nil, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[ListUsers] request failed")
	}
	return resp.Data, resp.check()
}

func (c *Client) UpdateUserStatus(ctx context.Context, token string, userID int64, status users.StatusType) error {
	path := fmt.Sprintf("%s/%d/status", pathAdminUsers, userID)
	var resp envelope[json.RawMessage]
	if err := c.do(ctx, c.authed(token), http.MethodPatch, path, UpdateStatusRequest{Status: status}, nil, &resp); err != nil {
		return errors.Wrap(err, "[UpdateUserStatus] request failed")
	}
	return resp.check()
}

// CreatePendingTransaction registers a payment intent. method is the
// human-readable method name ("PIX", "Cartão de Crédito", ...).
func (c *Client) CreatePendingTransaction(ctx context.Context, token string, amount float64, method string) (*PendingTransaction, error) {
	headers := map[string]string{"Idempotency-Key": uuid.New().String()}
	var resp envelope[PendingTransaction]
	err := c.do(ctx, c.authed(token), http.MethodPost, pathPending, CreatePendingRequest{Amount: amount, Method: method}, headers, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "[CreatePendingTransaction] request failed")
	}
	if err := resp.check(); err != nil {
		return nil, errors.Wrap(err, "[CreatePendingTransaction] rejected")
	}
	if resp.Data.ID == "" {
		return nil, errors.New("[CreatePendingTransaction] backend returned no transaction id")
	}
	return &resp.Data, nil
}

func (c *Client) ConfirmTransaction(ctx context.Context, token, transactionID string) (*PendingTransaction, error) {
	var resp envelope[PendingTransaction]
	path := pathTransactions + url.PathEscape(transactionID) + "/confirm"
	if err := c.do(ctx, c.authed(token), http.MethodPost, path, nil, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[ConfirmTransaction] request failed")
	}
	if err := resp.check(); err != nil {
		return nil, errors.Wrap(err, "[ConfirmTransaction] rejected")
	}
	return &resp.Data, nil
}

func (c *Client) ListPendingTransactions(ctx context.Context, token string) ([]PendingTransaction, error) {
	var resp envelope[[]PendingTransaction]
	if err := c.do(ctx, c.authed(token), http.MethodGet, pathPending, nil, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[ListPendingTransactions] request failed")
	}
	return resp.Data, resp.check()
}

// CheckPendingPayments asks the backend to reconcile payments confirmed outside
// the app and returns how many records changed.
func (c *Client) CheckPendingPayments(ctx context.Context, token string) (int, error) {
	var resp struct {
		Updated int             `json:"updated"`
		Data    ReconcileResult `json:"data"`
	}
	if err := c.do(ctx, c.authed(token), http.MethodGet, pathCheckPendingPay, nil, nil, &resp); err != nil {
		return 0, errors.Wrap(err, "[CheckPendingPayments] request failed")
	}
	// Older endpoints report the count at the top level, newer ones inside data
	if resp.Updated > 0 {
		return resp.Updated, nil
	}
	return resp.Data.Updated, nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiErrorFrom(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

func apiErrorFrom(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body envelope[json.RawMessage]
	msg := ""
	if json.Unmarshal(data, &body) == nil {
		msg = body.Message
		if msg == "" {
			msg = body.Error
		}
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// check turns a success=false envelope into an APIError
func (e envelope[T]) check() error {
	if e.Success != nil && !*e.Success {
		msg := e.Message
		if msg == "" {
			msg = e.Error
		}
		return &APIError{Status: http.StatusOK, Message: msg}
	}
	return nil
}

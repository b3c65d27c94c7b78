package backend

import (
	"fmt"
	"net/http"
	"time"

	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/users"
)

// envelope is the response wrapper the PHP API uses for most endpoints
type envelope[T any] struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    T      `json:"data"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

type ValidateResponse struct {
	Valid bool        `json:"valid"`
	User  *users.User `json:"user,omitempty"`
}

// Module is a lookup product listed in the panel
type Module struct {
	ID          int64   `json:"id"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Active      bool    `json:"active"`
	Panel       string  `json:"panel,omitempty"`
}

type ReferralStats struct {
	Code            string  `json:"code"`
	TotalReferrals  int     `json:"total_referrals"`
	ActiveReferrals int     `json:"active_referrals"`
	TotalBonus      float64 `json:"total_bonus"`
	PendingBonus    float64 `json:"pending_bonus"`
}

// LookupResult is the CPF lookup payload; Extra holds module specific fields
type LookupResult struct {
	CPF       string         `json:"cpf"`
	Name      string         `json:"name"`
	BirthDate string         `json:"birth_date,omitempty"`
	Mother    string         `json:"mother_name,omitempty"`
	Situation string         `json:"situation,omitempty"`
	Charged   float64        `json:"charged"`
	Extra     map[string]any `json:"extra,omitempty"`
}

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionConfirmed TransactionStatus = "confirmed"
	TransactionSettled   TransactionStatus = "settled"
	TransactionExpired   TransactionStatus = "expired"
)

// PendingTransaction is created before a payment modal opens. Its ID correlates
// the modal, the provider confirmation and the reconciliation job.
type PendingTransaction struct {
	ID        string            `json:"id"`
	Method    string            `json:"method"`
	Amount    float64           `json:"amount"`
	Status    TransactionStatus `json:"status"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
	PixCode   string            `json:"pix_code,omitempty"`
	PayURL    string            `json:"pay_url,omitempty"`
}

type CreatePendingRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

// ReconcileResult is returned by the pending payment check
type ReconcileResult struct {
	Updated int `json:"updated"`
}

type UpdateStatusRequest struct {
	Status users.StatusType `json:"status"`
}

// APIError is returned for non-2xx responses or success=false envelopes
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// Unwrap maps auth related statuses onto the shared sentinel errors
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return dasherrors.ErrUnauthorized
	case http.StatusForbidden:
		return dasherrors.ErrForbidden
	case http.StatusNotFound:
		return dasherrors.ErrNotFound
	}
	return nil
}

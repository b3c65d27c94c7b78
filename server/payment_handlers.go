package server

import (
	"net/http"

	"github.com/jrsteele09/consulta-dashboard/backend"
	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/payment"
	"github.com/rs/zerolog/log"
)

type paymentIntentRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

// paymentStatus maps orchestrator errors onto HTTP statuses
func paymentStatus(err error) int {
	switch {
	case dasherrors.Is(err, dasherrors.ErrInvalidAmount),
		dasherrors.Is(err, dasherrors.ErrInvalidMethod),
		dasherrors.Is(err, dasherrors.ErrNotRemoteMethod):
		return http.StatusBadRequest
	case dasherrors.Is(err, dasherrors.ErrPaymentInFlight):
		return http.StatusConflict
	case dasherrors.Is(err, dasherrors.ErrTransactionUnknown):
		return http.StatusNotFound
	case dasherrors.Is(err, dasherrors.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}

// CreatePaymentIntentHandler creates a pending transaction and opens its modal
func (s *Server) CreatePaymentIntentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())
		var req paymentIntentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}

		// An unknown method still flows through the orchestrator so the user gets its toast
		method, _ := payment.ParseMethod(req.Method)
		state := authStateFromContext(r.Context())
		intent, err := rt.payments.Begin(r.Context(), payment.Request{
			Amount: req.Amount,
			Method: method,
			User:   state.User,
			Token:  state.Token,
		})
		if err != nil {
			if s.handleAuthFailure(w, r, err) {
				return
			}
			writeError(w, paymentStatus(err), payment.ErrorMessage(err, payment.MsgCreateFailed))
			return
		}
		writeJSON(w, http.StatusCreated, intent)
	}
}

// ConfirmPaymentHandler settles a pending transaction from its modal
func (s *Server) ConfirmPaymentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())
		state := authStateFromContext(r.Context())

		tx, err := rt.payments.Confirm(r.Context(), state.Token, r.PathValue("id"))
		if err != nil {
			if s.handleAuthFailure(w, r, err) {
				return
			}
			writeError(w, paymentStatus(err), payment.ErrorMessage(err, payment.MsgConfirmFailed))
			return
		}

		if _, err := s.refreshUser(w, r, state); err != nil {
			log.Debug().Err(err).Str("session_id", state.SessionID).Msg("Payment: failed to refresh balance")
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

// CloseModalHandler dismisses a payment modal without settling
func (s *Server) CloseModalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modal, ok := payment.ParseModal(r.PathValue("modal"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown modal")
			return
		}
		runtimeFromContext(r.Context()).payments.Cancel(modal)
		w.WriteHeader(http.StatusNoContent)
	}
}

// PaymentState is the wallet page's view of in-progress payments
type PaymentState struct {
	OpenModals         []payment.Modal               `json:"open_modals"`
	CurrentTransaction string                        `json:"current_transaction,omitempty"`
	Pending            []*backend.PendingTransaction `json:"pending"`
	Polling            bool                          `json:"polling"`
}

func (s *Server) PaymentStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())
		writeJSON(w, http.StatusOK, PaymentState{
			OpenModals:         rt.modals.OpenModals(),
			CurrentTransaction: rt.payments.CurrentTransactionID(),
			Pending:            rt.payments.Pending(),
			Polling:            rt.poller.Running(),
		})
	}
}

type pollingRequest struct {
	Enabled bool `json:"enabled"`
}

// PollingHandler turns background reconciliation on or off for this session.
// POLL_ENABLED=false keeps it off regardless.
func (s *Server) PollingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pollingRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}

		rt := runtimeFromContext(r.Context())
		rt.poller.SetEnabled(req.Enabled && s.config.GetPollEnabled())
		writeJSON(w, http.StatusOK, map[string]bool{"polling": rt.poller.Running()})
	}
}

package payment

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/consulta-dashboard/backend"
	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
	"github.com/jrsteele09/consulta-dashboard/toast"
	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// User-facing messages
const (
	msgInvalidSelection = "Selecione um valor e um método de pagamento válidos."
	msgWalletSelection  = "Pagamentos com saldo da carteira não usam pagamento externo."
	msgNotLoggedIn      = "Você precisa estar logado para continuar."
	msgInFlight         = "Já existe um pagamento em processamento."
	msgCreated          = "Transação criada! Conclua o pagamento para confirmar."
	MsgCreateFailed     = "Erro ao criar a transação. Tente novamente."
	msgConfirmed        = "Pagamento confirmado! Seu saldo será atualizado em instantes."
	MsgConfirmFailed    = "Erro ao confirmar o pagamento. Tente novamente."
)

// ErrorMessage is the user-facing text for an orchestrator error. Backend
// failures return fallback so internal detail never reaches the client.
func ErrorMessage(err error, fallback string) string {
	switch {
	case dasherrors.Is(err, dasherrors.ErrNotRemoteMethod):
		return msgWalletSelection
	case dasherrors.Is(err, dasherrors.ErrInvalidAmount), dasherrors.Is(err, dasherrors.ErrInvalidMethod):
		return msgInvalidSelection
	case dasherrors.Is(err, dasherrors.ErrUnauthorized):
		return msgNotLoggedIn
	case dasherrors.Is(err, dasherrors.ErrPaymentInFlight):
		return msgInFlight
	case dasherrors.Is(err, dasherrors.ErrTransactionUnknown):
		return MsgConfirmFailed
	}
	return fallback
}

// Backend is the subset of the API the orchestrator needs
type Backend interface {
	CreatePendingTransaction(ctx context.Context, token string, amount float64, method string) (*backend.PendingTransaction, error)
	ConfirmTransaction(ctx context.Context, token, transactionID string) (*backend.PendingTransaction, error)
}

// Request is one (amount, method) selection from the wallet page
type Request struct {
	Amount     float64
	Method     Method
	User       *users.User
	Token      string
	CanProceed func() bool // Overrides the default amount predicate when set
}

// Intent is the result of a successful Begin
type Intent struct {
	Transaction *backend.PendingTransaction `json:"transaction"`
	Modal       Modal                       `json:"modal"`
}

// Orchestrator turns a payment selection into a pending transaction and opens
// the matching modal.
type Orchestrator struct {
	backend   Backend
	modals    *Modals
	notifier  toast.Notifier
	maxAmount float64

	inFlight atomic.Bool

	mu      sync.RWMutex
	current string                                 // id of the last created transaction
	pending map[string]*backend.PendingTransaction // created but not yet confirmed
}

// OrchestratorOption defines a function type to modify the Orchestrator instance.
type OrchestratorOption func(*Orchestrator)

// WithMaxAmount caps the default amount predicate
func WithMaxAmount(maxAmount float64) OrchestratorOption {
	return func(o *Orchestrator) {
		o.maxAmount = maxAmount
	}
}

func NewOrchestrator(api Backend, modals *Modals, notifier toast.Notifier, options ...OrchestratorOption) (*Orchestrator, error) {
	if api == nil {
		return nil, errors.New("[NewOrchestrator] backend is required")
	}
	if modals == nil {
		return nil, errors.New("[NewOrchestrator] modals are required")
	}
	if notifier == nil {
		return nil, errors.New("[NewOrchestrator] notifier is required")
	}
	o := &Orchestrator{
		backend:  api,
		modals:   modals,
		notifier: notifier,
		pending:  make(map[string]*backend.PendingTransaction),
	}
	for _, opt := range options {
		opt(o)
	}
	return o, nil
}

// Begin validates the selection, creates the pending transaction and opens the
// method's modal. Any precondition failure toasts once and makes no backend call.
func (o *Orchestrator) Begin(ctx context.Context, req Request) (*Intent, error) {
	canProceed := req.CanProceed
	if canProceed == nil {
		canProceed = func() bool { return ValidAmount(req.Amount, o.maxAmount, req.Method) }
	}

	if req.Method == MethodWallet {
		o.notifier.Error(msgWalletSelection)
		return nil, dasherrors.ErrNotRemoteMethod
	}
	if !canProceed() {
		o.notifier.Error(msgInvalidSelection)
		return nil, dasherrors.ErrInvalidAmount
	}
	modal, ok := ModalFor(req.Method)
	if !ok {
		o.notifier.Error(msgInvalidSelection)
		return nil, dasherrors.ErrInvalidMethod
	}
	if req.User == nil || req.Token == "" {
		o.notifier.Error(msgNotLoggedIn)
		return nil, dasherrors.ErrUnauthorized
	}
	if !o.inFlight.CompareAndSwap(false, true) {
		o.notifier.Error(msgInFlight)
		return nil, dasherrors.ErrPaymentInFlight
	}
	defer o.inFlight.Store(false)

	tx, err := o.backend.CreatePendingTransaction(ctx, req.Token, req.Amount, req.Method.DisplayName())
	if err != nil {
		log.Err(err).
			Str("method", string(req.Method)).
			Float64("amount", req.Amount).
			Int64("user_id", req.User.ID).
			Msg("Payment: failed to create pending transaction")
		o.notifier.Error(MsgCreateFailed)
		return nil, errors.Wrap(err, "[Begin] failed to create pending transaction")
	}

	o.mu.Lock()
	o.current = tx.ID
	o.pending[tx.ID] = tx
	o.mu.Unlock()

	o.modals.Open(modal, tx.ID)
	o.notifier.Info(msgCreated)

	log.Info().Str("transaction_id", tx.ID).Str("method", string(req.Method)).Msg("Payment: pending transaction created")
	return &Intent{Transaction: tx, Modal: modal}, nil
}

// Confirm settles a pending transaction after the user acts in its modal
func (o *Orchestrator) Confirm(ctx context.Context, token, transactionID string) (*backend.PendingTransaction, error) {
	o.mu.RLock()
	_, known := o.pending[transactionID]
	o.mu.RUnlock()
	if !known {
		o.notifier.Error(MsgConfirmFailed)
		return nil, dasherrors.ErrTransactionUnknown
	}

	tx, err := o.backend.ConfirmTransaction(ctx, token, transactionID)
	if err != nil {
		log.Err(err).Str("transaction_id", transactionID).Msg("Payment: failed to confirm transaction")
		o.notifier.Error(MsgConfirmFailed)
		return nil, errors.Wrap(err, "[Confirm] failed to confirm transaction")
	}

	o.mu.Lock()
	delete(o.pending, transactionID)
	o.mu.Unlock()

	if modal, ok := o.modals.ModalForTransaction(transactionID); ok {
		o.modals.Close(modal)
	}
	o.notifier.Success(msgConfirmed)
	return tx, nil
}

// Cancel closes a modal without settling; the transaction expires server-side
func (o *Orchestrator) Cancel(modal Modal) {
	o.modals.Close(modal)
}

// CurrentTransactionID is the id of the most recently created transaction
func (o *Orchestrator) CurrentTransactionID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

// Pending lists transactions created in this session that are not yet confirmed
func (o *Orchestrator) Pending() []*backend.PendingTransaction {
	o.mu.RLock()
	defer o.mu.RUnlock()

	txs := make([]*backend.PendingTransaction, 0, len(o.pending))
	for _, tx := range o.pending {
		txs = append(txs, tx)
	}
	return txs
}

// Forget drops a transaction reconciled elsewhere (e.g. by polling)
func (o *Orchestrator) Forget(transactionID string) {
	o.mu.Lock()
	delete(o.pending, transactionID)
	o.mu.Unlock()

	if modal, ok := o.modals.ModalForTransaction(transactionID); ok {
		o.modals.Close(modal)
	}
}

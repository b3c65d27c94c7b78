package payment

import (
	"strings"

	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
)

// Method is the closed set of payment selections offered by the wallet page
type Method string

const (
	MethodPix      Method = "pix"
	MethodCredit   Method = "credit"
	MethodTransfer Method = "transfer"
	MethodPayPal   Method = "paypal"
	MethodCrypto   Method = "crypto"
	MethodWallet   Method = "wallet" // Pays from balance; not a remote payment
)

// Methods lists every selectable method in display order
var Methods = []Method{MethodPix, MethodCredit, MethodTransfer, MethodPayPal, MethodCrypto, MethodWallet}

func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MethodPix, MethodCredit, MethodTransfer, MethodPayPal, MethodCrypto, MethodWallet:
		return m, nil
	}
	return "", dasherrors.Wrapf(dasherrors.ErrInvalidMethod, "[ParseMethod] %q", s)
}

// DisplayName is the human-readable name the backend stores on the transaction
func (m Method) DisplayName() string {
	switch m {
	case MethodPix:
		return "PIX"
	case MethodCredit:
		return "Cartão de Crédito"
	case MethodTransfer:
		return "Transferência Bancária"
	case MethodPayPal:
		return "PayPal"
	case MethodCrypto:
		return "Criptomoeda"
	case MethodWallet:
		return "Carteira"
	}
	return string(m)
}

// Remote reports whether the method goes through an external provider
func (m Method) Remote() bool {
	switch m {
	case MethodPix, MethodCredit, MethodTransfer, MethodPayPal, MethodCrypto:
		return true
	}
	return false
}

// Modal identifies a method-specific confirmation dialog
type Modal string

const (
	ModalPix      Modal = "pix"
	ModalCredit   Modal = "credit"
	ModalTransfer Modal = "transfer"
	ModalPayPal   Modal = "paypal"
	ModalCrypto   Modal = "crypto"
)

// ModalFor maps a remote method to its modal. Modals and remote methods are in
// one-to-one correspondence; wallet has none.
func ModalFor(m Method) (Modal, bool) {
	switch m {
	case MethodPix:
		return ModalPix, true
	case MethodCredit:
		return ModalCredit, true
	case MethodTransfer:
		return ModalTransfer, true
	case MethodPayPal:
		return ModalPayPal, true
	case MethodCrypto:
		return ModalCrypto, true
	case MethodWallet:
		return "", false
	}
	return "", false
}

func ParseModal(s string) (Modal, bool) {
	m := Modal(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModalPix, ModalCredit, ModalTransfer, ModalPayPal, ModalCrypto:
		return m, true
	}
	return "", false
}

// ValidAmount is the default selection predicate: a positive amount within the
// limit paid through a remote method.
func ValidAmount(amount, maxAmount float64, m Method) bool {
	if !m.Remote() {
		return false
	}
	if amount <= 0 {
		return false
	}
	return maxAmount <= 0 || amount <= maxAmount
}

package errors

import (
	"errors"
	"fmt"
)

// Common error types for the dashboard gateway
var (
	// Authentication errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSnapshot = errors.New("invalid user snapshot")

	// Payment errors
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrNotRemoteMethod    = errors.New("payment method is not a remote payment")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrPaymentInFlight    = errors.New("payment request already in flight")
	ErrTransactionUnknown = errors.New("unknown pending transaction")

	// Lookup errors
	ErrInvalidCPF = errors.New("invalid CPF")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

package users

import (
	"fmt"
	"strings"
)

// RoleType represents the dashboard role assigned by the backend
type RoleType string

const (
	RoleSubscriber RoleType = "assinante" // Customer with a plan or wallet balance
	RoleSupport    RoleType = "suporte"   // Support staff, can manage users and content
)

type StatusType string

const (
	StatusActive    StatusType = "ativo"
	StatusInactive  StatusType = "inativo"
	StatusSuspended StatusType = "suspenso"
)

// User is the record the backend returns on login and refresh. Money fields are
// owned by the backend and are re-fetched, never computed locally.
type User struct {
	ID               int64      `json:"id"`
	Login            string     `json:"login"`
	Email            string     `json:"email,omitempty"`
	FullName         string     `json:"full_name,omitempty"`
	Role             RoleType   `json:"role"`
	Balance          float64    `json:"balance"`
	PlanBalance      float64    `json:"plan_balance"`
	Plan             string     `json:"plan,omitempty"`
	Status           StatusType `json:"status,omitempty"`
	EmailVerified    bool       `json:"email_verified,omitempty"`
	DocumentVerified bool       `json:"document_verified,omitempty"`
}

// Validate checks the fields every session snapshot needs
func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	if u.ID <= 0 {
		return fmt.Errorf("user id must be positive")
	}
	if strings.TrimSpace(u.Login) == "" {
		return fmt.Errorf("user login is required")
	}
	switch u.Role {
	case RoleSubscriber, RoleSupport:
	default:
		return fmt.Errorf("unknown role %q", u.Role)
	}
	return nil
}

func (u *User) IsSupport() bool {
	return u != nil && u.Role == RoleSupport
}

// IsActive treats an empty status as active; older backend builds omit it
func (u *User) IsActive() bool {
	return u != nil && (u.Status == "" || u.Status == StatusActive)
}

// DisplayName prefers the full name and falls back to the login
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.Login
}

// TotalBalance is the spendable amount shown in the wallet header
func (u *User) TotalBalance() float64 {
	if u == nil {
		return 0
	}
	return u.Balance + u.PlanBalance
}

// ValidStatus reports whether s is one of the statuses support can assign
func ValidStatus(s StatusType) bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

package users

import "context"

// Directory is where user records live; every call acts as the token's owner
type Directory interface {
	Me(ctx context.Context, token string) (*User, error)
	ListUsers(ctx context.Context, token string) ([]User, error)
	UpdateUserStatus(ctx context.Context, token string, userID int64, status StatusType) error
}

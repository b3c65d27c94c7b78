package users_test

import (
	"testing"

	"github.com/jrsteele09/consulta-dashboard/users"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		user    *users.User
		wantErr string
	}{
		{name: "valid subscriber", user: &users.User{ID: 1, Login: "maria", Role: users.RoleSubscriber}},
		{name: "valid support", user: &users.User{ID: 2, Login: "ana", Role: users.RoleSupport}},
		{name: "nil user", user: nil, wantErr: "nil"},
		{name: "missing id", user: &users.User{Login: "maria", Role: users.RoleSubscriber}, wantErr: "id"},
		{name: "missing login", user: &users.User{ID: 1, Role: users.RoleSubscriber}, wantErr: "login"},
		{name: "unknown role", user: &users.User{ID: 1, Login: "maria", Role: "admin"}, wantErr: "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDisplayName(t *testing.T) {
	u := &users.User{Login: "maria"}
	require.Equal(t, "maria", u.DisplayName())

	u.FullName = "Maria Silva"
	require.Equal(t, "Maria Silva", u.DisplayName())

	var nilUser *users.User
	require.Empty(t, nilUser.DisplayName())
}

func TestIsActive(t *testing.T) {
	require.True(t, (&users.User{}).IsActive(), "empty status counts as active")
	require.True(t, (&users.User{Status: users.StatusActive}).IsActive())
	require.False(t, (&users.User{Status: users.StatusSuspended}).IsActive())
}

func TestTotalBalance(t *testing.T) {
	u := &users.User{Balance: 10.5, PlanBalance: 4.5}
	require.InDelta(t, 15.0, u.TotalBalance(), 0.0001)
}

func TestValidStatus(t *testing.T) {
	require.True(t, users.ValidStatus(users.StatusActive))
	require.True(t, users.ValidStatus(users.StatusSuspended))
	require.False(t, users.ValidStatus(""))
	require.False(t, users.ValidStatus("banido"))
}

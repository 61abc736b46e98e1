package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTGenerateValidate(t *testing.T) {
	manager := NewJWTManager([]byte("secret"), time.Hour, "storefront")
	token, err := manager.Generate("user-1", "admin@example.com", "admin")
	require.NoError(t, err)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "admin@example.com", claims.Email)
	require.Equal(t, time.Hour, manager.Expiry())
}

func TestJWTGenerateInvalid(t *testing.T) {
	manager := NewJWTManager([]byte("secret"), time.Hour, "storefront")
	_, err := manager.Generate("", "", "admin")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTValidateRejects(t *testing.T) {
	manager := NewJWTManager([]byte("secret"), time.Hour, "storefront")

	_, err := manager.Validate("")
	require.ErrorIs(t, err, ErrMissingToken)

	other := NewJWTManager([]byte("other"), time.Hour, "storefront")
	token, err := other.Generate("u", "", "admin")
	require.NoError(t, err)
	_, err = manager.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewJWTManager([]byte("secret"), time.Hour, "elsewhere")
	token, err = wrongIssuer.Generate("u", "", "admin")
	require.NoError(t, err)
	_, err = manager.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTManager([]byte("secret"), -time.Minute, "storefront")
	token, err = expired.Generate("u", "", "admin")
	require.NoError(t, err)
	_, err = manager.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromHeader(t *testing.T) {
	_, err := TokenFromHeader("nope")
	require.ErrorIs(t, err, ErrMissingToken)

	token, err := TokenFromHeader("Bearer abc")
	require.NoError(t, err)
	require.Equal(t, "abc", token)
}

func TestRoles(t *testing.T) {
	require.True(t, IsAdmin(" Admin "))
	require.False(t, IsAdmin("customer"))
	require.False(t, IsAdmin(""))
	require.Equal(t, RoleCustomer, NormalizeRole("editor"))
}

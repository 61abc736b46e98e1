package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type memoryProfiles struct {
	byEmail map[string]Profile
}

func (m *memoryProfiles) GetProfileByEmail(_ context.Context, email string) (*Profile, error) {
	p, ok := m.byEmail[email]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (m *memoryProfiles) UpsertProfile(_ context.Context, p Profile) (*Profile, error) {
	if existing, ok := m.byEmail[p.Email]; ok {
		p.ID = existing.ID
	} else {
		p.ID = fmt.Sprintf("profile-%d", len(m.byEmail)+1)
	}
	m.byEmail[p.Email] = p
	return &p, nil
}

func newTestService() (*Service, *memoryProfiles) {
	store := &memoryProfiles{byEmail: map[string]Profile{}}
	return NewService(store, NewJWTManager([]byte("secret"), time.Hour, "storefront"), zerolog.Nop()), store
}

func TestEnsureAdminAndLogin(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	profile, err := svc.EnsureAdmin(ctx, "Owner", " Admin@Example.com ", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", profile.Email)
	require.NotEqual(t, "correct-horse", store.byEmail["admin@example.com"].PasswordHash)

	token, got, err := svc.Login(ctx, "ADMIN@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, profile.ID, got.ID)

	claims, err := svc.JWT().Validate(token)
	require.NoError(t, err)
	require.Equal(t, profile.ID, claims.Subject)
	require.True(t, IsAdmin(claims.Role))

	again, err := svc.EnsureAdmin(ctx, "Owner", "admin@example.com", "new-password")
	require.NoError(t, err)
	require.Equal(t, profile.ID, again.ID)
	_, _, err = svc.Login(ctx, "admin@example.com", "correct-horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginFailures(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	_, err := svc.EnsureAdmin(ctx, "", "admin@example.com", "correct-horse")
	require.NoError(t, err)
	store.byEmail["buyer@example.com"] = Profile{ID: "b", Email: "buyer@example.com", Role: "customer", PasswordHash: store.byEmail["admin@example.com"].PasswordHash}

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"unknown email", "nobody@example.com", "correct-horse", ErrInvalidCredentials},
		{"wrong password", "admin@example.com", "nope", ErrInvalidCredentials},
		{"empty", "", "", ErrInvalidCredentials},
		{"not admin", "buyer@example.com", "correct-horse", ErrNotAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Login(ctx, tt.email, tt.password)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEnsureAdminValidation(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.EnsureAdmin(context.Background(), "", "", "long-enough")
	require.Error(t, err)
	_, err = svc.EnsureAdmin(context.Background(), "", "a@example.com", "short")
	require.Error(t, err)
}

func TestTokenFor(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.TokenFor(ctx, "admin@example.com")
	require.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.EnsureAdmin(ctx, "", "admin@example.com", "correct-horse")
	require.NoError(t, err)
	token, err := svc.TokenFor(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

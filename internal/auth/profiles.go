package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for admin password hashes.
const BcryptCost = 12

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAdmin           = errors.New("admin role required")
)

// Profile is an account row. Only admins have a password hash.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type ProfileStore interface {
	GetProfileByEmail(ctx context.Context, email string) (*Profile, error)
	// UpsertProfile creates or updates the profile keyed by email.
	UpsertProfile(ctx context.Context, p Profile) (*Profile, error)
}

// Service authenticates admins and issues session tokens.
type Service struct {
	store  ProfileStore
	jwt    *JWTManager
	logger zerolog.Logger
}

func NewService(store ProfileStore, jwt *JWTManager, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		jwt:    jwt,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

func (s *Service) JWT() *JWTManager {
	return s.jwt
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks an admin's password and returns a signed token. Unknown
// emails and wrong passwords return the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Profile, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	profile, err := s.store.GetProfileByEmail(ctx, email)
	if errors.Is(err, ErrProfileNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("load profile: %w", err)
	}
	if profile.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !IsAdmin(profile.Role) {
		return "", nil, ErrNotAdmin
	}

	token, err := s.jwt.Generate(profile.ID, profile.Email, string(RoleAdmin))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	s.logger.Info().Str("profile_id", profile.ID).Msg("admin login")
	return token, profile, nil
}

// TokenFor issues a token for an existing admin without a password check.
// It backs the CLI token command.
func (s *Service) TokenFor(ctx context.Context, email string) (string, error) {
	profile, err := s.store.GetProfileByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", err
	}
	if !IsAdmin(profile.Role) {
		return "", ErrNotAdmin
	}
	return s.jwt.Generate(profile.ID, profile.Email, string(RoleAdmin))
}

// EnsureAdmin creates the admin profile, or resets its password and role
// when it exists.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (*Profile, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("admin email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	profile, err := s.store.UpsertProfile(ctx, Profile{
		Email:        email,
		FullName:     strings.TrimSpace(name),
		Role:         string(RoleAdmin),
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert admin: %w", err)
	}
	s.logger.Info().Str("email", email).Msg("admin profile ensured")
	return profile, nil
}

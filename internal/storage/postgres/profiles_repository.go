package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/conectados420/storefront/internal/auth"
)

var _ auth.ProfileStore = (*ProfileRepository)(nil)

type ProfileRepository struct {
	conn
}

func scanProfile(row pgx.Row) (*auth.Profile, error) {
	var p auth.Profile
	var name, hash *string
	if err := row.Scan(&p.ID, &p.Email, &name, &p.Role, &hash, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrProfileNotFound
		}
		return nil, err
	}
	p.FullName = derefString(name)
	p.PasswordHash = derefString(hash)
	return &p, nil
}

func (r *ProfileRepository) GetProfileByEmail(ctx context.Context, email string) (*auth.Profile, error) {
	p, err := scanProfile(r.queryer().QueryRow(ctx, `
SELECT id, email, full_name, role, password_hash, created_at
  FROM profiles
 WHERE lower(email) = lower($1)`, email))
	if err != nil && !errors.Is(err, auth.ErrProfileNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, err
}

func (r *ProfileRepository) UpsertProfile(ctx context.Context, in auth.Profile) (*auth.Profile, error) {
	p, err := scanProfile(r.queryer().QueryRow(ctx, `
INSERT INTO profiles (email, full_name, role, password_hash)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO UPDATE
   SET full_name = COALESCE(EXCLUDED.full_name, profiles.full_name),
       role = EXCLUDED.role,
       password_hash = COALESCE(EXCLUDED.password_hash, profiles.password_hash)
RETURNING id, email, full_name, role, password_hash, created_at`,
		in.Email, nullString(in.FullName), in.Role, nullString(in.PasswordHash),
	))
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/villa-vote/models"
)

// UpsertProfile creates the profile for an identity on first login and
// updates the display name on later logins
func (s *Store) UpsertProfile(ctx context.Context, identityRef, username string) (models.Profile, error) {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (id, identity_ref, username, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (identity_ref) DO UPDATE SET
			username = excluded.username,
			updated_at = excluded.updated_at
	`, newID(), identityRef, username, now)
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return s.ProfileByIdentity(ctx, identityRef)
}

// ProfileByIdentity looks up the profile bound to an identity
func (s *Store) ProfileByIdentity(ctx context.Context, identityRef string) (models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, identity_ref, username, created_at, updated_at
		FROM profile
		WHERE identity_ref = $1
	`, identityRef).Scan(&p.ID, &p.IdentityRef, &p.Username, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to query profile: %w", err)
	}
	return p, nil
}

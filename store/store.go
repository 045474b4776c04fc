// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrJoinCodeTaken = errors.New("join code already in use")
)

// Store runs every query against the shared relational store. Queries use
// $N placeholders, which both lib/pq and modernc.org/sqlite accept.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// DB exposes the underlying handle for health checks
func (s *Store) DB() *sql.DB {
	return s.db
}

// isUniqueViolation recognises unique-constraint errors from either driver
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func newID() string {
	return uuid.NewString()
}

// Identity

// CreateIdentity stores a token hash and returns the new identity id
func (s *Store) CreateIdentity(ctx context.Context, tokenHash string) (string, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identity (id, token_hash, created_at)
		VALUES ($1, $2, $3)
	`, id, tokenHash, s.now())
	if err != nil {
		return "", fmt.Errorf("failed to insert identity: %w", err)
	}
	return id, nil
}

// IdentityByTokenHash returns the identity id for a live token hash, or ""
// when the hash is unknown or revoked
func (s *Store) IdentityByTokenHash(ctx context.Context, tokenHash string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM identity
		WHERE token_hash = $1 AND revoked_at IS NULL
	`, tokenHash).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query identity: %w", err)
	}
	return id, nil
}

// RevokeIdentity marks a token hash as signed out
func (s *Store) RevokeIdentity(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE identity SET revoked_at = $1
		WHERE token_hash = $2 AND revoked_at IS NULL
	`, s.now(), tokenHash)
	if err != nil {
		return fmt.Errorf("failed to revoke identity: %w", err)
	}
	return nil
}

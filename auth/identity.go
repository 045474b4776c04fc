// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSession is returned when a token does not map to a live identity
var ErrNoSession = errors.New("no active session")

// IdentityStore persists hashed identity tokens
type IdentityStore interface {
	CreateIdentity(ctx context.Context, tokenHash string) (string, error)
	IdentityByTokenHash(ctx context.Context, tokenHash string) (string, error)
	RevokeIdentity(ctx context.Context, tokenHash string) error
}

// IdentityProvider issues anonymous identities. A login returns a bearer
// token; the identity id behind it is stable until SignOut.
type IdentityProvider struct {
	store IdentityStore
	salt  string
}

func NewIdentityProvider(store IdentityStore, salt string) *IdentityProvider {
	return &IdentityProvider{store: store, salt: salt}
}

// CreateAnonymousIdentity issues a new token and returns it with the
// identity id it resolves to
func (p *IdentityProvider) CreateAnonymousIdentity(ctx context.Context) (token, identityID string, err error) {
	token, err = GenerateIdentityToken()
	if err != nil {
		return "", "", err
	}

	identityID, err = p.store.CreateIdentity(ctx, HashToken(token, p.salt))
	if err != nil {
		return "", "", fmt.Errorf("failed to create identity: %w", err)
	}
	return token, identityID, nil
}

// CurrentSession resolves a token to its identity id, or ErrNoSession
func (p *IdentityProvider) CurrentSession(ctx context.Context, token string) (string, error) {
	if err := ValidateTokenFormat(token); err != nil {
		return "", ErrNoSession
	}

	identityID, err := p.store.IdentityByTokenHash(ctx, HashToken(token, p.salt))
	if err != nil {
		return "", err
	}
	if identityID == "" {
		return "", ErrNoSession
	}
	return identityID, nil
}

// SignOut revokes the token. Signing out twice is not an error.
func (p *IdentityProvider) SignOut(ctx context.Context, token string) error {
	if err := ValidateTokenFormat(token); err != nil {
		return nil
	}
	return p.store.RevokeIdentity(ctx, HashToken(token, p.salt))
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/danielhkuo/villa-vote/auth"
	"github.com/danielhkuo/villa-vote/models"
	"github.com/danielhkuo/villa-vote/store"
)

// ProfileStore resolves the profile behind an identity on restore
type ProfileStore interface {
	ProfileByIdentity(ctx context.Context, identityRef string) (models.Profile, error)
}

// Manager owns one Controller per identity token
type Manager struct {
	deps     Deps
	profiles ProfileStore

	root   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Controller
}

func NewManager(deps Deps, profiles ProfileStore) *Manager {
	root, cancel := context.WithCancel(context.Background())
	return &Manager{
		deps:     deps,
		profiles: profiles,
		root:     root,
		cancel:   cancel,
		sessions: make(map[string]*Controller),
	}
}

// Login creates an anonymous identity and a profile for username, and
// returns the identity token with the GroupSelect view
func (m *Manager) Login(ctx context.Context, username string) (string, models.SessionView, error) {
	// Reject before creating anything
	if _, err := ValidateUsername(username); err != nil {
		return "", models.SessionView{Screen: models.ScreenSignedOut}, err
	}

	token, identityID, err := m.deps.Identity.CreateAnonymousIdentity(ctx)
	if err != nil {
		return "", models.SessionView{Screen: models.ScreenSignedOut}, fmt.Errorf("failed to create identity: %w", err)
	}

	ctrl := newController(m.root, m.deps, token)
	view, err := ctrl.Login(ctx, identityID, username)
	if err != nil {
		return "", view, err
	}

	m.mu.Lock()
	m.sessions[token] = ctrl
	m.mu.Unlock()

	return token, view, nil
}

// Get returns the controller for token, restoring one from the identity
// provider if this process has not seen the token yet
func (m *Manager) Get(ctx context.Context, token string) (*Controller, error) {
	m.mu.Lock()
	ctrl, ok := m.sessions[token]
	m.mu.Unlock()
	if ok {
		return ctrl, nil
	}

	identityID, err := m.deps.Identity.CurrentSession(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := m.profiles.ProfileByIdentity(ctx, identityID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, auth.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another request may have restored it first
	if existing, ok := m.sessions[token]; ok {
		return existing, nil
	}

	ctrl = newController(m.root, m.deps, token)
	ctrl.Restore(profile)
	m.sessions[token] = ctrl

	slog.Info("Session restored", "profile_id", profile.ID)
	return ctrl, nil
}

// Logout signs the token out and forgets its controller
func (m *Manager) Logout(ctx context.Context, token string) (models.SessionView, error) {
	ctrl, err := m.Get(ctx, token)
	if err != nil {
		return models.SessionView{Screen: models.ScreenSignedOut}, err
	}

	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()

	return ctrl.Logout(ctx)
}

// Len reports the number of live controllers
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops every controller's background work
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Controller, 0, len(m.sessions))
	for _, ctrl := range m.sessions {
		sessions = append(sessions, ctrl)
	}
	m.mu.Unlock()

	for _, ctrl := range sessions {
		ctrl.stop()
	}
	m.cancel()
}

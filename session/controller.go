// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/villa-vote/aggregate"
	"github.com/danielhkuo/villa-vote/auth"
	"github.com/danielhkuo/villa-vote/completion"
	"github.com/danielhkuo/villa-vote/models"
	"github.com/danielhkuo/villa-vote/realtime"
	"github.com/danielhkuo/villa-vote/store"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidUsername   = errors.New("username is required")
	ErrInvalidGroupName  = errors.New("group name is required")
	ErrGroupNotFound     = errors.New("group not found")
	ErrInvalidStars      = fmt.Errorf("stars must be between %d and %d", models.MinStars, models.MaxStars)
	ErrNotRated          = errors.New("current villa has not been rated")
	ErrUnknownVilla      = errors.New("villa is not in the results")
)

// Input limits
const (
	MaxUsernameLength  = 50
	MaxGroupNameLength = 100
)

// MaxJoinCodeAttempts bounds retries when a generated join code collides
const MaxJoinCodeAttempts = 5

// Store is everything a controller reads or writes
type Store interface {
	completion.Source
	aggregate.Source

	UpsertProfile(ctx context.Context, identityRef, username string) (models.Profile, error)
	CreateGroup(ctx context.Context, name, creatorID, joinCode string) (models.Group, error)
	GroupByJoinCode(ctx context.Context, joinCode string) (models.Group, error)
	SetGroupStatus(ctx context.Context, groupID, status string) error
	AddMember(ctx context.Context, groupID, profileID string) (bool, error)
	RepairCreatorMembership(ctx context.Context, groupID string) (bool, error)
	UpsertRating(ctx context.Context, r models.Rating) (models.Rating, error)
	RatingsByProfile(ctx context.Context, groupID, profileID string) (map[string]int, error)
}

// Deps are shared by every controller a Manager creates
type Deps struct {
	Store          Store
	Identity       *auth.IdentityProvider
	Broker         *realtime.Broker
	Engine         *aggregate.Engine
	PollInterval   time.Duration
	PollMaxBackoff time.Duration

	// JoinCodes generates join codes; defaults to auth.GenerateJoinCode
	JoinCodes func() (string, error)
}

// Controller is one member's session. Every event runs under mu, so a
// session sees its own events one at a time. Background work (the lobby
// member watch, the completion poller) belongs to the current state and is
// cancelled on every transition; gen lets late callbacks notice they are
// stale.
type Controller struct {
	deps  Deps
	token string
	root  context.Context

	mu      sync.Mutex
	profile *models.Profile
	st      state
	gen     uint64
	stopBG  context.CancelFunc
}

func newController(root context.Context, deps Deps, token string) *Controller {
	if deps.JoinCodes == nil {
		deps.JoinCodes = auth.GenerateJoinCode
	}
	return &Controller{
		deps:  deps,
		token: token,
		root:  root,
		st:    &signedOutState{},
	}
}

// View returns the current screen
func (c *Controller) View() models.SessionView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return render(c.st, c.profile)
}

func (c *Controller) viewLocked() models.SessionView {
	return render(c.st, c.profile)
}

// enter switches state, cancelling the old state's background work and
// starting the new one's. Callers hold mu.
func (c *Controller) enter(st state) {
	c.gen++
	if c.stopBG != nil {
		c.stopBG()
		c.stopBG = nil
	}
	c.st = st

	switch s := st.(type) {
	case *lobbyState:
		c.watchLobby(s.group.ID, c.gen)
	case *waitingState:
		c.watchCompletion(s.group.ID, len(s.catalog), c.gen)
	}
}

// Login attaches a profile to a fresh identity: SignedOut → GroupSelect
func (c *Controller) Login(ctx context.Context, identityID, username string) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.st.(*signedOutState); !ok {
		return c.viewLocked(), ErrInvalidTransition
	}

	username, err := ValidateUsername(username)
	if err != nil {
		return c.viewLocked(), err
	}

	profile, err := c.deps.Store.UpsertProfile(ctx, identityID, username)
	if err != nil {
		return c.viewLocked(), fmt.Errorf("failed to create profile: %w", err)
	}

	c.profile = &profile
	c.enter(&groupSelectState{})

	slog.Info("Profile signed in", "profile_id", profile.ID, "username", profile.Username)
	return c.viewLocked(), nil
}

// Restore resumes a known profile after a server restart: SignedOut → GroupSelect
func (c *Controller) Restore(profile models.Profile) models.SessionView {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.profile = &profile
	c.enter(&groupSelectState{})
	return c.viewLocked()
}

// CreateGroup creates a group with a fresh join code: GroupSelect → Lobby
func (c *Controller) CreateGroup(ctx context.Context, name string) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.st.(*groupSelectState); !ok {
		return c.viewLocked(), ErrInvalidTransition
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxGroupNameLength {
		return c.viewLocked(), ErrInvalidGroupName
	}

	var (
		group models.Group
		err   error
	)
	for attempt := 1; attempt <= MaxJoinCodeAttempts; attempt++ {
		var code string
		code, err = c.deps.JoinCodes()
		if err != nil {
			return c.viewLocked(), fmt.Errorf("failed to generate join code: %w", err)
		}

		group, err = c.deps.Store.CreateGroup(ctx, name, c.profile.ID, code)
		if !errors.Is(err, store.ErrJoinCodeTaken) {
			break
		}
		slog.Warn("Join code collision, retrying", "attempt", attempt)
	}
	if err != nil {
		return c.viewLocked(), fmt.Errorf("failed to create group: %w", err)
	}

	slog.Info("Group created", "group_id", group.ID, "join_code", group.JoinCode, "creator_id", c.profile.ID)

	if err := c.openLobby(ctx, group); err != nil {
		return c.viewLocked(), err
	}
	return c.viewLocked(), nil
}

// JoinGroup joins by join code: GroupSelect → Lobby. Joining twice is a no-op.
func (c *Controller) JoinGroup(ctx context.Context, joinCode string) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.st.(*groupSelectState); !ok {
		return c.viewLocked(), ErrInvalidTransition
	}

	joinCode = auth.NormalizeJoinCode(joinCode)
	if err := auth.ValidateJoinCode(joinCode); err != nil {
		return c.viewLocked(), err
	}

	group, err := c.deps.Store.GroupByJoinCode(ctx, joinCode)
	if errors.Is(err, store.ErrNotFound) {
		return c.viewLocked(), ErrGroupNotFound
	}
	if err != nil {
		return c.viewLocked(), fmt.Errorf("failed to find group: %w", err)
	}

	inserted, err := c.deps.Store.AddMember(ctx, group.ID, c.profile.ID)
	if err != nil {
		return c.viewLocked(), fmt.Errorf("failed to join group: %w", err)
	}
	if inserted {
		slog.Info("Member joined group", "group_id", group.ID, "profile_id", c.profile.ID)
		c.deps.Broker.Publish(ctx, realtime.Event{
			Kind:      realtime.KindMemberJoined,
			GroupID:   group.ID,
			ProfileID: c.profile.ID,
		})
	}

	if err := c.openLobby(ctx, group); err != nil {
		return c.viewLocked(), err
	}
	return c.viewLocked(), nil
}

// openLobby repairs the creator's membership, loads members and enters Lobby
func (c *Controller) openLobby(ctx context.Context, group models.Group) error {
	repaired, err := c.deps.Store.RepairCreatorMembership(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("failed to repair membership: %w", err)
	}
	if repaired {
		slog.Warn("Repaired missing creator membership", "group_id", group.ID, "creator_id", group.CreatorID)
	}

	members, err := c.deps.Store.ListMembers(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("failed to load members: %w", err)
	}

	c.enter(&lobbyState{group: group, members: members})
	return nil
}

// RefreshMembers re-reads the lobby's member list
func (c *Controller) RefreshMembers(ctx context.Context) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, ok := c.st.(*lobbyState)
	if !ok {
		return c.viewLocked(), ErrInvalidTransition
	}

	members, err := c.deps.Store.ListMembers(ctx, lobby.group.ID)
	if err != nil {
		return c.viewLocked(), fmt.Errorf("failed to load members: %w", err)
	}
	lobby.members = members
	return c.viewLocked(), nil
}

// LeaveGroup returns to group selection. Membership rows are kept.
func (c *Controller) LeaveGroup(ctx context.Context) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.st.(*lobbyState); !ok {
		return c.viewLocked(), ErrInvalidTransition
	}
	c.enter(&groupSelectState{})
	return c.viewLocked(), nil
}

// StartRating loads the catalog and begins at the first villa: Lobby → Rating.
// An empty catalog goes straight to Waiting.
func (c *Controller) StartRating(ctx context.Context) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, ok := c.st.(*lobbyState)
	if !ok {
		return c.viewLocked(), ErrInvalidTransition
	}
	group := lobby.group

	catalog, err := c.deps.Store.ListVillas(ctx)
	if err != nil {
		return c.viewLocked(), fmt.Errorf("failed to load villas: %w", err)
	}

	mine, err := c.deps.Store.RatingsByProfile(ctx, group.ID, c.profile.ID)
	if err != nil {
		return c.viewLocked(), fmt.Errorf("failed to load ratings: %w", err)
	}
	if mine == nil {
		mine = make(map[string]int)
	}

	if group.Status == models.StatusLobby {
		if err := c.deps.Store.SetGroupStatus(ctx, group.ID, models.StatusRating); err != nil {
			slog.Warn("Failed to update group status", "group_id", group.ID, "error", err)
		} else {
			group.Status = models.StatusRating
		}
	}

	if len(catalog) == 0 {
		c.enter(&waitingState{group: group})
		return c.viewLocked(), nil
	}

	c.enter(&ratingState{group: group, catalog: catalog, mine: mine})
	slog.Info("Rating started", "group_id", group.ID, "profile_id", c.profile.ID, "villas", len(catalog))
	return c.viewLocked(), nil
}

// SubmitRating upserts stars for the current villa and unlocks Next
func (c *Controller) SubmitRating(ctx context.Context, stars int) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rating, ok := c.st.(*ratingState)
	if !ok {
		return c.viewLocked(), ErrInvalidTransition
	}
	if !models.ValidStars(stars) {
		return c.viewLocked(), ErrInvalidStars
	}

	villa := rating.current()
	_, err := c.deps.Store.UpsertRating(ctx, models.Rating{
		GroupID:   rating.group.ID,
		VillaID:   villa.ID,
		ProfileID: c.profile.ID,
		Stars:     stars,
	})
	if err != nil {
		return c.viewLocked(), fmt.Errorf("failed to save rating: %w", err)
	}

	rating.mine[villa.ID] = stars
	rating.hasRatedCurrent = true

	c.deps.Broker.Publish(ctx, realtime.Event{
		Kind:      realtime.KindRatingSaved,
		GroupID:   rating.group.ID,
		ProfileID: c.profile.ID,
		VillaID:   villa.ID,
	})

	return c.viewLocked(), nil
}

// Next advances to the following villa, or to Waiting after the last one
func (c *Controller) Next(ctx context.Context) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rating, ok := c.st.(*ratingState)
	if !ok {
		return c.viewLocked(), ErrInvalidTransition
	}
	if !rating.hasRatedCurrent {
		return c.viewLocked(), ErrNotRated
	}

	if rating.last() {
		c.enter(&waitingState{group: rating.group, catalog: rating.catalog})
		return c.viewLocked(), nil
	}

	rating.index++
	rating.hasRatedCurrent = false
	return c.viewLocked(), nil
}

// Refresh re-runs aggregation on the Results screen
func (c *Controller) Refresh(ctx context.Context) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, ok := c.st.(*resultsState)
	if !ok {
		return c.viewLocked(), ErrInvalidTransition
	}

	results, err := c.deps.Engine.Compute(ctx, res.group.ID)
	if err != nil {
		return c.viewLocked(), fmt.Errorf("failed to compute results: %w", err)
	}
	res.results = results
	return c.viewLocked(), nil
}

// ViewItem opens one result: Results → ItemDetail
func (c *Controller) ViewItem(ctx context.Context, villaID string) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, ok := c.st.(*resultsState)
	if !ok {
		return c.viewLocked(), ErrInvalidTransition
	}

	for _, r := range res.results {
		if r.Villa.ID == villaID {
			c.enter(&itemDetailState{from: res, item: r})
			return c.viewLocked(), nil
		}
	}
	return c.viewLocked(), ErrUnknownVilla
}

// Back returns from ItemDetail to Results
func (c *Controller) Back(ctx context.Context) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	detail, ok := c.st.(*itemDetailState)
	if !ok {
		return c.viewLocked(), ErrInvalidTransition
	}
	c.enter(detail.from)
	return c.viewLocked(), nil
}

// Home drops the current group and returns to group selection
func (c *Controller) Home(ctx context.Context) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.st.(*signedOutState); ok {
		return c.viewLocked(), ErrInvalidTransition
	}
	c.enter(&groupSelectState{})
	return c.viewLocked(), nil
}

// Logout stops background work, revokes the identity and resets to SignedOut
func (c *Controller) Logout(ctx context.Context) (models.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.st.(*signedOutState); ok {
		return c.viewLocked(), ErrInvalidTransition
	}

	c.enter(&signedOutState{})
	c.profile = nil

	if err := c.deps.Identity.SignOut(ctx, c.token); err != nil {
		return c.viewLocked(), fmt.Errorf("failed to sign out: %w", err)
	}
	return c.viewLocked(), nil
}

// stop cancels background work without changing state
func (c *Controller) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.stopBG != nil {
		c.stopBG()
		c.stopBG = nil
	}
}

// ValidateUsername trims and checks a display name
func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > MaxUsernameLength {
		return "", ErrInvalidUsername
	}
	return username, nil
}

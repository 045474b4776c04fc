// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"github.com/danielhkuo/villa-vote/completion"
	"github.com/danielhkuo/villa-vote/models"
)

// state is one screen and the data that screen needs. Only the types below
// implement it, so a controller is always on exactly one of them.
type state interface {
	screen() string
}

type signedOutState struct{}

type groupSelectState struct{}

type lobbyState struct {
	group   models.Group
	members []models.Profile
}

// ratingState always has a current villa: catalog is non-empty and index
// is in range.
type ratingState struct {
	group           models.Group
	catalog         []models.Villa
	index           int
	hasRatedCurrent bool
	mine            map[string]int // villa id → my stars
}

type waitingState struct {
	group    models.Group
	catalog  []models.Villa
	progress completion.Progress
}

type resultsState struct {
	group   models.Group
	results []models.VillaResult
	mine    map[string]int
}

type itemDetailState struct {
	from *resultsState
	item models.VillaResult
}

func (*signedOutState) screen() string   { return models.ScreenSignedOut }
func (*groupSelectState) screen() string { return models.ScreenGroupSelect }
func (*lobbyState) screen() string       { return models.ScreenLobby }
func (*ratingState) screen() string      { return models.ScreenRating }
func (*waitingState) screen() string     { return models.ScreenWaiting }
func (*resultsState) screen() string     { return models.ScreenResults }
func (*itemDetailState) screen() string  { return models.ScreenItemDetail }

func (s *ratingState) current() models.Villa {
	return s.catalog[s.index]
}

func (s *ratingState) last() bool {
	return s.index >= len(s.catalog)-1
}

func starsFor(mine map[string]int, villaID string) *int {
	stars, ok := mine[villaID]
	if !ok {
		return nil
	}
	return &stars
}

// render builds the JSON view of st for profile
func render(st state, profile *models.Profile) models.SessionView {
	view := models.SessionView{Screen: st.screen()}
	if profile != nil {
		p := *profile
		view.Profile = &p
	}

	switch s := st.(type) {
	case *lobbyState:
		g := s.group
		view.Group = &g
		view.Lobby = &models.LobbyView{
			Members:   append([]models.Profile(nil), s.members...),
			IsCreator: profile != nil && s.group.CreatorID == profile.ID,
		}

	case *ratingState:
		g := s.group
		view.Group = &g
		villa := s.current()
		view.Rating = &models.RatingView{
			Index:           s.index,
			Total:           len(s.catalog),
			Villa:           villa,
			HasRatedCurrent: s.hasRatedCurrent,
			MyStars:         starsFor(s.mine, villa.ID),
		}

	case *waitingState:
		g := s.group
		view.Group = &g
		view.Waiting = &models.WaitingView{
			FinishedCount: s.progress.FinishedCount(),
			MemberCount:   s.progress.MemberCount,
		}

	case *resultsState:
		g := s.group
		view.Group = &g
		view.Results = append([]models.VillaResult{}, s.results...)

	case *itemDetailState:
		g := s.from.group
		view.Group = &g
		view.Item = &models.ItemDetailView{
			Result:  s.item,
			MyStars: starsFor(s.from.mine, s.item.Villa.ID),
		}
	}

	return view
}

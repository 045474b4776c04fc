// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// Screen names reported in a SessionView
const (
	ScreenSignedOut   = "signed_out"
	ScreenGroupSelect = "group_select"
	ScreenLobby       = "lobby"
	ScreenRating      = "rating"
	ScreenWaiting     = "waiting"
	ScreenResults     = "results"
	ScreenItemDetail  = "item_detail"
)

// SessionView is the JSON snapshot of one member's session. Exactly one of
// the screen payloads is set, matching Screen.
type SessionView struct {
	Screen  string   `json:"screen"`
	Profile *Profile `json:"profile,omitempty"`
	Group   *Group   `json:"group,omitempty"`

	Lobby   *LobbyView      `json:"lobby,omitempty"`
	Rating  *RatingView     `json:"rating,omitempty"`
	Waiting *WaitingView    `json:"waiting,omitempty"`
	Results []VillaResult   `json:"results,omitempty"`
	Item    *ItemDetailView `json:"item,omitempty"`
}

type LobbyView struct {
	Members   []Profile `json:"members"`
	IsCreator bool      `json:"is_creator"`
}

type RatingView struct {
	Index           int   `json:"index"`
	Total           int   `json:"total"`
	Villa           Villa `json:"villa"`
	HasRatedCurrent bool  `json:"has_rated_current"`
	MyStars         *int  `json:"my_stars,omitempty"`
}

type WaitingView struct {
	FinishedCount int `json:"finished_count"`
	MemberCount   int `json:"member_count"`
}

type ItemDetailView struct {
	Result  VillaResult `json:"result"`
	MyStars *int        `json:"my_stars,omitempty"`
}

package models

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Group status hints. Members start rating independently, so status never
// gates a transition.
const (
	StatusLobby    = "lobby"
	StatusRating   = "rating"
	StatusFinished = "finished"
)

// Star bounds for a rating
const (
	MinStars = 1
	MaxStars = 5
)

// UnknownMember is shown for votes whose profile lookup missed.
const UnknownMember = "Unknown"

// Request types

type LoginRequest struct {
	Username string `json:"username"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type JoinGroupRequest struct {
	JoinCode string `json:"join_code"`
}

type SubmitRatingRequest struct {
	Stars int `json:"stars"`
}

// Response types

type LoginResponse struct {
	IdentityToken string      `json:"identity_token"`
	Profile       Profile     `json:"profile"`
	Session       SessionView `json:"session"`
}

type ProgressResponse struct {
	GroupID     string   `json:"group_id"`
	Finished    []string `json:"finished"`
	FinishedCnt int      `json:"finished_count"`
	MemberCount int      `json:"member_count"`
	ItemCount   int      `json:"item_count"`
	Complete    bool     `json:"complete"`
}

type ResultsResponse struct {
	GroupID string        `json:"group_id"`
	Results []VillaResult `json:"results"`
}

type MembersResponse struct {
	GroupID string    `json:"group_id"`
	Members []Profile `json:"members"`
}

// Domain types

type Profile struct {
	ID          string    `json:"id"`
	IdentityRef string    `json:"-"`
	Username    string    `json:"username"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	JoinCode  string    `json:"join_code"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupMember struct {
	GroupID   string    `json:"group_id"`
	ProfileID string    `json:"profile_id"`
	JoinedAt  time.Time `json:"joined_at"`
}

type Villa struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	Country               string           `json:"country"`
	City                  string           `json:"city"`
	Address               *string          `json:"address,omitempty"`
	Link                  string           `json:"link"`
	Images                []string         `json:"images"`
	AdditionalInformation *string          `json:"additional_information,omitempty"`
	DateRanges            []VillaDateRange `json:"date_ranges"`
	CreatedAt             time.Time        `json:"created_at"`
}

// Location joins city and country for display.
func (v Villa) Location() string {
	switch {
	case v.City == "":
		return v.Country
	case v.Country == "":
		return v.City
	}
	return v.City + ", " + v.Country
}

type VillaDateRange struct {
	ID        string    `json:"id"`
	VillaID   string    `json:"villa_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	PriceMin  int64     `json:"price_min"`
	PriceMax  *int64    `json:"price_max,omitempty"`

	PriceLabel string `json:"price_label"`
}

// FormatPrice formats the price span with thousands separators, e.g.
// "1,200 - 1,850" or "1,200" when there is no upper bound.
func (d VillaDateRange) FormatPrice() string {
	if d.PriceMax == nil || *d.PriceMax == d.PriceMin {
		return humanize.Comma(d.PriceMin)
	}
	return humanize.Comma(d.PriceMin) + " - " + humanize.Comma(*d.PriceMax)
}

// Rating is keyed by (GroupID, VillaID, ProfileID); a later write for the
// same key replaces Stars.
type Rating struct {
	GroupID   string    `json:"group_id"`
	VillaID   string    `json:"villa_id"`
	ProfileID string    `json:"profile_id"`
	Stars     int       `json:"stars"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidStars reports whether stars is in [MinStars, MaxStars].
func ValidStars(stars int) bool {
	return stars >= MinStars && stars <= MaxStars
}

// Aggregation result types

type MemberVote struct {
	ProfileID   string `json:"profile_id"`
	DisplayName string `json:"display_name"`
	Stars       int    `json:"stars"`
}

type VillaResult struct {
	Villa     Villa        `json:"villa"`
	AvgRating float64      `json:"avg_rating"`
	Votes     []MemberVote `json:"votes"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

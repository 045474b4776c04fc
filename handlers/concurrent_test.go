// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/villa-vote/models"
	"github.com/danielhkuo/villa-vote/testutil"
)

// TestConcurrentRatings verifies that simultaneous rating submissions from
// different members each land exactly one row
func TestConcurrentRatings(t *testing.T) {
	app := setupApp(t)

	villaID := testutil.AddTestVilla(t, app.conn, "Villa One")

	creator := app.login(t, "Creator")
	lobby := decodeView(t, call(app.sessions.CreateGroup, "POST", "/session/groups", creator, models.CreateGroupRequest{Name: "Busy"}), http.StatusOK)

	numMembers := 10
	tokens := make([]string, numMembers)
	for i := range tokens {
		tokens[i] = app.login(t, "Member"+string(rune('A'+i)))
		decodeView(t, call(app.sessions.JoinGroup, "POST", "/session/join", tokens[i], models.JoinGroupRequest{JoinCode: lobby.Group.JoinCode}), http.StatusOK)
		decodeView(t, call(app.sessions.StartRating, "POST", "/session/start", tokens[i], nil), http.StatusOK)
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i, token := range tokens {
		wg.Add(1)
		go func(stars int, token string) {
			defer wg.Done()
			w := call(app.sessions.SubmitRating, "POST", "/session/ratings", token, models.SubmitRatingRequest{Stars: stars})
			if w.Code == http.StatusOK {
				successCount.Add(1)
			}
		}(i%5+1, token)
	}
	wg.Wait()

	if got := successCount.Load(); got != int32(numMembers) {
		t.Errorf("Expected %d successful submissions, got %d", numMembers, got)
	}

	ratings, err := app.store.ListRatings(context.Background(), lobby.Group.ID)
	if err != nil {
		t.Fatalf("ListRatings failed: %v", err)
	}
	if len(ratings) != numMembers {
		t.Errorf("Expected %d rating rows, got %d", numMembers, len(ratings))
	}
	for _, r := range ratings {
		if r.VillaID != villaID {
			t.Errorf("Rating for unexpected villa %s", r.VillaID)
		}
	}
}

// TestConcurrentJoins verifies that members joining at the same time are
// all recorded alongside the creator
func TestConcurrentJoins(t *testing.T) {
	app := setupApp(t)

	creator := app.login(t, "Creator")
	lobby := decodeView(t, call(app.sessions.CreateGroup, "POST", "/session/groups", creator, models.CreateGroupRequest{Name: "Crowd"}), http.StatusOK)

	joiners := make([]string, 6)
	for i := range joiners {
		joiners[i] = app.login(t, "Joiner"+string(rune('A'+i)))
	}

	var wg sync.WaitGroup
	for _, token := range joiners {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			call(app.sessions.JoinGroup, "POST", "/session/join", token, models.JoinGroupRequest{JoinCode: lobby.Group.JoinCode})
		}(token)
	}
	wg.Wait()

	n, err := app.store.CountMembers(context.Background(), lobby.Group.ID)
	if err != nil {
		t.Fatalf("CountMembers failed: %v", err)
	}
	if n != len(joiners)+1 {
		t.Errorf("Expected %d members, got %d", len(joiners)+1, n)
	}
}

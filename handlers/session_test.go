// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/villa-vote/models"
	"github.com/danielhkuo/villa-vote/testutil"
)

func TestLogin(t *testing.T) {
	app := setupApp(t)

	t.Run("valid username", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/session/login", models.LoginRequest{Username: "Alice"}, nil)
		w := httptest.NewRecorder()
		app.sessions.Login(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.LoginResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Profile.Username != "Alice" {
			t.Errorf("Expected username Alice, got %q", resp.Profile.Username)
		}
		if resp.Session.Screen != models.ScreenGroupSelect {
			t.Errorf("Expected group_select, got %s", resp.Session.Screen)
		}
	})

	t.Run("empty username", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/session/login", models.LoginRequest{Username: "  "}, nil)
		w := httptest.NewRecorder()
		app.sessions.Login(w, req)

		if msg := decodeError(t, w, http.StatusBadRequest); msg != "Username is required" {
			t.Errorf("Unexpected message %q", msg)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/session/login", nil)
		w := httptest.NewRecorder()
		app.sessions.Login(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestSessionRequiresToken(t *testing.T) {
	app := setupApp(t)

	w := call(app.sessions.GetSession, "GET", "/session", "", nil)
	if msg := decodeError(t, w, http.StatusUnauthorized); msg != "Identity token required" {
		t.Errorf("Unexpected message %q", msg)
	}

	w = call(app.sessions.GetSession, "GET", "/session", "bogus-token", nil)
	if msg := decodeError(t, w, http.StatusUnauthorized); msg != "No active session" {
		t.Errorf("Unexpected message %q", msg)
	}
}

func TestJoinGroupErrors(t *testing.T) {
	app := setupApp(t)
	token := app.login(t, "Bob")

	tests := []struct {
		name   string
		code   string
		status int
	}{
		{"malformed", "AB-1", http.StatusBadRequest},
		{"unknown", "ZZZZZ9", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(app.sessions.JoinGroup, "POST", "/session/join", token, models.JoinGroupRequest{JoinCode: tt.code})
			if msg := decodeError(t, w, tt.status); msg != "Invalid join code" {
				t.Errorf("Expected 'Invalid join code', got %q", msg)
			}
		})
	}

	// Still on group selection after failures
	view := decodeView(t, call(app.sessions.GetSession, "GET", "/session", token, nil), http.StatusOK)
	if view.Screen != models.ScreenGroupSelect {
		t.Errorf("Expected group_select, got %s", view.Screen)
	}
}

func TestInvalidTransitionIsConflict(t *testing.T) {
	app := setupApp(t)
	token := app.login(t, "Alice")

	w := call(app.sessions.Next, "POST", "/session/next", token, nil)
	decodeError(t, w, http.StatusConflict)

	w = call(app.sessions.Back, "POST", "/session/back", token, nil)
	decodeError(t, w, http.StatusConflict)
}

// TestFullRatingWorkflow covers the whole flow over HTTP:
// 1. Two members log in
// 2. Alice creates a group, Bob joins with the code
// 3. Both rate every villa
// 4. Both sessions reach results
// 5. Alice opens a villa and goes back
// 6. Alice logs out
func TestFullRatingWorkflow(t *testing.T) {
	app := setupApp(t)

	v1 := testutil.AddTestVilla(t, app.conn, "Villa One")
	v2 := testutil.AddTestVilla(t, app.conn, "Villa Two")
	v3 := testutil.AddTestVilla(t, app.conn, "Villa Three")

	// Step 1
	alice := app.login(t, "Alice")
	bob := app.login(t, "Bob")

	// Step 2
	lobby := decodeView(t, call(app.sessions.CreateGroup, "POST", "/session/groups", alice, models.CreateGroupRequest{Name: "Tuscany"}), http.StatusOK)
	if lobby.Screen != models.ScreenLobby || !lobby.Lobby.IsCreator {
		t.Fatalf("Unexpected lobby for Alice: %+v", lobby)
	}
	joinCode := lobby.Group.JoinCode

	view := decodeView(t, call(app.sessions.JoinGroup, "POST", "/session/join", bob, models.JoinGroupRequest{JoinCode: joinCode}), http.StatusOK)
	if view.Screen != models.ScreenLobby || len(view.Lobby.Members) != 2 {
		t.Fatalf("Unexpected lobby for Bob: %+v", view.Lobby)
	}

	view = decodeView(t, call(app.sessions.RefreshMembers, "POST", "/session/members/refresh", alice, nil), http.StatusOK)
	if len(view.Lobby.Members) != 2 {
		t.Errorf("Expected 2 members after refresh, got %d", len(view.Lobby.Members))
	}

	// Step 3
	// v1: [5, 1] = 3.0, v2: [2, 2] = 2.0, v3: [4, 5] = 4.5
	ratings := map[string][]int{
		alice: {5, 2, 4},
		bob:   {1, 2, 5},
	}
	for token, stars := range ratings {
		view := decodeView(t, call(app.sessions.StartRating, "POST", "/session/start", token, nil), http.StatusOK)
		if view.Screen != models.ScreenRating || view.Rating.Total != 3 {
			t.Fatalf("Unexpected rating view: %+v", view.Rating)
		}

		decodeError(t, call(app.sessions.Next, "POST", "/session/next", token, nil), http.StatusConflict)
		decodeError(t, call(app.sessions.SubmitRating, "POST", "/session/ratings", token, models.SubmitRatingRequest{Stars: 6}), http.StatusBadRequest)

		for _, s := range stars {
			decodeView(t, call(app.sessions.SubmitRating, "POST", "/session/ratings", token, models.SubmitRatingRequest{Stars: s}), http.StatusOK)
			view = decodeView(t, call(app.sessions.Next, "POST", "/session/next", token, nil), http.StatusOK)
		}
		if view.Screen != models.ScreenWaiting && view.Screen != models.ScreenResults {
			t.Fatalf("Expected waiting after last villa, got %s", view.Screen)
		}
	}

	// Step 4
	var results models.SessionView
	for _, token := range []string{alice, bob} {
		testutil.Eventually(t, 3*time.Second, func() bool {
			results = decodeView(t, call(app.sessions.GetSession, "GET", "/session", token, nil), http.StatusOK)
			return results.Screen == models.ScreenResults
		})
	}

	wantOrder := []string{v3, v1, v2}
	for i, id := range wantOrder {
		if results.Results[i].Villa.ID != id {
			t.Errorf("results[%d] = %s, want %s", i, results.Results[i].Villa.Title, id)
		}
	}
	if results.Results[0].AvgRating != 4.5 {
		t.Errorf("Expected top average 4.5, got %f", results.Results[0].AvgRating)
	}

	view = decodeView(t, call(app.sessions.Refresh, "POST", "/session/refresh", alice, nil), http.StatusOK)
	if len(view.Results) != 3 {
		t.Errorf("Expected 3 results after refresh, got %d", len(view.Results))
	}

	// Step 5
	req := testutil.MakeRequest("POST", "/session/items/"+v1, nil, map[string]string{"X-Identity-Token": alice})
	req.SetPathValue("id", v1)
	w := httptest.NewRecorder()
	app.sessions.ViewItem(w, req)
	view = decodeView(t, w, http.StatusOK)
	if view.Screen != models.ScreenItemDetail || view.Item.Result.AvgRating != 3.0 {
		t.Fatalf("Unexpected item detail: %+v", view.Item)
	}
	if view.Item.MyStars == nil || *view.Item.MyStars != 5 {
		t.Errorf("Expected my stars 5, got %v", view.Item.MyStars)
	}

	view = decodeView(t, call(app.sessions.Back, "POST", "/session/back", alice, nil), http.StatusOK)
	if view.Screen != models.ScreenResults {
		t.Errorf("Expected results after back, got %s", view.Screen)
	}

	view = decodeView(t, call(app.sessions.Home, "POST", "/session/home", alice, nil), http.StatusOK)
	if view.Screen != models.ScreenGroupSelect {
		t.Errorf("Expected group_select after home, got %s", view.Screen)
	}

	// Step 6
	view = decodeView(t, call(app.sessions.Logout, "POST", "/session/logout", alice, nil), http.StatusOK)
	if view.Screen != models.ScreenSignedOut {
		t.Errorf("Expected signed_out, got %s", view.Screen)
	}
	decodeError(t, call(app.sessions.GetSession, "GET", "/session", alice, nil), http.StatusUnauthorized)
}

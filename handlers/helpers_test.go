// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/villa-vote/aggregate"
	"github.com/danielhkuo/villa-vote/auth"
	"github.com/danielhkuo/villa-vote/middleware"
	"github.com/danielhkuo/villa-vote/models"
	"github.com/danielhkuo/villa-vote/realtime"
	"github.com/danielhkuo/villa-vote/session"
	"github.com/danielhkuo/villa-vote/store"
	"github.com/danielhkuo/villa-vote/testutil"
)

// testApp wires the handlers over an in-memory database
type testApp struct {
	conn     *sql.DB
	store    *store.Store
	sessions *SessionHandler
	catalog  *CatalogHandler
	groups   *GroupHandler
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	t.Cleanup(func() { conn.Close() })

	cfg := testutil.GetTestConfig()
	st := store.New(conn)
	engine := aggregate.NewEngine(st)

	mgr := session.NewManager(session.Deps{
		Store:          st,
		Identity:       auth.NewIdentityProvider(st, cfg.IdentitySalt),
		Broker:         realtime.NewBroker(nil),
		Engine:         engine,
		PollInterval:   cfg.PollInterval,
		PollMaxBackoff: cfg.PollMaxBackoff,
	}, st)
	t.Cleanup(mgr.Close)

	return &testApp{
		conn:     conn,
		store:    st,
		sessions: NewSessionHandler(mgr),
		catalog:  NewCatalogHandler(st),
		groups:   NewGroupHandler(st, engine, cfg),
	}
}

// login signs a user in through the handler and returns the identity token
func (a *testApp) login(t *testing.T, username string) string {
	t.Helper()

	req := testutil.MakeRequest("POST", "/session/login", models.LoginRequest{Username: username}, nil)
	w := httptest.NewRecorder()
	a.sessions.Login(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Login(%q) failed: %d - %s", username, w.Code, w.Body.String())
	}

	var resp models.LoginResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.IdentityToken == "" {
		t.Fatal("Login returned no identity token")
	}
	return resp.IdentityToken
}

// call runs one session handler as the given identity
func call(h http.HandlerFunc, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	headers := map[string]string{}
	if token != "" {
		headers[middleware.IdentityHeader] = token
	}
	req := testutil.MakeRequest(method, path, body, headers)
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// decodeView asserts the status and decodes the session view
func decodeView(t *testing.T, w *httptest.ResponseRecorder, status int) models.SessionView {
	t.Helper()
	if w.Code != status {
		t.Fatalf("Expected status %d, got %d. Body: %s", status, w.Code, w.Body.String())
	}
	var view models.SessionView
	testutil.AssertJSON(t, w, &view)
	return view
}

// decodeError asserts the status and returns the error message
func decodeError(t *testing.T, w *httptest.ResponseRecorder, status int) string {
	t.Helper()
	if w.Code != status {
		t.Fatalf("Expected status %d, got %d. Body: %s", status, w.Code, w.Body.String())
	}
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	return resp.Message
}

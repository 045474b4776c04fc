// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/villa-vote/cliparse"
	"github.com/danielhkuo/villa-vote/db"
	"github.com/google/uuid"
)

// TestDBURL is an in-memory SQLite database; each SetupTestDB call gets its own
const TestDBURL = ":memory:"

// SetupTestDB creates a fresh test database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    TestDBURL,
		DatabaseType:   "sqlite",
		IdentitySalt:   "test-identity-salt",
		PollInterval:   20 * time.Millisecond,
		PollMaxBackoff: 100 * time.Millisecond,
		KafkaTopic:     cliparse.DefaultKafkaTopic,
		LogLevel:       "info",
	}
}

// CreateTestProfile inserts a profile and returns its ID
func CreateTestProfile(t *testing.T, conn *sql.DB, username string) string {
	t.Helper()

	profileID := uuid.NewString()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO profile (id, identity_ref, username, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`, profileID, uuid.NewString(), username, now)
	if err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}

	return profileID
}

// CreateTestGroup inserts a group with the creator as its first member and
// returns the group ID
func CreateTestGroup(t *testing.T, conn *sql.DB, creatorID, joinCode string) string {
	t.Helper()

	groupID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO rating_group (id, name, creator_id, join_code, status, created_at)
		VALUES ($1, 'Test Group', $2, $3, 'lobby', $4)
	`, groupID, creatorID, joinCode, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test group: %v", err)
	}

	AddTestMember(t, conn, groupID, creatorID)
	return groupID
}

// AddTestMember adds a profile to a group
func AddTestMember(t *testing.T, conn *sql.DB, groupID, profileID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO group_member (group_id, profile_id, joined_at)
		VALUES ($1, $2, $3)
	`, groupID, profileID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to add test member: %v", err)
	}
}

// AddTestVilla inserts a catalog item. Villas are spaced one second apart so
// catalog order follows insertion order.
func AddTestVilla(t *testing.T, conn *sql.DB, title string) string {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM villa`).Scan(&n); err != nil {
		t.Fatalf("Failed to count villas: %v", err)
	}

	villaID := uuid.NewString()
	createdAt := time.Date(2025, 1, 1, 0, 0, n, 0, time.UTC)
	_, err := conn.Exec(`
		INSERT INTO villa (id, title, country, city, link, images, created_at)
		VALUES ($1, $2, 'Italy', 'Lucca', 'https://example.com', '["https://example.com/1.jpg"]', $3)
	`, villaID, title, createdAt)
	if err != nil {
		t.Fatalf("Failed to create test villa: %v", err)
	}

	return villaID
}

// AddTestRating writes a rating row directly
func AddTestRating(t *testing.T, conn *sql.DB, groupID, villaID, profileID string, stars int) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO rating (group_id, villa_id, profile_id, stars, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id, villa_id, profile_id) DO UPDATE SET stars = excluded.stars
	`, groupID, villaID, profileID, stars, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test rating: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// Eventually polls cond until it returns true or timeout elapses
func Eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Condition not met within %v", timeout)
}

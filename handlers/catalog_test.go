// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/villa-vote/models"
	"github.com/danielhkuo/villa-vote/testutil"
)

func TestListVillas(t *testing.T) {
	app := setupApp(t)

	first := testutil.AddTestVilla(t, app.conn, "Casa Uno")
	second := testutil.AddTestVilla(t, app.conn, "Casa Due")

	req := httptest.NewRequest("GET", "/villas", nil)
	w := httptest.NewRecorder()
	app.catalog.ListVillas(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var villas []models.Villa
	testutil.AssertJSON(t, w, &villas)

	if len(villas) != 2 {
		t.Fatalf("Expected 2 villas, got %d", len(villas))
	}
	if villas[0].ID != first || villas[1].ID != second {
		t.Errorf("Expected catalog order %s, %s", first, second)
	}
	if len(villas[0].Images) != 1 {
		t.Errorf("Expected 1 image, got %d", len(villas[0].Images))
	}
}

func TestGetVilla(t *testing.T) {
	app := setupApp(t)
	villaID := testutil.AddTestVilla(t, app.conn, "Casa Uno")

	testCases := []struct {
		name   string
		id     string
		status int
	}{
		{"existing villa", villaID, http.StatusOK},
		{"unknown villa", "does-not-exist", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/villas/"+tc.id, nil)
			req.SetPathValue("id", tc.id)
			w := httptest.NewRecorder()
			app.catalog.GetVilla(w, req)

			testutil.AssertStatus(t, w, tc.status)
			if tc.status != http.StatusOK {
				return
			}

			var villa models.Villa
			testutil.AssertJSON(t, w, &villa)
			if villa.Title != "Casa Uno" || villa.Location() != "Lucca, Italy" {
				t.Errorf("Unexpected villa: %+v", villa)
			}
		})
	}
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/villa-vote/models"
	"github.com/danielhkuo/villa-vote/testutil"
)

func TestIdentityLifecycle(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	s := New(conn)
	ctx := context.Background()

	id, err := s.CreateIdentity(ctx, "hash-1")
	if err != nil {
		t.Fatalf("CreateIdentity() error = %v", err)
	}

	got, err := s.IdentityByTokenHash(ctx, "hash-1")
	if err != nil || got != id {
		t.Fatalf("IdentityByTokenHash() = %q, %v; want %q", got, err, id)
	}

	if err := s.RevokeIdentity(ctx, "hash-1"); err != nil {
		t.Fatalf("RevokeIdentity() error = %v", err)
	}
	got, err = s.IdentityByTokenHash(ctx, "hash-1")
	if err != nil || got != "" {
		t.Errorf("revoked identity should not resolve, got %q, %v", got, err)
	}

	got, err = s.IdentityByTokenHash(ctx, "unknown")
	if err != nil || got != "" {
		t.Errorf("unknown hash should not resolve, got %q, %v", got, err)
	}
}

func TestUpsertProfile(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	s := New(conn)
	ctx := context.Background()

	first, err := s.UpsertProfile(ctx, "identity-1", "alice")
	if err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}

	second, err := s.UpsertProfile(ctx, "identity-1", "alice b")
	if err != nil {
		t.Fatalf("second UpsertProfile() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("profile id changed across logins: %s -> %s", first.ID, second.ID)
	}
	if second.Username != "alice b" {
		t.Errorf("expected updated username, got %q", second.Username)
	}

	if _, err := s.ProfileByIdentity(ctx, "identity-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ProfileByIdentity(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCreateGroupAddsCreator(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	s := New(conn)
	ctx := context.Background()

	creator := testutil.CreateTestProfile(t, conn, "alice")

	g, err := s.CreateGroup(ctx, "Summer", creator, "ABC123")
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if g.Status != models.StatusLobby {
		t.Errorf("expected lobby status, got %s", g.Status)
	}

	members, err := s.ListMembers(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListMembers() error = %v", err)
	}
	if len(members) != 1 || members[0].ID != creator {
		t.Errorf("expected creator as sole member, got %+v", members)
	}

	found, err := s.GroupByJoinCode(ctx, "ABC123")
	if err != nil || found.ID != g.ID {
		t.Errorf("GroupByJoinCode() = %+v, %v", found, err)
	}

	// Same code again collides
	if _, err := s.CreateGroup(ctx, "Winter", creator, "ABC123"); !errors.Is(err, ErrJoinCodeTaken) {
		t.Errorf("duplicate join code error = %v, want ErrJoinCodeTaken", err)
	}
}

func TestAddMemberIsIdempotent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	s := New(conn)
	ctx := context.Background()

	creator := testutil.CreateTestProfile(t, conn, "alice")
	bob := testutil.CreateTestProfile(t, conn, "bob")
	groupID := testutil.CreateTestGroup(t, conn, creator, "JOIN01")

	inserted, err := s.AddMember(ctx, groupID, bob)
	if err != nil || !inserted {
		t.Fatalf("AddMember() = %v, %v; want true", inserted, err)
	}
	inserted, err = s.AddMember(ctx, groupID, bob)
	if err != nil || inserted {
		t.Errorf("second AddMember() = %v, %v; want false", inserted, err)
	}

	n, err := s.CountMembers(ctx, groupID)
	if err != nil || n != 2 {
		t.Errorf("CountMembers() = %d, %v; want 2", n, err)
	}
}

func TestRepairCreatorMembership(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	s := New(conn)
	ctx := context.Background()

	creator := testutil.CreateTestProfile(t, conn, "alice")
	groupID := testutil.CreateTestGroup(t, conn, creator, "FIX001")

	repaired, err := s.RepairCreatorMembership(ctx, groupID)
	if err != nil || repaired {
		t.Fatalf("RepairCreatorMembership() on healthy group = %v, %v", repaired, err)
	}

	// Simulate the orphaned-group failure: membership row lost
	if _, err := conn.Exec(`DELETE FROM group_member WHERE group_id = $1`, groupID); err != nil {
		t.Fatal(err)
	}

	repaired, err = s.RepairCreatorMembership(ctx, groupID)
	if err != nil || !repaired {
		t.Fatalf("RepairCreatorMembership() = %v, %v; want true", repaired, err)
	}
	n, _ := s.CountMembers(ctx, groupID)
	if n != 1 {
		t.Errorf("expected creator restored, member count %d", n)
	}
}

func TestUpsertRatingOverwrites(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	s := New(conn)
	ctx := context.Background()

	alice := testutil.CreateTestProfile(t, conn, "alice")
	groupID := testutil.CreateTestGroup(t, conn, alice, "RATE01")
	villaID := testutil.AddTestVilla(t, conn, "Villa Rosa")

	for _, stars := range []int{3, 5} {
		_, err := s.UpsertRating(ctx, models.Rating{GroupID: groupID, VillaID: villaID, ProfileID: alice, Stars: stars})
		if err != nil {
			t.Fatalf("UpsertRating(%d) error = %v", stars, err)
		}
	}

	ratings, err := s.ListRatings(ctx, groupID)
	if err != nil {
		t.Fatalf("ListRatings() error = %v", err)
	}
	if len(ratings) != 1 {
		t.Fatalf("expected exactly one rating row, got %d", len(ratings))
	}
	if ratings[0].Stars != 5 {
		t.Errorf("expected stars=5 after overwrite, got %d", ratings[0].Stars)
	}

	mine, err := s.RatingsByProfile(ctx, groupID, alice)
	if err != nil || mine[villaID] != 5 {
		t.Errorf("RatingsByProfile() = %v, %v", mine, err)
	}

	keys, err := s.RatingKeys(ctx, groupID)
	if err != nil || len(keys) != 1 || keys[0] != (RatingKey{ProfileID: alice, VillaID: villaID}) {
		t.Errorf("RatingKeys() = %v, %v", keys, err)
	}

	if _, err := s.UpsertRating(ctx, models.Rating{GroupID: groupID, VillaID: villaID, ProfileID: alice, Stars: 6}); err == nil {
		t.Error("expected out-of-range stars to be rejected")
	}
}

func TestVillaCatalog(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	s := New(conn)
	ctx := context.Background()

	priceMax := int64(1850)
	info := "Pool and olive grove"
	first, err := s.InsertVilla(ctx, models.Villa{
		Title:                 "Villa Uno",
		Country:               "Italy",
		City:                  "Lucca",
		Images:                []string{"a.jpg", "b.jpg"},
		AdditionalInformation: &info,
		CreatedAt:             time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DateRanges: []models.VillaDateRange{{
			StartDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC),
			PriceMin:  1200,
			PriceMax:  &priceMax,
		}},
	})
	if err != nil {
		t.Fatalf("InsertVilla() error = %v", err)
	}
	if _, err := s.InsertVilla(ctx, models.Villa{
		Title:     "Villa Due",
		CreatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("InsertVilla() error = %v", err)
	}

	villas, err := s.ListVillas(ctx)
	if err != nil {
		t.Fatalf("ListVillas() error = %v", err)
	}
	if len(villas) != 2 {
		t.Fatalf("expected 2 villas, got %d", len(villas))
	}
	if villas[0].Title != "Villa Uno" || villas[1].Title != "Villa Due" {
		t.Errorf("catalog not in creation order: %s, %s", villas[0].Title, villas[1].Title)
	}
	if len(villas[0].Images) != 2 {
		t.Errorf("expected 2 images, got %v", villas[0].Images)
	}
	if len(villas[0].DateRanges) != 1 || villas[0].DateRanges[0].PriceLabel != "1,200 - 1,850" {
		t.Errorf("unexpected date ranges: %+v", villas[0].DateRanges)
	}
	if villas[1].Images == nil || villas[1].DateRanges == nil {
		t.Error("empty collections should be non-nil")
	}

	got, err := s.VillaByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("VillaByID() error = %v", err)
	}
	if got.AdditionalInformation == nil || *got.AdditionalInformation != info {
		t.Errorf("additional information lost: %v", got.AdditionalInformation)
	}

	if _, err := s.VillaByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("VillaByID(missing) error = %v, want ErrNotFound", err)
	}

	n, err := s.CountVillas(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountVillas() = %d, %v", n, err)
	}
}

func TestSetGroupStatus(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	s := New(conn)
	ctx := context.Background()

	alice := testutil.CreateTestProfile(t, conn, "alice")
	groupID := testutil.CreateTestGroup(t, conn, alice, "STAT01")

	if err := s.SetGroupStatus(ctx, groupID, models.StatusRating); err != nil {
		t.Fatalf("SetGroupStatus() error = %v", err)
	}
	g, err := s.GroupByID(ctx, groupID)
	if err != nil || g.Status != models.StatusRating {
		t.Errorf("GroupByID() = %+v, %v", g, err)
	}

	if err := s.SetGroupStatus(ctx, "missing", models.StatusRating); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetGroupStatus(missing) error = %v, want ErrNotFound", err)
	}
}

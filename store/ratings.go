// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/danielhkuo/villa-vote/models"
)

// RatingKey identifies who rated which villa, without the stars
type RatingKey struct {
	ProfileID string
	VillaID   string
}

// UpsertRating writes stars for (group, villa, profile). A later write for
// the same key overwrites the earlier one.
func (s *Store) UpsertRating(ctx context.Context, r models.Rating) (models.Rating, error) {
	if !models.ValidStars(r.Stars) {
		return models.Rating{}, fmt.Errorf("stars %d out of range", r.Stars)
	}
	r.UpdatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rating (group_id, villa_id, profile_id, stars, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id, villa_id, profile_id) DO UPDATE SET
			stars = excluded.stars,
			updated_at = excluded.updated_at
	`, r.GroupID, r.VillaID, r.ProfileID, r.Stars, r.UpdatedAt)
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to upsert rating: %w", err)
	}
	return r, nil
}

// ListRatings returns every rating row for a group
func (s *Store) ListRatings(ctx context.Context, groupID string) ([]models.Rating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_id, villa_id, profile_id, stars, updated_at
		FROM rating
		WHERE group_id = $1
		ORDER BY villa_id, profile_id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	ratings := []models.Rating{}
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.GroupID, &r.VillaID, &r.ProfileID, &r.Stars, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// RatingKeys returns only (profile, villa) pairs for a group; enough for
// completion checks
func (s *Store) RatingKeys(ctx context.Context, groupID string) ([]RatingKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT profile_id, villa_id FROM rating WHERE group_id = $1
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating keys: %w", err)
	}
	defer rows.Close()

	var keys []RatingKey
	for rows.Next() {
		var k RatingKey
		if err := rows.Scan(&k.ProfileID, &k.VillaID); err != nil {
			return nil, fmt.Errorf("failed to scan rating key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RatingsByProfile returns one member's stars per villa in a group
func (s *Store) RatingsByProfile(ctx context.Context, groupID, profileID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT villa_id, stars FROM rating
		WHERE group_id = $1 AND profile_id = $2
	`, groupID, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile ratings: %w", err)
	}
	defer rows.Close()

	stars := make(map[string]int)
	for rows.Next() {
		var villaID string
		var n int
		if err := rows.Scan(&villaID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan profile rating: %w", err)
		}
		stars[villaID] = n
	}
	return stars, rows.Err()
}

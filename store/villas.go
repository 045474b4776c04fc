// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/danielhkuo/villa-vote/models"
)

const villaColumns = `id, title, country, city, address, link, images, additional_information, created_at`

func scanVilla(row interface{ Scan(...any) error }) (models.Villa, error) {
	var v models.Villa
	var images string
	err := row.Scan(&v.ID, &v.Title, &v.Country, &v.City, &v.Address,
		&v.Link, &images, &v.AdditionalInformation, &v.CreatedAt)
	if err != nil {
		return models.Villa{}, err
	}
	if err := json.Unmarshal([]byte(images), &v.Images); err != nil {
		return models.Villa{}, fmt.Errorf("failed to parse images for villa %s: %w", v.ID, err)
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	v.DateRanges = []models.VillaDateRange{}
	return v, nil
}

// ListVillas returns the full catalog ordered by creation time, with
// availability periods attached
func (s *Store) ListVillas(ctx context.Context) ([]models.Villa, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+villaColumns+` FROM villa ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query villas: %w", err)
	}

	villas := []models.Villa{}
	index := make(map[string]int)
	for rows.Next() {
		v, err := scanVilla(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan villa: %w", err)
		}
		index[v.ID] = len(villas)
		villas = append(villas, v)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Second query only after the first cursor is closed; SQLite runs on a
	// single connection.
	ranges, err := s.listDateRanges(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, r := range ranges {
		if i, ok := index[r.VillaID]; ok {
			villas[i].DateRanges = append(villas[i].DateRanges, r)
		}
	}
	return villas, nil
}

// VillaByID returns one catalog item with its availability periods
func (s *Store) VillaByID(ctx context.Context, id string) (models.Villa, error) {
	v, err := scanVilla(s.db.QueryRowContext(ctx, `
		SELECT `+villaColumns+` FROM villa WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return models.Villa{}, ErrNotFound
	}
	if err != nil {
		return models.Villa{}, fmt.Errorf("failed to query villa: %w", err)
	}

	ranges, err := s.listDateRanges(ctx, id)
	if err != nil {
		return models.Villa{}, err
	}
	v.DateRanges = append(v.DateRanges, ranges...)
	return v, nil
}

// listDateRanges returns ranges for one villa, or for all villas when
// villaID is empty
func (s *Store) listDateRanges(ctx context.Context, villaID string) ([]models.VillaDateRange, error) {
	query := `
		SELECT id, villa_id, start_date, end_date, price_min, price_max
		FROM villa_date_range`
	var args []any
	if villaID != "" {
		query += ` WHERE villa_id = $1`
		args = append(args, villaID)
	}
	query += ` ORDER BY villa_id, start_date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query date ranges: %w", err)
	}
	defer rows.Close()

	var ranges []models.VillaDateRange
	for rows.Next() {
		var r models.VillaDateRange
		if err := rows.Scan(&r.ID, &r.VillaID, &r.StartDate, &r.EndDate, &r.PriceMin, &r.PriceMax); err != nil {
			return nil, fmt.Errorf("failed to scan date range: %w", err)
		}
		r.PriceLabel = r.FormatPrice()
		ranges = append(ranges, r)
	}
	return ranges, rows.Err()
}

// CountVillas returns the catalog size
func (s *Store) CountVillas(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM villa`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count villas: %w", err)
	}
	return n, nil
}

// InsertVilla adds a catalog item and its date ranges. Empty ids are
// generated; a zero CreatedAt is set to now.
func (s *Store) InsertVilla(ctx context.Context, v models.Villa) (models.Villa, error) {
	inserted, err := s.InsertVillas(ctx, []models.Villa{v})
	if err != nil {
		return models.Villa{}, err
	}
	return inserted[0], nil
}

// InsertVillas adds several catalog items in one transaction. Either every
// villa is stored or none is.
func (s *Store) InsertVillas(ctx context.Context, villas []models.Villa) ([]models.Villa, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := make([]models.Villa, 0, len(villas))
	for _, v := range villas {
		v, err := s.insertVilla(ctx, tx, v)
		if err != nil {
			return nil, fmt.Errorf("villa %q: %w", v.Title, err)
		}
		inserted = append(inserted, v)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit villas: %w", err)
	}
	return inserted, nil
}

func (s *Store) insertVilla(ctx context.Context, tx *sql.Tx, v models.Villa) (models.Villa, error) {
	if v.ID == "" {
		v.ID = newID()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now()
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	images, err := json.Marshal(v.Images)
	if err != nil {
		return v, fmt.Errorf("failed to encode images: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO villa (id, title, country, city, address, link, images, additional_information, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, v.ID, v.Title, v.Country, v.City, v.Address, v.Link, string(images), v.AdditionalInformation, v.CreatedAt)
	if err != nil {
		return v, fmt.Errorf("failed to insert villa: %w", err)
	}

	for i := range v.DateRanges {
		r := &v.DateRanges[i]
		if r.ID == "" {
			r.ID = newID()
		}
		r.VillaID = v.ID
		r.PriceLabel = r.FormatPrice()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO villa_date_range (id, villa_id, start_date, end_date, price_min, price_max, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, r.ID, r.VillaID, r.StartDate.UTC(), r.EndDate.UTC(), r.PriceMin, r.PriceMax, v.CreatedAt)
		if err != nil {
			return v, fmt.Errorf("failed to insert date range: %w", err)
		}
	}

	if v.DateRanges == nil {
		v.DateRanges = []models.VillaDateRange{}
	}
	return v, nil
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/danielhkuo/villa-vote/models"
)

// DateLayout is the date format used in catalog files
const DateLayout = "2006-01-02"

var ErrInvalidCatalog = errors.New("invalid catalog")

type villaRecord struct {
	Title                 string            `json:"title"`
	Country               string            `json:"country"`
	City                  string            `json:"city"`
	Address               *string           `json:"address"`
	Link                  string            `json:"link"`
	Images                []string          `json:"images"`
	AdditionalInformation *string           `json:"additional_information"`
	DateRanges            []dateRangeRecord `json:"date_ranges"`
}

type dateRangeRecord struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	PriceMin  int64  `json:"price_min"`
	PriceMax  *int64 `json:"price_max"`
}

// Load decodes a JSON array of villas. File order becomes catalog order.
func Load(r io.Reader) ([]models.Villa, error) {
	var records []villaRecord
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	villas := make([]models.Villa, 0, len(records))
	for i, rec := range records {
		v, err := rec.toVilla()
		if err != nil {
			return nil, fmt.Errorf("%w: villa %d: %v", ErrInvalidCatalog, i, err)
		}
		villas = append(villas, v)
	}
	return villas, nil
}

// LoadFile reads a catalog from path
func LoadFile(path string) ([]models.Villa, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (rec villaRecord) toVilla() (models.Villa, error) {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return models.Villa{}, errors.New("title is required")
	}

	v := models.Villa{
		Title:                 title,
		Country:               strings.TrimSpace(rec.Country),
		City:                  strings.TrimSpace(rec.City),
		Address:               rec.Address,
		Link:                  rec.Link,
		Images:                rec.Images,
		AdditionalInformation: rec.AdditionalInformation,
	}
	if v.Images == nil {
		v.Images = []string{}
	}

	for j, dr := range rec.DateRanges {
		start, err := time.Parse(DateLayout, dr.StartDate)
		if err != nil {
			return models.Villa{}, fmt.Errorf("date range %d: bad start_date %q", j, dr.StartDate)
		}
		end, err := time.Parse(DateLayout, dr.EndDate)
		if err != nil {
			return models.Villa{}, fmt.Errorf("date range %d: bad end_date %q", j, dr.EndDate)
		}
		if end.Before(start) {
			return models.Villa{}, fmt.Errorf("date range %d: end_date before start_date", j)
		}
		if dr.PriceMin < 0 || (dr.PriceMax != nil && *dr.PriceMax < dr.PriceMin) {
			return models.Villa{}, fmt.Errorf("date range %d: bad price span", j)
		}

		v.DateRanges = append(v.DateRanges, models.VillaDateRange{
			StartDate: start,
			EndDate:   end,
			PriceMin:  dr.PriceMin,
			PriceMax:  dr.PriceMax,
		})
	}

	return v, nil
}

// Seeder is the part of the store used for seeding
type Seeder interface {
	CountVillas(ctx context.Context) (int, error)
	InsertVillas(ctx context.Context, villas []models.Villa) ([]models.Villa, error)
}

// Seed inserts villas only when the store has none, and returns how many
// were inserted. Villas get increasing created_at values so the stored
// catalog keeps file order. The insert is all-or-nothing, so a failed seed
// is retried in full on the next start.
func Seed(ctx context.Context, s Seeder, villas []models.Villa) (int, error) {
	existing, err := s.CountVillas(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		slog.Info("Catalog already present, skipping seed", "villas", existing)
		return 0, nil
	}

	base := time.Now().UTC().Truncate(time.Second)
	batch := make([]models.Villa, len(villas))
	for i, v := range villas {
		v.CreatedAt = base.Add(time.Duration(i) * time.Second)
		batch[i] = v
	}
	if _, err := s.InsertVillas(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to seed catalog: %w", err)
	}

	slog.Info("Seeded catalog", "villas", len(villas))
	return len(villas), nil
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package aggregate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/villa-vote/models"
)

// Source is the read side of the store that aggregation needs
type Source interface {
	ListRatings(ctx context.Context, groupID string) ([]models.Rating, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Profile, error)
	ListVillas(ctx context.Context) ([]models.Villa, error)
}

// Engine fetches a group's inputs and aggregates them. Concurrent Compute
// calls for the same group share one fetch.
type Engine struct {
	src Source
	sf  singleflight.Group
}

// computeTimeout bounds a shared fetch once it no longer follows any
// caller's cancellation
const computeTimeout = 30 * time.Second

func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// Compute reads ratings, members and the catalog fresh and returns the
// ranked results. Safe to call repeatedly; it has no side effects.
//
// The shared fetch is detached from the first caller's context, so one
// caller going away does not fail the others. Each caller still stops
// waiting when its own ctx is done.
func (e *Engine) Compute(ctx context.Context, groupID string) ([]models.VillaResult, error) {
	ch := e.sf.DoChan("results_"+groupID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		return e.compute(fetchCtx, groupID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.VillaResult), nil
	}
}

func (e *Engine) compute(ctx context.Context, groupID string) ([]models.VillaResult, error) {
	var (
		ratings []models.Rating
		members []models.Profile
		catalog []models.Villa
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if ratings, err = e.src.ListRatings(ctx, groupID); err != nil {
			return fmt.Errorf("failed to load ratings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if members, err = e.src.ListMembers(ctx, groupID); err != nil {
			return fmt.Errorf("failed to load members: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if catalog, err = e.src.ListVillas(ctx); err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Aggregate(ratings, DisplayNames(members), catalog), nil
}

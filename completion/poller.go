// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package completion

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/danielhkuo/villa-vote/store"
)

// Source is the read side of the store the poller needs
type Source interface {
	RatingKeys(ctx context.Context, groupID string) ([]store.RatingKey, error)
	CountMembers(ctx context.Context, groupID string) (int, error)
}

// Progress is the outcome of one evaluation
type Progress struct {
	Finished    []string // profile ids that rated every item, sorted
	MemberCount int
	ItemCount   int
	Complete    bool
}

func (p Progress) FinishedCount() int {
	return len(p.Finished)
}

// Poller watches one group until every member has rated every item
type Poller struct {
	src        Source
	groupID    string
	itemCount  int
	interval   time.Duration
	maxBackoff time.Duration

	once sync.Once
}

func NewPoller(src Source, groupID string, itemCount int, interval, maxBackoff time.Duration) *Poller {
	if maxBackoff < interval {
		maxBackoff = interval
	}
	return &Poller{
		src:        src,
		groupID:    groupID,
		itemCount:  itemCount,
		interval:   interval,
		maxBackoff: maxBackoff,
	}
}

// Evaluate reads the group's rating keys and member count once.
// A profile is finished when it has rated at least itemCount distinct
// villas. Zero members never completes; an empty catalog completes as soon
// as there is at least one member.
func (p *Poller) Evaluate(ctx context.Context) (Progress, error) {
	keys, err := p.src.RatingKeys(ctx, p.groupID)
	if err != nil {
		return Progress{}, fmt.Errorf("failed to fetch rating keys: %w", err)
	}

	members, err := p.src.CountMembers(ctx, p.groupID)
	if err != nil {
		return Progress{}, fmt.Errorf("failed to count members: %w", err)
	}

	// Distinct villas per profile
	rated := make(map[string]map[string]struct{})
	for _, k := range keys {
		villas, ok := rated[k.ProfileID]
		if !ok {
			villas = make(map[string]struct{})
			rated[k.ProfileID] = villas
		}
		villas[k.VillaID] = struct{}{}
	}

	finished := make([]string, 0, len(rated))
	for profileID, villas := range rated {
		if len(villas) >= p.itemCount {
			finished = append(finished, profileID)
		}
	}
	sort.Strings(finished)

	progress := Progress{
		Finished:    finished,
		MemberCount: members,
		ItemCount:   p.itemCount,
	}

	switch {
	case members <= 0:
		progress.Complete = false
	case p.itemCount == 0:
		progress.Complete = true
	default:
		progress.Complete = len(finished) >= members
	}

	return progress, nil
}

// Run evaluates immediately, then every interval until the group completes
// or ctx is cancelled. A receive on nudge triggers an early evaluation.
// onProgress sees every successful evaluation; onComplete fires at most once
// per Poller. Failed evaluations are skipped and back off exponentially;
// nudges received while backing off are dropped.
func (p *Poller) Run(ctx context.Context, nudge <-chan struct{}, onProgress, onComplete func(Progress)) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-nudge:
			// Nudges do not cut a backoff short
			if failures > 0 {
				continue
			}
			timer.Stop()
		}

		progress, err := p.Evaluate(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			wait := p.backoff(failures)
			slog.Warn("Completion poll failed", "group_id", p.groupID, "failures", failures, "retry_in", wait, "error", err)
			timer.Reset(wait)
			continue
		}
		failures = 0

		if onProgress != nil {
			onProgress(progress)
		}

		if progress.Complete {
			p.once.Do(func() {
				slog.Info("Group completed rating", "group_id", p.groupID, "members", progress.MemberCount, "items", progress.ItemCount)
				if onComplete != nil {
					onComplete(progress)
				}
			})
			return
		}

		timer.Reset(p.interval)
	}
}

// backoff returns interval * 2^failures, capped at maxBackoff
func (p *Poller) backoff(failures int) time.Duration {
	wait := p.interval
	for i := 0; i < failures && wait < p.maxBackoff; i++ {
		wait *= 2
	}
	if wait > p.maxBackoff {
		wait = p.maxBackoff
	}
	return wait
}

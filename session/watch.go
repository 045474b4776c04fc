// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielhkuo/villa-vote/completion"
	"github.com/danielhkuo/villa-vote/models"
	"github.com/danielhkuo/villa-vote/realtime"
)

// watchLobby re-reads the member list whenever someone joins the group.
// The event payload is only a trigger. Callers hold mu.
func (c *Controller) watchLobby(groupID string, gen uint64) {
	ctx, cancel := context.WithCancel(c.root)
	c.stopBG = cancel

	sub := c.deps.Broker.Subscribe(groupID, realtime.KindMemberJoined)

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Events():
				if !ok {
					return
				}
			}

			members, err := c.deps.Store.ListMembers(ctx, groupID)
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("Failed to refresh lobby members", "group_id", groupID, "error", err)
				}
				continue
			}

			c.mu.Lock()
			if lobby, ok := c.st.(*lobbyState); ok && c.gen == gen {
				lobby.members = members
			}
			c.mu.Unlock()
		}
	}()
}

// watchCompletion runs the completion poller for the Waiting state. Saved
// ratings from other members nudge the poller; the periodic poll still
// runs in case an event is missed. Callers hold mu.
func (c *Controller) watchCompletion(groupID string, itemCount int, gen uint64) {
	ctx, cancel := context.WithCancel(c.root)
	c.stopBG = cancel

	nudge := make(chan struct{}, 1)
	sub := c.deps.Broker.Subscribe(groupID, realtime.KindRatingSaved)

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Events():
				if !ok {
					return
				}
				select {
				case nudge <- struct{}{}:
				default:
				}
			}
		}
	}()

	poller := completion.NewPoller(c.deps.Store, groupID, itemCount, c.deps.PollInterval, c.deps.PollMaxBackoff)

	onProgress := func(p completion.Progress) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if w, ok := c.st.(*waitingState); ok && c.gen == gen {
			w.progress = p
		}
	}

	onComplete := func(completion.Progress) {
		c.finish(ctx, groupID, gen)
	}

	go poller.Run(ctx, nudge, onProgress, onComplete)
}

// finish computes results and moves Waiting → Results, unless the
// controller has moved on in the meantime
func (c *Controller) finish(ctx context.Context, groupID string, gen uint64) {
	var results []models.VillaResult
	for {
		var err error
		results, err = c.deps.Engine.Compute(ctx, groupID)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		slog.Warn("Failed to compute results, retrying", "group_id", groupID, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.deps.PollInterval):
		}
	}

	if err := c.deps.Store.SetGroupStatus(ctx, groupID, models.StatusFinished); err != nil {
		slog.Warn("Failed to update group status", "group_id", groupID, "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.st.(*waitingState)
	if !ok || c.gen != gen {
		return
	}

	mine, err := c.deps.Store.RatingsByProfile(ctx, groupID, c.profile.ID)
	if err != nil || mine == nil {
		mine = make(map[string]int)
	}

	group := w.group
	group.Status = models.StatusFinished
	c.enter(&resultsState{group: group, results: results, mine: mine})
}

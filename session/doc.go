// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session holds the screen state machine each signed-in member walks
through.

# Screens

	signed_out → group_select → lobby → rating → waiting → results ⇄ item_detail

A Controller owns exactly one screen at a time. Every event (Login,
JoinGroup, SubmitRating, Next, ...) is applied under the controller's lock
and either moves to a new screen or returns ErrInvalidTransition without
changing anything.

# Background Work

Two screens start background goroutines:

  - lobby: re-lists members when someone joins
  - waiting: runs a completion.Poller, then computes results

Entering any screen cancels the previous screen's background work. A
generation counter is bumped on every transition and checked before a
background callback mutates state, so late results from a cancelled poller
are dropped.

# Manager

Manager maps identity tokens to controllers. A token that is valid but has
no live controller (after a restart) is restored to group_select.
*/
package session

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Villa Vote API.

# Handler Types

  - SessionHandler: drives one member's session controller
  - CatalogHandler: read-only villa catalog
  - GroupHandler: group lookup, members, progress and results

Handlers are created via constructor functions:

	sessionHandler := handlers.NewSessionHandler(manager)
	groupHandler := handlers.NewGroupHandler(store, engine, cfg)

# Session Flow

Every session request except login carries the X-Identity-Token header
returned by login. Each call applies one event and returns the new screen:

	POST /session/login           → Login (returns identity_token)
	POST /session/groups          → CreateGroup   group_select → lobby
	POST /session/join            → JoinGroup     group_select → lobby
	POST /session/start           → StartRating   lobby → rating
	POST /session/ratings         → SubmitRating  rating
	POST /session/next            → Next          rating → rating | waiting
	POST /session/items/{id}      → ViewItem      results → item_detail
	POST /session/back            → Back          item_detail → results

Waiting moves to results on its own once every member has rated every
villa; clients poll GET /session to see it.

# Errors

Session errors map to a status and a user-facing message:

	ErrInvalidTransition        → 409
	ErrNotRated                 → 409
	invalid username/stars/code → 400 ("Invalid join code")
	unknown join code           → 404 ("Invalid join code")
	no session                  → 401
*/
package handlers

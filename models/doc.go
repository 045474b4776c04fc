// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - LoginRequest: username
  - CreateGroupRequest: name
  - JoinGroupRequest: join_code
  - SubmitRatingRequest: stars (1-5)

# Domain Types

  - Profile: display name bound to an anonymous identity
  - Group: rating group with a six-character join code
  - GroupMember: membership row
  - Villa, VillaDateRange: the shared rating catalog
  - Rating: one member's stars for one villa in one group
  - VillaResult, MemberVote: aggregated results

# Session Views

SessionView is a snapshot of a member's screen state. Screen is one of:

	signed_out → group_select → lobby → rating → waiting → results ⇄ item_detail

# Constants

Group status hints:

	StatusLobby    = "lobby"
	StatusRating   = "rating"
	StatusFinished = "finished"
*/
package models

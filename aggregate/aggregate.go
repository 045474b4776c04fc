// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package aggregate

import (
	"sort"

	"github.com/danielhkuo/villa-vote/models"
)

// Aggregate ranks the catalog by mean stars. Every catalog item appears
// exactly once; unrated items have AvgRating 0 and no votes. Ties keep
// catalog order. Ratings for items outside the catalog are ignored.
//
// names maps profile id to display name; misses render as "Unknown".
func Aggregate(ratings []models.Rating, names map[string]string, catalog []models.Villa) []models.VillaResult {
	// Group ratings by villa
	byVilla := make(map[string][]models.Rating, len(catalog))
	for _, r := range ratings {
		byVilla[r.VillaID] = append(byVilla[r.VillaID], r)
	}

	results := make([]models.VillaResult, len(catalog))
	for i, villa := range catalog {
		rows := byVilla[villa.ID]

		votes := make([]models.MemberVote, 0, len(rows))
		sum := 0
		for _, r := range rows {
			name, ok := names[r.ProfileID]
			if !ok || name == "" {
				name = models.UnknownMember
			}
			votes = append(votes, models.MemberVote{
				ProfileID:   r.ProfileID,
				DisplayName: name,
				Stars:       r.Stars,
			})
			sum += r.Stars
		}

		// Deterministic vote order regardless of fetch order
		sort.Slice(votes, func(a, b int) bool {
			if votes[a].DisplayName != votes[b].DisplayName {
				return votes[a].DisplayName < votes[b].DisplayName
			}
			return votes[a].ProfileID < votes[b].ProfileID
		})

		results[i] = models.VillaResult{
			Villa:     villa,
			AvgRating: mean(sum, len(rows)),
			Votes:     votes,
		}
	}

	// Higher average first; stable so ties stay in catalog order
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].AvgRating > results[b].AvgRating
	})

	return results
}

// mean returns 0 for an empty set rather than NaN
func mean(sum, count int) float64 {
	if count == 0 {
		return 0.0
	}
	return float64(sum) / float64(count)
}

// DisplayNames builds the profile id → display name lookup from members
func DisplayNames(members []models.Profile) map[string]string {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Username
	}
	return names
}

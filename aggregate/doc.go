// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package aggregate ranks villas by the mean of their star ratings.
// Aggregate is pure; Engine loads its inputs from a store and collapses
// concurrent requests for the same group.
package aggregate

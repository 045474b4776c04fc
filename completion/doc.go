// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package completion decides when a group has finished rating.

A member is finished once they have rated every villa in the catalog. The
group is complete when at least one member exists and every member is
finished. An empty catalog completes immediately.

Poller re-evaluates on a fixed interval, and early when nudged:

	p := completion.NewPoller(store, groupID, len(catalog), 2*time.Second, 30*time.Second)
	p.Run(ctx, nudges, onProgress, onComplete)

Store errors back off exponentially up to the configured cap. onComplete
runs at most once per Poller.
*/
package completion

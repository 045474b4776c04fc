// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime fans group events out to in-process subscribers.

Events are hints: a subscriber that falls behind loses events rather than
blocking the publisher, and consumers re-read the store when woken.

When a mirror Publisher is configured (KafkaPublisher), every event is also
written there, keyed by group id.
*/
package realtime

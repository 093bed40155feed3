// Package observer implements an intersection observer whose root margin
// is measured from the edges of the visual viewport instead of the layout
// viewport.
//
// Browsers only accept root margins relative to the layout viewport. When
// the user pinch-zooms or pans, "100px from the edge of what I can see"
// corresponds to a different layout-space margin every time. [Observer]
// keeps the margin the caller asked for, converts it with
// [viewport.TransformRootMargin] against current geometry, and whenever the
// visual viewport resizes or scrolls it replaces the underlying
// intersection observer with one built from a freshly converted margin.
//
// # Lifecycle
//
// An Observer starts Active with one live intersection observer and
// subscriptions to the host's "resize" and "scroll" notifications.
// [Observer.Disconnect] moves it to Disconnected, a terminal state: targets
// are cleared, the live observer is disconnected, the subscriptions are
// released and any pending resync is canceled. Observe and Unobserve on a
// disconnected Observer are no-ops.
//
// # Resynchronization
//
// Notifications are not handled inline. The first one schedules a resync
// on the configured [schedule.Scheduler]; further notifications arriving
// before it runs are folded into it, since the resync reads geometry when
// it runs, not when it was scheduled. A resync:
//
//  1. builds a replacement observer with the converted margin,
//  2. drains the current observer's buffered entries,
//  3. disconnects the current observer,
//  4. registers every observed target on the replacement,
//  5. hands the drained entries to the callback, even when there are none.
//
// All callback invocations are serialized, and the replacement cannot
// deliver anything until step 5 returns, so entries are never lost or
// reordered across a swap. If building the replacement fails the current
// observer stays in place and the error is logged and reported through the
// observability hooks.
//
// # Explicit roots
//
// When [intersect.Options.Root] is set, the margin is relative to that
// element rather than a viewport. The Observer then passes the margin
// through untouched and does not subscribe to viewport notifications.
//
// # Callbacks
//
// The callback always receives the Observer itself as its second argument,
// never the underlying instance. It may call any Observer method except
// Resync, and must not synchronously trigger deliveries of the underlying
// observer.
package observer

// Package schedule defers work to an idle point.
//
// The observer proxy never rebuilds its intersection observer inside a
// scroll or resize handler. It hands the rebuild to a [Scheduler] instead:
//
//   - [Idle] forwards to a host idle-callback facility (requestIdleCallback
//     in browsers) with a timeout hint so the work still runs on a busy
//     page.
//   - [Delay] runs the work after a short fixed delay on a timer. It is the
//     fallback when the host has no idle facility.
//   - [Manual] queues work until the owner calls [Manual.RunPending]. It is
//     used for deterministic replays (scenarios, tests, the TUI).
//
// [ForHost] picks Idle or Delay based on what the host supports.
package schedule

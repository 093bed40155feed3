// Package pkg provides the libraries behind visualobserver: intersection
// observers whose root margin is expressed relative to the visual viewport.
//
// # Overview
//
// Browsers resolve an IntersectionObserver's rootMargin against the layout
// viewport. Once the user pinch-zooms, the visual viewport (the part of the
// page actually on screen) is smaller than the layout viewport and offset
// inside it, so a margin like "-10%" no longer describes what the user
// sees. The packages here translate such margins and keep the translation
// current:
//
//  1. [geom] - Rectangles in CSS pixels
//  2. [margin] - Root-margin grammar and the visual-to-layout translation
//  3. [viewport] - Geometry and notification interfaces, and a simulator in [viewport/sim]
//  4. [intersect] - The intersection observer abstraction, with a recording implementation in [intersect/recorder]
//  5. [schedule] - Deferred resync scheduling (idle, delay, manual)
//  6. [observer] - The proxy observer that rebuilds on viewport changes
//  7. [scenario] - TOML scenario replay
//  8. [server] - HTTP API
//
// Supporting packages: [errors] (coded errors), [observability] (hooks),
// [buildinfo] (version information).
//
// # Data flow
//
//	visualViewport resize/scroll
//	         ↓
//	    [observer] coalesces notifications, schedules a resync
//	         ↓
//	    [viewport] + [margin] translate the margin for current geometry
//	         ↓
//	    [intersect.Factory] builds a replacement observer
//	         ↓
//	    buffered entries flushed, targets re-observed
//
// # Quick Start
//
//	obs, err := observer.New(func(entries []intersect.Entry, o intersect.Observer) {
//	    for _, e := range entries {
//	        fmt.Println(e.Target, e.IsIntersecting)
//	    }
//	}, intersect.Options{RootMargin: "-10%"}, observer.Config{
//	    Host:    host,
//	    Factory: factory,
//	})
//	if err != nil {
//	    return err
//	}
//	defer obs.Disconnect()
//	obs.Observe(target)
//
// [geom]: github.com/matzehuels/visualobserver/pkg/geom
// [margin]: github.com/matzehuels/visualobserver/pkg/margin
// [viewport]: github.com/matzehuels/visualobserver/pkg/viewport
// [viewport/sim]: github.com/matzehuels/visualobserver/pkg/viewport/sim
// [intersect]: github.com/matzehuels/visualobserver/pkg/intersect
// [intersect/recorder]: github.com/matzehuels/visualobserver/pkg/intersect/recorder
// [intersect.Factory]: github.com/matzehuels/visualobserver/pkg/intersect#Factory
// [schedule]: github.com/matzehuels/visualobserver/pkg/schedule
// [observer]: github.com/matzehuels/visualobserver/pkg/observer
// [scenario]: github.com/matzehuels/visualobserver/pkg/scenario
// [server]: github.com/matzehuels/visualobserver/pkg/server
// [errors]: github.com/matzehuels/visualobserver/pkg/errors
// [observability]: github.com/matzehuels/visualobserver/pkg/observability
// [buildinfo]: github.com/matzehuels/visualobserver/pkg/buildinfo
package pkg

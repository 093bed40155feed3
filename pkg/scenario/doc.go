// Package scenario replays scripted viewport sessions against the observer
// proxy.
//
// A scenario is a TOML document describing a simulated window, the
// observer's options, the targets to observe and a list of steps (zoom,
// pan, resize, enqueue entries, let the idle scheduler run, disconnect...).
// [Run] drives a [sim.Host], a [recorder.Recorder] and a
// [schedule.Manual] through the steps and returns a [Report] describing
// every intersection observer the proxy built and every batch delivered to
// the callback.
//
// # Example
//
//	name = "pinch then pan"
//	root_margin = "10% 20px"
//	thresholds = [0, 1]
//	targets = ["hero", "footer"]
//
//	[layout]
//	width = 1000
//	height = 800
//
//	[[steps]]
//	action = "zoom"
//	scale = 2
//
//	[[steps]]
//	action = "idle"
//
// [sim.Host]: github.com/matzehuels/visualobserver/pkg/viewport/sim.Host
// [recorder.Recorder]: github.com/matzehuels/visualobserver/pkg/intersect/recorder.Recorder
// [schedule.Manual]: github.com/matzehuels/visualobserver/pkg/schedule.Manual
package scenario

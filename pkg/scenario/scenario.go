package scenario

import (
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/viewport"
)

// Action names a scenario step.
type Action string

const (
	ActionZoom       Action = "zoom"
	ActionPan        Action = "pan"
	ActionScrollTo   Action = "scroll_to"
	ActionResize     Action = "resize"
	ActionEmit       Action = "emit"
	ActionObserve    Action = "observe"
	ActionUnobserve  Action = "unobserve"
	ActionEnqueue    Action = "enqueue"
	ActionDeliver    Action = "deliver"
	ActionIdle       Action = "idle"
	ActionResync     Action = "resync"
	ActionDisconnect Action = "disconnect"
)

// Actions lists every supported action.
var Actions = []Action{
	ActionZoom, ActionPan, ActionScrollTo, ActionResize, ActionEmit,
	ActionObserve, ActionUnobserve, ActionEnqueue, ActionDeliver,
	ActionIdle, ActionResync, ActionDisconnect,
}

// Scenario is a decoded scenario file.
type Scenario struct {
	Name       string        `toml:"name"`
	RootMargin string        `toml:"root_margin"`
	Thresholds []float64     `toml:"thresholds"`
	Quirks     bool          `toml:"quirks"`
	Layout     viewport.Size `toml:"layout"`
	Body       viewport.Size `toml:"body"`
	Targets    []string      `toml:"targets"`
	Steps      []Step        `toml:"steps"`
}

// Step is one scripted action. Only the fields relevant to Action are read.
type Step struct {
	Action Action `toml:"action"`

	Scale  float64 `toml:"scale"`  // zoom
	DX     float64 `toml:"dx"`     // pan
	DY     float64 `toml:"dy"`     // pan
	X      float64 `toml:"x"`      // scroll_to
	Y      float64 `toml:"y"`      // scroll_to
	Width  float64 `toml:"width"`  // resize
	Height float64 `toml:"height"` // resize
	Event  string  `toml:"event"`  // emit: "resize" or "scroll"

	// observe, unobserve, enqueue
	Target       string  `toml:"target"`
	Intersecting bool    `toml:"intersecting"`
	Ratio        float64 `toml:"ratio"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scenario %s", path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document. Unknown keys are
// rejected so that typos do not silently change a replay.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	meta, err := toml.Decode(string(data), &sc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "decode scenario")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidScenario, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario for structural errors. Margin syntax is
// checked later by the observer itself.
func (sc *Scenario) Validate() error {
	if err := errors.ValidateDimension("layout.width", sc.Layout.Width); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScenario, err, "layout")
	}
	if err := errors.ValidateDimension("layout.height", sc.Layout.Height); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScenario, err, "layout")
	}
	if sc.Layout.Width == 0 || sc.Layout.Height == 0 {
		return errors.New(errors.ErrCodeInvalidScenario, "layout width and height are required")
	}
	if err := errors.ValidateThresholds(sc.Thresholds); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScenario, err, "thresholds")
	}

	seen := make(map[string]bool, len(sc.Targets))
	for _, name := range sc.Targets {
		if name == "" {
			return errors.New(errors.ErrCodeInvalidScenario, "target names cannot be empty")
		}
		if seen[name] {
			return errors.New(errors.ErrCodeInvalidScenario, "duplicate target %q", name)
		}
		seen[name] = true
	}

	for i, st := range sc.Steps {
		if !slices.Contains(Actions, st.Action) {
			return errors.New(errors.ErrCodeInvalidScenario, "step %d: unknown action %q", i+1, st.Action)
		}
		switch st.Action {
		case ActionObserve, ActionUnobserve, ActionEnqueue:
			if !seen[st.Target] {
				return errors.New(errors.ErrCodeInvalidScenario, "step %d: unknown target %q", i+1, st.Target)
			}
		case ActionEmit:
			if st.Event != string(viewport.Resize) && st.Event != string(viewport.Scroll) {
				return errors.New(errors.ErrCodeInvalidScenario, "step %d: event must be resize or scroll", i+1)
			}
		case ActionZoom:
			if err := errors.ValidateScale(st.Scale); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidScenario, err, "step %d", i+1)
			}
		}
	}
	return nil
}

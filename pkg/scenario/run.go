package scenario

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/intersect"
	"github.com/matzehuels/visualobserver/pkg/intersect/recorder"
	"github.com/matzehuels/visualobserver/pkg/observer"
	"github.com/matzehuels/visualobserver/pkg/schedule"
	"github.com/matzehuels/visualobserver/pkg/viewport"
	"github.com/matzehuels/visualobserver/pkg/viewport/sim"
)

// Report is the outcome of a scenario run.
type Report struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	ObserverID  string       `json:"observerId"`
	Generations []Generation `json:"generations"`
	Deliveries  []Delivery   `json:"deliveries"`
	Steps       []StepResult `json:"steps"`
	State       string       `json:"state"`
	Duration    string       `json:"duration"`
}

// Generation describes one intersection observer built by the proxy.
type Generation struct {
	Number       int       `json:"number"`
	ID           uuid.UUID `json:"id"`
	RootMargin   string    `json:"rootMargin"`
	Targets      []string  `json:"targets"`
	Disconnected bool      `json:"disconnected"`
}

// Delivery is one batch handed to the scenario's callback.
type Delivery struct {
	Step    int           `json:"step"`
	Entries []EntryReport `json:"entries"`
}

// EntryReport is an intersection entry with its target resolved to a name.
type EntryReport struct {
	Target         string  `json:"target"`
	IsIntersecting bool    `json:"isIntersecting"`
	Ratio          float64 `json:"intersectionRatio"`
}

// StepResult captures the proxy's state after a step.
type StepResult struct {
	Index      int             `json:"index"`
	Action     Action          `json:"action"`
	Visual     viewport.Visual `json:"visual"`
	RootMargin string          `json:"rootMargin"`
	Generation int             `json:"generation"`
	Scheduled  int             `json:"scheduled"`
}

// target is the element type handed to the observer. Pointers keep
// identity comparisons cheap and unambiguous.
type target struct{ name string }

type runner struct {
	sc      *Scenario
	host    *sim.Host
	rec     *recorder.Recorder
	sched   *schedule.Manual
	obs     *observer.Observer
	targets map[string]*target
	step    int
	report  *Report
}

// Run executes sc and returns its report. It stops at the first failing
// step; the partial report is returned alongside the error.
func Run(ctx context.Context, sc *Scenario, logger *log.Logger) (*Report, error) {
	if logger == nil {
		logger = log.Default()
	}
	start := time.Now()

	host, err := sim.New(sc.Layout.Width, sc.Layout.Height)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "layout")
	}
	host.SetQuirks(sc.Quirks)
	if sc.Body != (viewport.Size{}) {
		if err := host.SetBodySize(sc.Body.Width, sc.Body.Height); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "body")
		}
	}

	r := &runner{
		sc:      sc,
		host:    host,
		rec:     recorder.New(),
		sched:   schedule.NewManual(),
		targets: make(map[string]*target, len(sc.Targets)),
		report:  &Report{ID: uuid.New(), Name: sc.Name},
	}
	for _, name := range sc.Targets {
		r.targets[name] = &target{name: name}
	}

	opts := intersect.Options{RootMargin: sc.RootMargin, Thresholds: sc.Thresholds}
	r.obs, err = observer.New(r.callback, opts, observer.Config{
		Host:      host,
		Factory:   r.rec.Factory,
		Scheduler: r.sched,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	r.report.ObserverID = r.obs.ID()
	logger.Info("running scenario", "name", sc.Name, "steps", len(sc.Steps), "run", r.report.ID.String()[:8])

	for _, name := range sc.Targets {
		r.obs.Observe(r.targets[name])
	}

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			r.finish(start)
			return r.report, err
		}
		r.step = i + 1
		if err := r.apply(st); err != nil {
			r.finish(start)
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			return r.report, errors.Wrap(code, err, "step %d (%s)", r.step, st.Action)
		}
		r.report.Steps = append(r.report.Steps, StepResult{
			Index:      r.step,
			Action:     st.Action,
			Visual:     host.VisualViewport(),
			RootMargin: r.obs.RootMargin(),
			Generation: r.obs.Generation(),
			Scheduled:  r.sched.Pending(),
		})
	}

	r.finish(start)
	return r.report, nil
}

func (r *runner) apply(st Step) error {
	switch st.Action {
	case ActionZoom:
		return r.host.Zoom(st.Scale)
	case ActionPan:
		return r.host.Pan(st.DX, st.DY)
	case ActionScrollTo:
		return r.host.ScrollTo(st.X, st.Y)
	case ActionResize:
		return r.host.Resize(st.Width, st.Height)
	case ActionEmit:
		r.host.Emit(viewport.EventKind(st.Event))
	case ActionObserve:
		r.obs.Observe(r.targets[st.Target])
	case ActionUnobserve:
		r.obs.Unobserve(r.targets[st.Target])
	case ActionEnqueue:
		inst := r.rec.Latest()
		inst.Enqueue(intersect.Entry{
			Time:              float64(r.step),
			Target:            r.targets[st.Target],
			IntersectionRatio: st.Ratio,
			IsIntersecting:    st.Intersecting,
		})
	case ActionDeliver:
		r.rec.Latest().Deliver()
	case ActionIdle:
		r.sched.RunPending()
	case ActionResync:
		return r.obs.Resync()
	case ActionDisconnect:
		r.obs.Disconnect()
	default:
		return errors.New(errors.ErrCodeInvalidScenario, "unknown action %q", st.Action)
	}
	return nil
}

func (r *runner) callback(entries []intersect.Entry, _ intersect.Observer) {
	d := Delivery{Step: r.step, Entries: make([]EntryReport, 0, len(entries))}
	for _, e := range entries {
		name := ""
		if t, ok := e.Target.(*target); ok {
			name = t.name
		}
		d.Entries = append(d.Entries, EntryReport{
			Target:         name,
			IsIntersecting: e.IsIntersecting,
			Ratio:          e.IntersectionRatio,
		})
	}
	r.report.Deliveries = append(r.report.Deliveries, d)
}

func (r *runner) finish(start time.Time) {
	for _, inst := range r.rec.Instances() {
		g := Generation{
			Number:       inst.Generation,
			ID:           inst.ID,
			RootMargin:   inst.RootMargin(),
			Disconnected: inst.Disconnected(),
		}
		for _, el := range inst.Targets() {
			if t, ok := el.(*target); ok {
				g.Targets = append(g.Targets, t.name)
			}
		}
		r.report.Generations = append(r.report.Generations, g)
	}
	r.report.State = r.obs.State().String()
	r.report.Duration = time.Since(start).Round(time.Microsecond).String()
}

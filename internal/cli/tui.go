package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/visualobserver/pkg/geom"
	"github.com/matzehuels/visualobserver/pkg/intersect"
	"github.com/matzehuels/visualobserver/pkg/intersect/recorder"
	"github.com/matzehuels/visualobserver/pkg/margin"
	"github.com/matzehuels/visualobserver/pkg/observability"
	"github.com/matzehuels/visualobserver/pkg/observer"
	"github.com/matzehuels/visualobserver/pkg/schedule"
	"github.com/matzehuels/visualobserver/pkg/viewport"
	"github.com/matzehuels/visualobserver/pkg/viewport/sim"
)

// idleInterval is how often the explorer lets deferred resyncs run, standing
// in for the browser's idle periods.
const idleInterval = 120 * time.Millisecond

const (
	zoomStep   = 1.25
	resizeStep = 80
)

// Canvas cell classes.
const (
	cellLayout   = '·'
	cellObserved = '░'
	cellVisual   = '▓'
	cellBoth     = '█'
)

var canvasStyles = map[rune]lipgloss.Style{
	cellLayout:   lipgloss.NewStyle().Foreground(colorDim),
	cellObserved: lipgloss.NewStyle().Foreground(colorYellow),
	cellVisual:   lipgloss.NewStyle().Foreground(colorBlue),
	cellBoth:     lipgloss.NewStyle().Foreground(colorGreen),
}

// tuiCommand creates the interactive explorer command.
func (c *CLI) tuiCommand() *cobra.Command {
	var (
		layout string
		spec   string
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Explore pinch-zoom and margins interactively",
		Long: `Open an interactive explorer of a simulated browser window.

Zoom and pan the visual viewport and watch the observer rebuild its
intersection observer with a new layout-space root margin once the
viewport settles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseSize(layout)
			if err != nil {
				return err
			}
			// Anything written to the terminal would corrupt the screen.
			observability.Reset()
			m, err := newExplorer(size, spec, log.New(io.Discard))
			if err != nil {
				return err
			}
			defer m.obs.Disconnect()

			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&layout, "layout", defaultLayout, "layout viewport size (WIDTHxHEIGHT)")
	cmd.Flags().StringVarP(&spec, "margin", "m", "0", "root margin relative to the visual viewport")
	return cmd
}

// tuiTarget is an element observed by the explorer.
type tuiTarget struct{ name string }

type idleMsg struct{}

// explorer is the bubbletea model of the tui command.
type explorer struct {
	host  *sim.Host
	rec   *recorder.Recorder
	sched *schedule.Manual
	obs   *observer.Observer

	cols, rows int
	err        error
}

func newExplorer(layout viewport.Size, spec string, logger *log.Logger) (*explorer, error) {
	host, err := sim.New(layout.Width, layout.Height)
	if err != nil {
		return nil, err
	}
	e := &explorer{
		host:  host,
		rec:   recorder.New(),
		sched: schedule.NewManual(),
		cols:  64,
		rows:  18,
	}
	e.obs, err = observer.New(func([]intersect.Entry, intersect.Observer) {}, intersect.Options{RootMargin: spec}, observer.Config{
		Host:      host,
		Factory:   e.rec.Factory,
		Scheduler: e.sched,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"header", "content", "footer"} {
		e.obs.Observe(&tuiTarget{name: name})
	}
	return e, nil
}

func idleTick() tea.Cmd {
	return tea.Tick(idleInterval, func(time.Time) tea.Msg { return idleMsg{} })
}

func (e *explorer) Init() tea.Cmd {
	return idleTick()
}

func (e *explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case idleMsg:
		e.sched.RunPending()
		return e, idleTick()
	case tea.WindowSizeMsg:
		e.cols = clamp(msg.Width-4, 20, 120)
		e.rows = clamp(msg.Height-14, 6, 40)
	case tea.KeyMsg:
		return e, e.handleKey(msg.String())
	}
	return e, nil
}

func (e *explorer) handleKey(key string) tea.Cmd {
	v := e.host.VisualViewport()
	stepX, stepY := v.Width/10, v.Height/10
	layout := e.host.DocumentElementClientSize()

	var err error
	switch key {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "left", "h":
		err = e.host.Pan(-stepX, 0)
	case "right", "l":
		err = e.host.Pan(stepX, 0)
	case "up", "k":
		err = e.host.Pan(0, -stepY)
	case "down", "j":
		err = e.host.Pan(0, stepY)
	case "+", "=":
		err = e.host.Zoom(v.Scale * zoomStep)
	case "-", "_":
		err = e.host.Zoom(v.Scale / zoomStep)
	case "0":
		err = e.host.Zoom(1)
	case "[":
		err = e.host.Resize(max(resizeStep, layout.Width-resizeStep), layout.Height)
	case "]":
		err = e.host.Resize(layout.Width+resizeStep, layout.Height)
	case "r":
		err = e.obs.Resync()
	}
	e.err = err
	return nil
}

func (e *explorer) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Visual viewport explorer"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←↓↑→ pan  +/- zoom  0 reset  [/] resize  r resync  q quit"))
	b.WriteString("\n\n")

	visual := viewport.VisualRect(e.host)
	root := viewport.RootRect(e.host)
	observed := margin.Expand(visual, e.obs.Margins())
	for _, row := range drawCanvas(root, visual, observed, e.cols, e.rows) {
		b.WriteString(styleRow(row))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	v := e.host.VisualViewport()
	pending := "settled"
	if e.sched.Pending() > 0 {
		pending = StyleWarning.Render("resync pending")
	}
	line := func(key, value string) {
		b.WriteString(styleKey.Render(key) + " " + StyleValue.Render(value) + "\n")
	}
	line("layout", root.String())
	line("visual", fmt.Sprintf("%s  ×%.2f", visual, v.Scale))
	line("margin", e.obs.Margins().String())
	line("root margin", StyleHighlight.Render(e.obs.RootMargin()))
	line("generation", fmt.Sprintf("%d  %s", e.obs.Generation(), pending))
	if e.err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + e.err.Error() + "\n")
	}
	return b.String()
}

// drawCanvas rasterizes the layout viewport into cols×rows cells, sampling
// each cell at its centre.
func drawCanvas(root, visual, observed geom.Rect, cols, rows int) []string {
	out := make([]string, rows)
	cellW := root.Width / float64(cols)
	cellH := root.Height / float64(rows)
	line := make([]rune, cols)
	for r := range rows {
		y := root.Top + (float64(r)+0.5)*cellH
		for c := range cols {
			x := root.Left + (float64(c)+0.5)*cellW
			inVisual := containsPoint(visual, x, y)
			inObserved := containsPoint(observed, x, y)
			switch {
			case inVisual && inObserved:
				line[c] = cellBoth
			case inVisual:
				line[c] = cellVisual
			case inObserved:
				line[c] = cellObserved
			default:
				line[c] = cellLayout
			}
		}
		out[r] = string(line)
	}
	return out
}

func containsPoint(r geom.Rect, x, y float64) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// styleRow colors runs of identical cells.
func styleRow(row string) string {
	var b strings.Builder
	runes := []rune(row)
	for start := 0; start < len(runes); {
		end := start + 1
		for end < len(runes) && runes[end] == runes[start] {
			end++
		}
		b.WriteString(canvasStyles[runes[start]].Render(string(runes[start:end])))
		start = end
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

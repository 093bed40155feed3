package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/geom"
	"github.com/matzehuels/visualobserver/pkg/margin"
	"github.com/matzehuels/visualobserver/pkg/viewport"
)

// translation is the result of translating one margin.
type translation struct {
	Viewport   viewport.Snapshot `json:"viewport"`
	Requested  string            `json:"requested"`
	RootMargin string            `json:"rootMargin"`
	Visual     geom.Rect         `json:"visual"`
	Root       geom.Rect         `json:"root"`
	Expanded   geom.Rect         `json:"expanded"`
}

type translateFlags struct {
	layout string
	body   string
	visual string
	offset string
	scale  float64
	margin string
	json   bool
}

// translateCommand creates the translate command.
func (c *CLI) translateCommand() *cobra.Command {
	var f translateFlags

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate a visual-viewport root margin for one viewport state",
		Long: `Translate a root margin expressed relative to the visual viewport into the
pixel root margin an intersection observer on the layout viewport needs.

The visual viewport is given either explicitly with --visual, or derived
from --scale and --offset the way pinch-zoom shrinks it.`,
		Example: `  visualobserver translate --layout 1000x800 --visual 50,50,400x300
  visualobserver translate --scale 2 --offset 250,200 --margin "10% 20px"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := f.snapshot()
			if err != nil {
				return err
			}
			tr, err := translate(snap, f.margin)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("translated", "from", tr.Requested, "to", tr.RootMargin)
			if f.json {
				return writeJSON(cmd.OutOrStdout(), tr)
			}
			printTranslation(tr)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.layout, "layout", defaultLayout, "layout viewport size (WIDTHxHEIGHT)")
	cmd.Flags().StringVar(&f.body, "body", "", "body client size, used where the layout size is 0")
	cmd.Flags().StringVar(&f.visual, "visual", "", "visual viewport (X,Y,WIDTHxHEIGHT); overrides --scale and --offset")
	cmd.Flags().Float64Var(&f.scale, "scale", 1, "pinch-zoom scale")
	cmd.Flags().StringVar(&f.offset, "offset", "0,0", "visual viewport offset (X,Y)")
	cmd.Flags().StringVarP(&f.margin, "margin", "m", "0", "root margin relative to the visual viewport")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON")

	return cmd
}

func (f translateFlags) snapshot() (viewport.Snapshot, error) {
	var snap viewport.Snapshot
	layout, err := parseSize(f.layout)
	if err != nil {
		return snap, err
	}
	snap.Layout = layout
	if f.body != "" {
		if snap.Body, err = parseSize(f.body); err != nil {
			return snap, err
		}
	}

	if f.visual != "" {
		snap.Visual, err = parseVisual(f.visual)
		return snap, err
	}

	if err := errors.ValidateScale(f.scale); err != nil {
		return snap, err
	}
	x, y, err := parsePoint(f.offset)
	if err != nil {
		return snap, err
	}
	root := viewport.RootRect(snap)
	snap.Visual = viewport.Visual{
		OffsetLeft: x,
		OffsetTop:  y,
		Width:      root.Width / f.scale,
		Height:     root.Height / f.scale,
		Scale:      f.scale,
	}
	return snap, nil
}

func translate(snap viewport.Snapshot, spec string) (translation, error) {
	m, err := margin.Parse(spec)
	if err != nil {
		return translation{}, err
	}
	visual := viewport.VisualRect(snap)
	return translation{
		Viewport:   snap,
		Requested:  m.String(),
		RootMargin: viewport.TransformRootMargin(snap, m),
		Visual:     visual,
		Root:       viewport.RootRect(snap),
		Expanded:   margin.Expand(visual, m),
	}, nil
}

func printTranslation(tr translation) {
	printKeyValue("layout", tr.Root.String())
	printKeyValue("visual", tr.Visual.String())
	printKeyValue("observed area", tr.Expanded.String())
	printNewline()
	printTransition("root margin", tr.Requested, tr.RootMargin)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

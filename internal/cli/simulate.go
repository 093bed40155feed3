package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visualobserver/pkg/scenario"
)

// simulateCommand creates the simulate command.
func (c *CLI) simulateCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "simulate SCENARIO.toml...",
		Short: "Replay viewport scenarios against a simulated browser",
		Long: `Replay one or more TOML scenarios against a simulated browser window.

Each scenario zooms, pans and resizes the visual viewport, queues
intersection entries and lets the idle scheduler run. The report lists
every intersection observer that was built, with its translated root
margin and targets, and every batch of entries delivered to the callback.`,
		Example: `  visualobserver simulate examples/scenarios/pinch.toml
  visualobserver simulate --json examples/scenarios/*.toml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := c.runScenarios(cmd.Context(), args)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), reports)
			}
			for i, r := range reports {
				if i > 0 {
					printNewline()
				}
				printReport(r)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	return cmd
}

func (c *CLI) runScenarios(ctx context.Context, paths []string) ([]*scenario.Report, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	var spinner *Spinner
	if len(paths) > 1 {
		spinner = newSpinner(ctx, "Replaying scenarios...")
		spinner.Start()
		defer spinner.Stop()
	}

	reports := make([]*scenario.Report, 0, len(paths))
	for i, path := range paths {
		if spinner != nil {
			spinner.SetMessage(fmt.Sprintf("Replaying %s (%d/%d)...", filepath.Base(path), i+1, len(paths)))
		}
		sc, err := scenario.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if sc.Name == "" {
			sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		report, err := scenario.Run(ctx, sc, logger)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", path, err)
		}
		reports = append(reports, report)
	}
	prog.done(fmt.Sprintf("Replayed %d scenario(s)", len(reports)))
	return reports, nil
}

func printReport(r *scenario.Report) {
	fmt.Println(StyleTitle.Render(r.Name) + " " + StyleDim.Render(r.ID.String()[:8]))

	for _, g := range r.Generations {
		targets := "none"
		if len(g.Targets) > 0 {
			targets = strings.Join(g.Targets, ", ")
		}
		status := StyleSuccess.Render("live")
		if g.Disconnected {
			status = StyleDim.Render("retired")
		}
		printInfo("generation %d  %s  %s", g.Number, StyleHighlight.Render(g.RootMargin), status)
		printDetail("targets: %s", targets)
	}

	for _, d := range r.Deliveries {
		parts := make([]string, len(d.Entries))
		for i, e := range d.Entries {
			state := "out"
			if e.IsIntersecting {
				state = "in"
			}
			parts[i] = fmt.Sprintf("%s %s %.2f", e.Target, state, e.Ratio)
		}
		if len(parts) == 0 {
			printDetail("step %d delivered: no entries", d.Step)
			continue
		}
		printDetail("step %d delivered: %s", d.Step, strings.Join(parts, "; "))
	}

	printKeyValue("state", r.State)
	printKeyValue("steps", fmt.Sprintf("%d", len(r.Steps)))
	printKeyValue("duration", r.Duration)
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/visualobserver/pkg/margin"
)

// parseCommand creates the parse command.
func (c *CLI) parseCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse MARGIN",
		Short: "Validate and normalize a root margin",
		Long: `Validate a root margin and print its four sides.

A margin has one to four values, each "0" or a number followed by px or %.
Missing sides follow the CSS shorthand rules.`,
		Example: `  visualobserver parse "10px 5%"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := margin.Parse(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				sides := make(map[string]string, len(m))
				for i, tok := range m {
					sides[margin.Side(i).String()] = tok.String()
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"rootMargin": m.String(),
					"sides":      sides,
				})
			}
			printSuccess("%s", StyleHighlight.Render(m.String()))
			for i, tok := range m {
				printKeyValue(margin.Side(i).String(), tok.String())
			}
			if !m.IsPixels() {
				printDetail("percentages resolve against the visual viewport (top/bottom: height, left/right: width)")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

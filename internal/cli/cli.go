// Package cli implements the visualobserver command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/visualobserver/pkg/buildinfo"
	"github.com/matzehuels/visualobserver/pkg/observability"
)

const (
	appName = "visualobserver"

	// defaultLayout is the layout viewport used when --layout is omitted,
	// a typical laptop browser window.
	defaultLayout = "1280x800"

	defaultAddr = "127.0.0.1:8080"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Observer and HTTP events are logged at debug level through c.Logger.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Intersection observers anchored to the visual viewport",
		Long: `visualobserver translates intersection observer root margins from the
visual viewport (what the user sees after pinch-zoom) into the layout
viewport the browser measures against, and keeps them in sync as the user
zooms and pans.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			hooks := newLogHooks(c.Logger)
			observability.SetObserverHooks(hooks)
			observability.SetHTTPHooks(hooks)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.translateCommand())
	root.AddCommand(c.parseCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

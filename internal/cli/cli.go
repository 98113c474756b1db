package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/specialistvlad/nbflow/internal/app"
	"github.com/specialistvlad/nbflow/internal/config"
	"github.com/spf13/cobra"
)

// ExitError is an error that carries a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath      string
	logLevel        string
	logFormat       string
	engineURL       string
	transport       string
	healthcheckPort int

	appOpts []app.Option
}

// Run executes the nbflow command line with args.
func Run(ctx context.Context, args []string, outW, errW io.Writer, appOpts ...app.Option) error {
	root := NewRootCommand(outW, errW, appOpts...)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. appOpts are passed to every App the
// subcommands create.
func NewRootCommand(outW, errW io.Writer, appOpts ...app.Option) *cobra.Command {
	root, _ := newRootCommand(outW, errW, appOpts)
	return root
}

func newRootCommand(outW, errW io.Writer, appOpts []app.Option) (*cobra.Command, *globalFlags) {
	g := &globalFlags{appOpts: appOpts}

	root := &cobra.Command{
		Use:   "nbflow",
		Short: "Dataflow highlighting for notebooks",
		Long: `nbflow connects a notebook to a dataflow analysis engine and shows which
cells are waiting on others, which are ready to run, and which would make
others ready.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Path to an HCL config file.")
	pf.StringVar(&g.logLevel, "log-level", "info", "Logging level: debug, info, warn or error.")
	pf.StringVar(&g.logFormat, "log-format", "json", "Log output format: text or json.")
	pf.StringVar(&g.engineURL, "engine-url", "", "Analysis engine URL; overrides engine.url.")
	pf.StringVar(&g.transport, "transport", "", "Channel transport: websocket or socketio; overrides engine.transport.")
	pf.IntVar(&g.healthcheckPort, "healthcheck-port", 0, "Port for the health and metrics server. 0 is disabled.")

	root.AddCommand(newInspectCommand(g), newWatchCommand(g))
	return root, g
}

func newInspectCommand(g *globalFlags) *cobra.Command {
	var (
		timeout  time.Duration
		selectID string
	)
	cmd := &cobra.Command{
		Use:   "inspect NOTEBOOK.ipynb",
		Short: "Classify a notebook once and print the highlight table",
		Args:  exactlyOneNotebook,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			a := app.NewApp(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, g.appOpts...)
			return a.Inspect(cmd.Context(), app.InspectOptions{
				Path:    args[0],
				Timeout: timeout,
				Select:  selectID,
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "How long to wait for the first classification.")
	cmd.Flags().StringVar(&selectID, "select", "", "Report this cell as the active cell after classifying.")
	return cmd
}

func newWatchCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch NOTEBOOK.ipynb",
		Short: "Keep a session open and re-classify whenever the file changes",
		Args:  exactlyOneNotebook,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			a := app.NewApp(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, g.appOpts...)
			return a.Watch(cmd.Context(), args[0])
		},
	}
}

func exactlyOneNotebook(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usageError(fmt.Errorf("%s expects exactly one notebook path, got %d", cmd.Name(), len(args)))
	}
	return nil
}

// config loads the config file and applies the flags the user set
// explicitly on top of it.
func (g *globalFlags) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), g.configPath)
	if err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return nil, usageError(err)
		}
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = strings.ToLower(g.logLevel)
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = strings.ToLower(g.logFormat)
	}
	if flags.Changed("engine-url") {
		cfg.Engine.URL = g.engineURL
	}
	if flags.Changed("transport") {
		cfg.Engine.Transport = strings.ToLower(g.transport)
	}
	if flags.Changed("healthcheck-port") {
		cfg.HealthcheckPort = g.healthcheckPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

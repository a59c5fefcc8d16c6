// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/config"
	"github.com/jeranaias/deskshell/internal/logging"
	"github.com/jeranaias/deskshell/internal/session"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds global flags and the state PersistentPreRunE resolves.
type rootOptions struct {
	configPath string
	plain      bool
	user       string

	cfg        *config.Config
	watchPath  string
	log        *logging.Logger
	appOptions []AppOption
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the deskshell command tree.
func NewRootCommand(opts ...AppOption) *cobra.Command {
	o := &rootOptions{appOptions: opts}

	root := &cobra.Command{
		Use:   "deskshell",
		Short: "deskshell - a portfolio desktop's terminal",
		Long: `deskshell is the command interpreter behind a portfolio desktop's
terminal window: a small shell with history, aliases, tab completion and
"did you mean" suggestions.

Without a subcommand it opens the full-screen terminal. With --plain, or
when stdin is not a terminal, it reads lines instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.NoArgs),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if o.log != nil {
				_ = o.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.interactive(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(ExitUsageError, err)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "config file (default ~/.deskshell/config.toml)")
	flags.BoolVar(&o.plain, "plain", false, "use the line REPL instead of the full-screen terminal")
	flags.StringVarP(&o.user, "user", "u", "", "key under which history and aliases persist")

	root.AddCommand(
		o.runCmd(),
		o.historyCmd(),
		o.aliasesCmd(),
		o.configCmd(),
		versionCmd(),
	)
	return root
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withCode(ExitUsageError, validate(cmd, args))
	}
}

// =============================================================================
// SETUP
// =============================================================================

func (o *rootOptions) setup() error {
	cfg, err := o.loadConfig()
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	o.cfg = cfg
	o.log = newLogger(cfg.Log)

	if o.user != "" {
		o.appOptions = append(o.appOptions, WithUser(o.user))
	}
	return nil
}

// loadConfig reads --config, or the default location. A broken default
// file is reported and defaults are used.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		cfg, err := config.LoadFromPath(o.configPath)
		if err != nil {
			return nil, err
		}
		o.watchPath = o.configPath
		return cfg, nil
	}

	cfg, err := config.Load()
	if cfg == nil {
		return nil, err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if path, pathErr := config.ConfigPathTOML(); pathErr == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			o.watchPath = path
		}
	}
	return cfg, nil
}

// newLogger writes logs to the configured file, or the default log file,
// so they never interleave with shell output.
func newLogger(lc config.LogConfig) *logging.Logger {
	path := lc.File
	if path == "" {
		p, err := config.DefaultLogPath()
		if err != nil {
			return logging.NewNop()
		}
		path = p
	}

	logCfg := logging.FileConfig(lc.Level, path)
	logCfg.Development = lc.Development
	log, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return logging.NewNop()
	}
	return log
}

// =============================================================================
// INTERACTIVE
// =============================================================================

func (o *rootOptions) interactive(cmd *cobra.Command) error {
	ctx := cmd.Context()
	o.log.Info("starting",
		zap.String("version", Version),
		zap.Bool("plain", o.plain || o.cfg.UI.Plain),
		zap.String("config", o.watchPath))

	if o.plain || o.cfg.UI.Plain || !IsTTY() || !IsStdoutTTY() {
		return o.runPlain(ctx, cmd.OutOrStdout())
	}
	return runTUI(ctx, o.cfg, o.watchPath, o.log, o.appOptions...)
}

// runPlain runs the liner REPL on the process stdin.
func (o *rootOptions) runPlain(ctx context.Context, w io.Writer) error {
	out := NewLineSurface(w, o.cfg.UI.Theme)
	app, err := o.newApp(out, w)
	if err != nil {
		return err
	}
	defer app.Close()

	s := app.NewSession(ctx, out)
	if err := s.Restore(ctx); err != nil {
		out.Notice(commands.StyleWarning, "history could not be restored: "+err.Error())
	}
	s.Welcome()

	line := newLiner(app)
	repl := NewREPL(app, s, line, out)
	runErr := repl.Run(ctx)
	line.Close()

	if err := s.Close(context.WithoutCancel(ctx)); err != nil {
		out.Notice(commands.StyleWarning, "history could not be saved: "+err.Error())
	}
	return runErr
}

// newApp builds an App printing theme changes and achievements to out.
func (o *rootOptions) newApp(out *LineSurface, w io.Writer) (*App, error) {
	opts := append([]AppOption{
		WithThemeHandler(out.SetTheme),
		WithAchievementHandler(func(name string) {
			out.Notice(commands.StyleSuccess, "achievement unlocked: "+name)
		}),
		WithMarkdown(markdownStyle(w, o.cfg.UI.Theme)),
	}, o.appOptions...)
	return NewApp(o.cfg, o.log, opts...)
}

// oneShot builds an App and a restored session for a subcommand.
func (o *rootOptions) oneShot(ctx context.Context, w io.Writer) (*App, *session.Session, *LineSurface, error) {
	out := NewLineSurface(w, o.cfg.UI.Theme)
	app, err := o.newApp(out, w)
	if err != nil {
		return nil, nil, nil, err
	}
	s := app.NewSession(ctx, out)
	if err := s.Restore(ctx); err != nil {
		o.log.Warn("restore failed", zap.Error(err))
	}
	return app, s, out, nil
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

func (o *rootOptions) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <line>...",
		Short: "Run one command line and exit",
		Long: `Run one command line through the shell, exactly as if it was typed,
then save history and aliases. Arguments are joined with spaces.`,
		Example: `  deskshell run 'echo "hello world"'
  deskshell run projects deskshell
  deskshell run 'alias ll=projects'`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			app, s, _, err := o.oneShot(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()

			line := strings.Join(args, " ")
			s.Submit(ctx, line)

			if err := s.Close(context.WithoutCancel(ctx)); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			for _, l := range s.Lines() {
				if l.Style == commands.StyleError {
					return fmt.Errorf("%w: %s", ErrCommandFailed, line)
				}
			}
			return nil
		},
	}
}

func (o *rootOptions) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [query]",
		Short: "List or search the saved history",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := "history"
			if len(args) == 1 {
				line += " " + commands.Quote(args[0])
			}
			return o.inspect(cmd, line)
		},
	}
}

func (o *rootOptions) aliasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aliases",
		Short: "List the saved and configured aliases",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.inspect(cmd, "alias")
		},
	}
}

// inspect prints the output of a read-only shell command.
func (o *rootOptions) inspect(cmd *cobra.Command, line string) error {
	ctx := cmd.Context()
	app, s, out, err := o.oneShot(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Inspect(ctx, s, line)
	if err != nil {
		return err
	}
	out.Append(res.Lines)
	return nil
}

func (o *rootOptions) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after the config file, defaults and DESKSHELL_*
environment overrides are applied.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.watchPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", o.watchPath)
			}
			fmt.Fprint(cmd.OutOrStdout(), o.cfg.String())
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "deskshell %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

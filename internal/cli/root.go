// Package cli wires the cobra command tree that hosts a todo store session.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/kv"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todos"
	"github.com/idilsaglam/tada/internal/ui"
)

// App carries root flags and output streams to every subcommand.
type App struct {
	ConfigPath string
	Backend    string
	Path       string
	Key        string
	LogLevel   string
	Theme      string

	out, errOut io.Writer
}

// usageError marks failures caused by how the command was invoked.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error {
	return usageError{msg: fmt.Sprintf(format, a...)}
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, out, errOut io.Writer) int {
	app := &App{out: out, errOut: errOut}
	cmd := NewRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.Execute()
	if err == nil {
		return 0
	}
	ui.Fail(errOut, err.Error())
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(errOut, ui.Current().Muted.Render("Hint: run `todo help` for usage"))
		return 2
	}
	return 1
}

func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "todo - a tiny persistent todo list",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  todo add "Buy milk"
  todo ls --filter active
  todo done 2
  todo edit 2 "Buy oat milk"
  todo rm 3
  todo clear`),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("unknown subcommand: %s", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			return runTUI(cmd, app)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})

	f := cmd.PersistentFlags()
	f.StringVar(&app.ConfigPath, "config", "", "Path to a TOML config file (default: tada.toml in the working directory)")
	f.StringVar(&app.Backend, "backend", "", "Storage backend (file|sqlite|memory)")
	f.StringVar(&app.Path, "path", "", "Storage location: directory for file, database file for sqlite")
	f.StringVar(&app.Key, "key", "", "Storage key the list is kept under (default todos-v1)")
	f.StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	f.StringVar(&app.Theme, "theme", "", "Color theme (classic|neon|mono)")

	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newClearCmd(app))
	cmd.AddCommand(newTUICmd(app))
	return cmd
}

// session is one opened store plus the backend it persists to.
type session struct {
	cfg     *config.Config
	store   *todos.Store
	backend kv.Store
	log     *log.Logger
}

func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return nil, err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Storage.Backend, a.Backend)
	override(&cfg.Storage.Path, a.Path)
	override(&cfg.Storage.Key, a.Key)
	override(&cfg.Log.Level, a.LogLevel)
	override(&cfg.UI.Theme, a.Theme)
	if err := cfg.Validate(); err != nil {
		return nil, usageError{msg: err.Error()}
	}
	return cfg, nil
}

func (a *App) open(ctx context.Context) (*session, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	ui.SetTheme(cfg.UI.Theme)

	logger, err := logging.New(a.errOut, cfg.LogOptions())
	if err != nil {
		return nil, err
	}
	backend, err := kv.Open(ctx, cfg.Storage.Backend, cfg.StoragePath())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	filter, _ := model.ParseFilter(cfg.UI.Filter)
	store := todos.New(backend, cfg.Storage.Key,
		todos.WithLogger(logger),
		todos.WithFilter(filter),
	)
	logger.Debug("opened store", "backend", cfg.Storage.Backend, "path", cfg.StoragePath(), "key", cfg.Storage.Key, "count", store.Len())
	return &session{cfg: cfg, store: store, backend: backend, log: logger}, nil
}

// close flushes the store before releasing the backend.
func (s *session) close() {
	_ = s.store.Close()
	if err := s.backend.Close(); err != nil {
		s.log.Error("close storage", "err", err)
	}
}

// withStore runs fn against a freshly opened session and closes it after.
func (a *App) withStore(cmd *cobra.Command, fn func(*session) error) error {
	s, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/todos"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

func minArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usagef("usage: todo %s", usage)
		}
		return nil
	}
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: todo %s", usage)
		}
		return nil
	}
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a new item (title can be multiple words)",
		Args:  minArgs(1, "add <title...>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd, func(s *session) error {
				if _, ok := s.store.Add(strings.Join(args, " ")); !ok {
					return usagef("add: empty title")
				}
				ui.OK(app.out, "added")
				return nil
			})
		},
	}
}

func newListCmd(app *App) *cobra.Command {
	var (
		filter  string
		group   bool
		showIDs bool
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List items",
		Args:    exactArgs(0, "ls [--filter all|active|completed] [--group]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd, func(s *session) error {
				if cmd.Flags().Changed("filter") {
					f, err := model.ParseFilter(filter)
					if err != nil {
						return usageError{msg: err.Error()}
					}
					s.store.SetFilter(f)
				}
				ui.Panel(app.out, listLines(s.store, listOptions{Group: group, IDs: showIDs}))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "Show only all|active|completed items")
	cmd.Flags().BoolVar(&group, "group", false, "Group output by pending/done")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show item ids")
	return cmd
}

func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <index|id>",
		Short: "Toggle done for an item",
		Args:  exactArgs(1, "done <index|id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd, func(s *session) error {
				id, err := resolveRef(s.store, args[0])
				if err != nil {
					return err
				}
				s.store.Toggle(id)
				ui.OK(app.out, "toggled")
				return nil
			})
		},
	}
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <index|id> <title...>",
		Short: "Rename an item",
		Args:  minArgs(2, "edit <index|id> <title...>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd, func(s *session) error {
				id, err := resolveRef(s.store, args[0])
				if err != nil {
					return err
				}
				if !s.store.UpdateTitle(id, strings.Join(args[1:], " ")) {
					return usagef("edit: empty title")
				}
				ui.OK(app.out, "renamed")
				return nil
			})
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <index|id>",
		Short: "Remove an item",
		Args:  exactArgs(1, "rm <index|id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd, func(s *session) error {
				id, err := resolveRef(s.store, args[0])
				if err != nil {
					return err
				}
				s.store.Remove(id)
				ui.OK(app.out, "removed")
				return nil
			})
		},
	}
}

func newClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every completed item",
		Args:  exactArgs(0, "clear"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd, func(s *session) error {
				n := s.store.ClearCompleted()
				ui.OK(app.out, fmt.Sprintf("cleared %d completed", n))
				return nil
			})
		},
	}
}

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit items interactively",
		Args:  exactArgs(0, "tui"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	s, err := app.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()
	if err := tui.Run(s.store); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// resolveRef maps a 1-based index into the full list, an id, or a unique
// id prefix to an id.
func resolveRef(s *todos.Store, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", usagef("empty item reference")
	}
	items := s.Items()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(items) {
			return "", usagef("index out of range: have %d, got %d", len(items), n)
		}
		return items[n-1].ID, nil
	}
	if _, ok := s.Get(ref); ok {
		return ref, nil
	}
	var match string
	for _, t := range items {
		if strings.HasPrefix(t.ID, ref) {
			if match != "" {
				return "", usagef("ambiguous id prefix %q", ref)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", usagef("no item matches %q", ref)
	}
	return match, nil
}

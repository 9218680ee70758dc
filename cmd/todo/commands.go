package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytakahashi/todo-app/internal/controller"
	"github.com/ytakahashi/todo-app/internal/ui"
)

func (a *app) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), ui.List(a.ctrl.State()))
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a todo",
		Example: `  todo add "Buy milk"
  todo add walk the dog`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.ctrl.SetDraft(strings.Join(args, " "))
			if err := a.ctrl.Create(cmd.Context()); err != nil {
				return err
			}
			todos := a.ctrl.Todos()
			ui.OK(cmd.OutOrStdout(), "added "+todos[len(todos)-1].ID)
			return nil
		},
	}
}

func (a *app) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a todo between done and not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := a.resolve(args[0])
			if err := a.ctrl.Toggle(cmd.Context(), id); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "toggled")
			return nil
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text...>",
		Short: "Replace the text of a todo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctrl.BeginEdit(a.resolve(args[0])); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			a.ctrl.SetEditText(strings.Join(args[1:], " "))
			if err := a.ctrl.SubmitEdit(cmd.Context()); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "edited")
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctrl.Delete(cmd.Context(), a.resolve(args[0])); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "removed")
			return nil
		},
	}
}

func (a *app) selectAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select-all",
		Short: "Mark every todo done",
		Long: `select-all selects every todo and marks all of them done. The list starts
with nothing selected, so this never unmarks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctrl.ToggleSelectAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.List(a.ctrl.State()))
			return nil
		},
	}
}

func (a *app) rmSelectedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-selected <id...>",
		Short: "Select the given todos and delete them in one request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				id := a.resolve(arg)
				if a.ctrl.IsSelected(id) {
					continue
				}
				if !a.ctrl.ToggleSelection(id) {
					return fmt.Errorf("%s: %w", arg, controller.ErrNotFound)
				}
			}

			before := len(a.ctrl.Todos())
			if err := a.ctrl.DeleteSelected(cmd.Context()); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("%d todos deleted", before-len(a.ctrl.Todos())))
			return nil
		},
	}
}

func (a *app) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), a.ctrl)
		},
	}
}

// resolve maps a 1-based position from "todo ls" to an id. Anything else is
// taken as an id.
func (a *app) resolve(arg string) string {
	todos := a.ctrl.Todos()
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(todos) {
		return todos[n-1].ID
	}
	return arg
}

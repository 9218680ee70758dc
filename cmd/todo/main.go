// Package main provides the todo CLI.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ytakahashi/todo-app/internal/client"
	"github.com/ytakahashi/todo-app/internal/controller"
	"github.com/ytakahashi/todo-app/internal/logging"
	"github.com/ytakahashi/todo-app/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		ui.Fail(os.Stderr, errorMessage(err))
		stop()
		os.Exit(1)
	}
}

// runTUI starts the interactive client. Tests replace it.
var runTUI = ui.Run

// app is the state shared by every subcommand once PersistentPreRunE ran.
type app struct {
	configFile string
	logger     *log.Logger
	ctrl       *controller.Controller
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "todo",
		Short: "todo manages a shared todo list",
		Long: `todo talks to the todo REST API. Every one-shot subcommand loads the
current list first, then applies one change through the same controller the
interactive client uses.

Todos are addressed by id or by their 1-based position in "todo ls".`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.ctrl != nil {
				a.ctrl.Close()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/todo/config.yaml)")
	flags.String("api-url", defaultAPIURL, "base URL of the todo API")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		a.lsCmd(),
		a.addCmd(),
		a.toggleCmd(),
		a.editCmd(),
		a.rmCmd(),
		a.selectAllCmd(),
		a.rmSelectedCmd(),
		a.tuiCmd(),
	)
	return rootCmd
}

// setup loads the configuration, builds the controller and loads the list.
// tui skips the load: the program loads on start and shows a failure as a
// notice instead of exiting.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	v, err := loadConfig(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}

	a.logger = logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:  v.GetString(cfgKeyLogLevel),
		Prefix: "todo",
	})
	a.logger.Debug("Using API", "url", v.GetString(cfgKeyAPIURL))

	a.ctrl = controller.New(client.New(v.GetString(cfgKeyAPIURL)), controller.Options{
		MinDraftLength: v.GetInt(cfgKeyMinLength),
		Logger:         a.logger,
	})
	if cmd.Name() == "tui" {
		return nil
	}
	return a.ctrl.Load(cmd.Context())
}

// errorMessage prefers what the server said over the wrapping chain.
func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

package cli

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/diary/internal/client/config"
	"github.com/spf13/cobra"
)

// newApp is a test seam for NewApp.
var newApp = NewApp

// NewRootCommand builds the diary command tree. Commands open the App on
// first use; it is closed when the command returns, whatever the outcome.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	var (
		app *App
		ctx context.Context
	)
	open := func() (*App, error) {
		if app != nil {
			return app, nil
		}
		var err error
		app, err = newApp(ctx, cfg, in, out)
		return app, err
	}
	closeApp := func() error {
		if app == nil {
			return nil
		}
		err := app.Close()
		app = nil
		return err
	}

	cmd := &cobra.Command{
		Use:           "diary",
		Short:         "A diary kept on a server, with images in S3.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx = cmd.Context()
			return cfg.Resolve(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cfg.BindFlags(cmd.PersistentFlags())

	addAuth(cmd, open)
	addList(cmd, open)
	addWrite(cmd, open)
	addEdit(cmd, open)
	addShow(cmd, open)
	addDelete(cmd, open)
	addRetry(cmd, open)

	for _, c := range cmd.Commands() {
		run := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			return errors.Join(err, closeApp())
		}
	}

	return cmd
}

// Execute runs the command tree against the process arguments.
func Execute(ctx context.Context, in io.Reader, out io.Writer) error {
	return NewRootCommand(in, out).ExecuteContext(ctx)
}

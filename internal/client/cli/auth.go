package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type credentialOptions struct {
	UserName string
}

func addCredentialArgs(cmd *cobra.Command, o *credentialOptions) {
	cmd.Flags().StringVarP(&o.UserName, "user", "n", "", "user name; prompted when empty")
}

// credentials prompts for whatever was not given as a flag.
func (a *App) credentials(o *credentialOptions) (string, string, error) {
	userName := o.UserName
	if userName == "" {
		var err error
		if userName, err = a.prompt.Text("Enter user name"); err != nil {
			return "", "", err
		}
	}
	password, err := a.prompt.Password()
	if err != nil {
		return "", "", err
	}
	return userName, password, nil
}

func addAuth(topLevel *cobra.Command, app func() (*App, error)) {
	ro := &credentialOptions{}
	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			userName, password, err := a.credentials(ro)
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()
			if err := a.remote.Register(ctx, userName, password); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Registered. Run 'diary login' to sign in.")
			return nil
		},
	}
	addCredentialArgs(register, ro)

	lo := &credentialOptions{}
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			userName, password, err := a.credentials(lo)
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()
			if err := a.remote.Login(ctx, userName, password); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s.\n", userName)
			return nil
		},
	}
	addCredentialArgs(login, lo)

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}

	ping := &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()
			if err := a.remote.Ping(ctx); err != nil {
				return err
			}
			status := "signed out"
			if id, ok := a.session.UserID(cmd.Context()); ok {
				status = "signed in as " + id
			}
			fmt.Fprintf(a.out, "Server is up, %s.\n", status)
			return nil
		},
	}

	topLevel.AddCommand(register, login, logout, ping)
}

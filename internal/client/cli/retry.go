package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addRetry(topLevel *cobra.Command, app func() (*App, error)) {
	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Finish image uploads and deletes that did not complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			rep, err := a.images.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Uploaded %d, deleted %d, dropped %d, still failing %d.\n",
				rep.Uploaded, rep.Deleted, rep.Dropped, rep.Failed)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

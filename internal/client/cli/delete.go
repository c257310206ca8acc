package cli

import (
	"fmt"

	"github.com/dmitrijs2005/diary/internal/client/editor"
	"github.com/spf13/cobra"
)

type deleteAllOptions struct {
	Yes bool
}

func addDelete(topLevel *cobra.Command, app func() (*App, error)) {
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry and its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ed, err := editor.Open(ctx, a.editorDeps(), args[0])
			if err != nil {
				return err
			}
			defer ed.Close()

			deleted, err := ed.Delete(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted %s.\n", deleted.ID)
			return nil
		},
	}

	o := &deleteAllOptions{}
	all := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every entry and every image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if !o.Yes {
				answer, err := a.prompt.Text("Delete all entries? Type 'yes' to confirm")
				if err != nil {
					return err
				}
				if answer != "yes" {
					fmt.Fprintln(a.out, "Nothing deleted.")
					return nil
				}
			}

			rctx, cancel := a.requestContext(ctx)
			defer cancel()
			deleted, err := a.remote.DeleteAll(rctx)
			if err != nil {
				return err
			}

			var paths []string
			for _, e := range deleted {
				paths = append(paths, e.Images...)
			}
			a.images.CommitDeletes(ctx, paths)

			fmt.Fprintf(a.out, "Deleted %d entries and %d images.\n", len(deleted), len(paths))
			return nil
		},
	}
	all.Flags().BoolVarP(&o.Yes, "yes", "y", false, "do not ask for confirmation")

	topLevel.AddCommand(del, all)
}

package cli

import (
	"fmt"
	"sort"

	"github.com/dmitrijs2005/diary/internal/models"
	"github.com/spf13/cobra"
)

type showOptions struct {
	Fetch bool
}

func addShow(topLevel *cobra.Command, app func() (*App, error)) {
	o := &showOptions{}
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one entry with links to its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			e, err := settled(ctx, a.remote.GetByID(ctx, args[0]))
			if err != nil {
				return err
			}
			renderEntry(a.out, e, a.loc)

			if len(e.Images) == 0 {
				return nil
			}
			fmt.Fprintln(a.out, bold.Sprint("Images"))

			if o.Fetch {
				var got []models.Image
				err := a.images.Fetch(ctx, e.Images, func(img models.Image) {
					got = append(got, img)
				})
				sort.Slice(got, func(i, j int) bool { return got[i].Index < got[j].Index })
				for _, img := range got {
					fmt.Fprintf(a.out, "  %s\n", img.LocalPath)
				}
				return err
			}

			for _, p := range e.Images {
				url, err := a.images.URL(ctx, p)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "  %s\n    %s\n", p, url)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&o.Fetch, "fetch", "f", false, "download the images into the cache and print their paths")
	topLevel.AddCommand(cmd)
}

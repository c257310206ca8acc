package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/diary/internal/models"
	"github.com/spf13/cobra"
)

// DateOptions selects the date filter of list and watch.
type DateOptions struct {
	DateString string
}

func addDateArgs(cmd *cobra.Command, o *DateOptions) {
	cmd.Flags().StringVarP(&o.DateString, "date", "d", "",
		`Only show entries within a day of this date, example: --date=2024-05-01.`)
}

// stream opens the grouped view, filtered when a date was given. The
// filter is centred on the start of that day in the viewer's zone.
func (a *App) stream(ctx context.Context, o *DateOptions) (<-chan models.Result[models.Diaries], error) {
	if o.DateString == "" {
		return a.remote.ListAll(ctx), nil
	}
	d, err := models.ParseDate(o.DateString)
	if err != nil {
		return nil, fmt.Errorf("--date: %w", err)
	}
	return a.remote.ListFiltered(ctx, d.In(a.loc)), nil
}

func addList(topLevel *cobra.Command, app func() (*App, error)) {
	lo := &DateOptions{}
	list := &cobra.Command{
		Use:   "list",
		Short: "Print entries grouped by day",
		Example: `
diary list
diary list --date 2024-05-01
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			results, err := a.stream(ctx, lo)
			if err != nil {
				return err
			}
			d, err := settled(ctx, results)
			if err != nil {
				return err
			}
			renderDiaries(a.out, d, a.loc)
			return nil
		},
	}
	addDateArgs(list, lo)

	wo := &DateOptions{}
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print entries grouped by day, again on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			results, err := a.stream(cmd.Context(), wo)
			if err != nil {
				return err
			}
			for r := range results {
				switch {
				case r.IsLoading():
					fmt.Fprintln(a.out, "Loading...")
				case r.IsError():
					return r.Err
				default:
					fmt.Fprintln(a.out, bold.Sprint("── ", time.Now().In(a.loc).Format("15:04:05"), " ──"))
					renderDiaries(a.out, r.Data, a.loc)
				}
			}
			return nil
		},
	}
	addDateArgs(watch, wo)

	topLevel.AddCommand(list, watch)
}

// settled returns the first value of a stream that is not Loading.
func settled[T any](ctx context.Context, results <-chan models.Result[T]) (T, error) {
	var zero T
	for r := range results {
		switch {
		case r.IsSuccess():
			return r.Data, nil
		case r.IsError():
			return zero, r.Err
		}
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return zero, fmt.Errorf("stream ended without a result")
}

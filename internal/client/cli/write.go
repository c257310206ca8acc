package cli

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/diary/internal/client/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var whenLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", time.DateOnly}

// EntryOptions are the field edits shared by write and edit.
type EntryOptions struct {
	Title        string
	Description  string
	Mood         string
	When         string
	Images       []string
	RemoveImages []string
	Interactive  bool
}

func addEntryArgs(cmd *cobra.Command, o *EntryOptions) {
	cmd.Flags().StringVar(&o.Title, "title", "", "entry title")
	cmd.Flags().StringVar(&o.Description, "description", "", "entry text")
	cmd.Flags().StringVarP(&o.Mood, "mood", "m", "", "mood, for example happy or calm")
	cmd.Flags().StringVar(&o.When, "when", "", `entry timestamp in the viewer's zone, example: --when="2024-05-01 21:30"`)
	cmd.Flags().StringArrayVar(&o.Images, "image", nil, "attach a local image (repeatable)")
	cmd.Flags().BoolVarP(&o.Interactive, "interactive", "i", false, "prompt for title, text and mood")
}

func parseWhen(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("--when: cannot parse %q", s)
}

// applyEdits copies the flags that were set, then the interactive answers,
// into the session.
func (a *App) applyEdits(ctx context.Context, ed *editor.Editor, o *EntryOptions, flags *pflag.FlagSet) error {
	if o.Interactive {
		var err error
		if o.Title, err = a.prompt.Text("Title"); err != nil {
			return err
		}
		if o.Description, err = a.prompt.Multiline("What happened today?"); err != nil {
			return err
		}
		if o.Mood, err = a.prompt.Text("Mood (empty for Neutral)"); err != nil {
			return err
		}
	}

	if o.Interactive || flags.Changed("title") {
		if err := ed.SetTitle(o.Title); err != nil {
			return err
		}
	}
	if o.Interactive || flags.Changed("description") {
		if err := ed.SetDescription(o.Description); err != nil {
			return err
		}
	}
	if o.Interactive || flags.Changed("mood") {
		if err := ed.SetMood(o.Mood); err != nil {
			return err
		}
	}
	if o.When != "" {
		t, err := parseWhen(o.When, a.loc)
		if err != nil {
			return err
		}
		if err := ed.SetDate(t); err != nil {
			return err
		}
	}

	for _, p := range o.RemoveImages {
		if err := ed.RemoveImage(p); err != nil {
			return err
		}
	}
	for _, p := range o.Images {
		if _, err := ed.AttachImage(ctx, p, mime.TypeByExtension(filepath.Ext(p))); err != nil {
			return err
		}
	}
	return nil
}

// save stores the session and reports what happens to its images.
func (a *App) save(ctx context.Context, ed *editor.Editor) error {
	pending := 0
	for _, img := range ed.State().Images {
		if img.PendingUpload {
			pending++
		}
	}

	saved, err := ed.Save(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Saved %s.\n", saved.ID)
	if pending > 0 {
		fmt.Fprintf(a.out, "Uploading %d image(s); failed uploads are kept for 'diary retry'.\n", pending)
	}
	return nil
}

// waitForImages blocks until the session's stored images are fetched and
// returns the settled state. Images that failed to download stay in the
// entry; the state's Err names them.
func waitForImages(ctx context.Context, ed *editor.Editor) (editor.State, error) {
	states, cancel := ed.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return editor.State{}, ctx.Err()
		case s, ok := <-states:
			if !ok {
				return editor.State{}, editor.ErrClosed
			}
			if !s.FetchingImages {
				return s, nil
			}
		}
	}
}

func addWrite(topLevel *cobra.Command, app func() (*App, error)) {
	o := &EntryOptions{}
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write a new entry",
		Example: `
diary write --title "Day 1" --mood happy --image beach.jpg
diary write -i
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ed, err := editor.Open(ctx, a.editorDeps(), "")
			if err != nil {
				return err
			}
			defer ed.Close()

			if err := a.applyEdits(ctx, ed, o, cmd.Flags()); err != nil {
				return err
			}
			return a.save(ctx, ed)
		},
	}
	addEntryArgs(cmd, o)
	topLevel.AddCommand(cmd)
}

func addEdit(topLevel *cobra.Command, app func() (*App, error)) {
	o := &EntryOptions{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an entry",
		Example: `
diary edit 6f1c... --title "Day 1, later"
diary edit 6f1c... --remove-image images/u1/beach-1714550400000.jpg
`,
		Args: cobra.ExactArgs(1),
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

			s, err := waitForImages(ctx, ed)
			if err != nil {
				return err
			}
			if s.Err != "" {
				a.logger.Warn(ctx, "some images were not downloaded", "id", s.ID, "error", s.Err)
			}
			if err := a.applyEdits(ctx, ed, o, cmd.Flags()); err != nil {
				return err
			}
			return a.save(ctx, ed)
		},
	}
	addEntryArgs(cmd, o)
	cmd.Flags().StringArrayVar(&o.RemoveImages, "remove-image", nil, "remove an attached image by remote path (repeatable)")
	topLevel.AddCommand(cmd)
}

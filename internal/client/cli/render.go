package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/diary/internal/models"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

var bold = color.New(color.Bold)

// renderDiaries prints one table per day, newest day first.
func renderDiaries(w io.Writer, ds models.Diaries, loc *time.Location) {
	if len(ds) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}

	for i, g := range ds {
		if i > 0 {
			fmt.Fprintln(w)
		}
		day := g.Date.In(loc)
		fmt.Fprintln(w, bold.Sprint(day.Format("Monday, 2 January 2006")))

		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.MaxColWidth = 50
		for _, e := range g.Entries {
			tbl.AddRow(e.Date.In(loc).Format("15:04"), string(e.Mood), title(e), imageCount(e), e.ID)
		}
		fmt.Fprintln(w, tbl)
	}
}

func renderEntry(w io.Writer, e models.Entry, loc *time.Location) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.MaxColWidth = 72
	tbl.AddRow(bold.Sprint("ID"), e.ID)
	tbl.AddRow(bold.Sprint("Date"), e.Date.In(loc).Format("2006-01-02 15:04 MST"))
	tbl.AddRow(bold.Sprint("Mood"), string(e.Mood))
	tbl.AddRow(bold.Sprint("Title"), title(e))
	if e.Description != "" {
		tbl.AddRow(bold.Sprint("Description"), e.Description)
	}
	fmt.Fprintln(w, tbl)
}

func title(e models.Entry) string {
	if strings.TrimSpace(e.Title) == "" {
		return "(untitled)"
	}
	return e.Title
}

func imageCount(e models.Entry) string {
	switch n := len(e.Images); n {
	case 0:
		return ""
	case 1:
		return "1 image"
	default:
		return fmt.Sprintf("%d images", n)
	}
}

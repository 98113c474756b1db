// Package report renders the highlight state of a notebook as a table.
package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/specialistvlad/nbflow/internal/highlight"
	"github.com/specialistvlad/nbflow/internal/notebook"
)

// Status names the dominant classification of a cell.
type Status string

const (
	StatusWaiting     Status = "waiting"
	StatusReadyMaking Status = "ready-making"
	StatusReady       Status = "ready"
	StatusFresh       Status = "-"
)

// Row is one line of the report.
type Row struct {
	Position int
	ID       string
	Kind     notebook.Kind
	Status   Status
	Tags     []string
}

// Rows reads the current tags of every live cell.
func Rows(nb notebook.Notebook) []Row {
	cells := nb.Cells()
	rows := make([]Row, 0, len(cells))
	for i, c := range cells {
		var tags []string
		if el := c.Element(); el != nil {
			for _, tag := range highlight.AllTags {
				if el.HasClass(tag) {
					tags = append(tags, tag)
				}
			}
		}
		rows = append(rows, Row{
			Position: i,
			ID:       c.ID(),
			Kind:     c.Kind(),
			Status:   statusOf(tags),
			Tags:     tags,
		})
	}
	return rows
}

func statusOf(tags []string) Status {
	switch {
	case slices.Contains(tags, highlight.TagWaiting):
		return StatusWaiting
	case slices.Contains(tags, highlight.TagReadyMaking):
		return StatusReadyMaking
	case slices.Contains(tags, highlight.TagReady):
		return StatusReady
	default:
		return StatusFresh
	}
}

// Render writes the table for nb to w, followed by a one-line summary.
func Render(w io.Writer, nb notebook.Notebook) {
	rows := Rows(nb)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "CELL", "KIND", "STATUS", "TAGS"})

	counts := make(map[Status]int)
	for _, r := range rows {
		counts[r.Status]++
		t.AppendRow(table.Row{r.Position, r.ID, r.Kind, r.Status, strings.Join(r.Tags, " ")})
	}
	t.Render()

	fmt.Fprintf(w, "%d cells: %d waiting, %d ready-making, %d ready\n",
		len(rows), counts[StatusWaiting], counts[StatusReadyMaking], counts[StatusReady])
}

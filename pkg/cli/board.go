package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/triagekit/triage/pkg/queue"
)

// renderBoard writes the ranked queue as a table with the next patient
// highlighted.
func renderBoard(w io.Writer, entries []queue.Entry, now time.Time, colors bool) {
	if len(entries) == 0 {
		fmt.Fprintln(w, paint(colors, color.FgRed).Sprint("No patients in the queue."))
		return
	}

	fmt.Fprintln(w, paint(colors, color.FgYellow).Sprint("Current Patients in the Queue:"))

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Patient Name", "Severity", "Waiting"})

	top := paint(colors, color.FgRed, color.Bold)
	for i, e := range entries {
		row := table.Row{
			strconv.Itoa(i + 1),
			e.ID,
			strconv.Itoa(e.Severity),
			e.Waiting(now).Round(time.Second).String(),
		}
		if i == 0 {
			for j := range row {
				row[j] = top.Sprint(row[j])
			}
		}
		tw.AppendRow(row)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	tw.Render()
}

func paint(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

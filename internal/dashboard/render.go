package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/orgpulse/internal/contract"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const (
	timeLayout = "2006-01-02 15:04"

	clearScreen = "\x1b[H\x1b[2J"

	// Lines taken by everything except table rows: title, status,
	// blank, table borders and header, blank, help.
	frameChrome = 9
)

const helpText = "q quit  esc back  o/r/u/t orgs/repos/contributors/snapshots  ↑↓ move  enter open  " +
	"n/c/l/R/p sort  s order  S collect"

// Render draws one full frame of the dashboard for a terminal of the given size.
// Lines end in CRLF because the terminal is in raw mode.
func Render(w io.Writer, d *Dashboard, width, height int) error {
	var b strings.Builder
	b.WriteString(clearScreen)

	b.WriteString(contract.TitleColor.Sprint(title(d)))
	b.WriteString("\n")
	b.WriteString(status(d, width))
	b.WriteString("\n\n")

	if err := renderBody(&b, d, height); err != nil {
		return err
	}

	b.WriteString("\n")
	b.WriteString(contract.MutedColor.Sprint(contract.TruncateText(helpText, width)))
	b.WriteString("\n")

	_, err := io.WriteString(w, strings.ReplaceAll(b.String(), "\n", "\r\n"))
	return err
}

func title(d *Dashboard) string {
	var b strings.Builder
	b.WriteString("orgpulse | ")
	b.WriteString(d.View().String())
	if key := d.Context(); key != "" {
		b.WriteString(": ")
		b.WriteString(key)
	}
	s := d.Snapshot()
	fmt.Fprintf(&b, " | snapshot #%d (%s to %s)", s.ID,
		s.StartTime.Local().Format(timeLayout), s.EndTime.Local().Format(timeLayout))
	if d.View() != SnapshotPickerView {
		field, order := d.Sort()
		fmt.Fprintf(&b, " | sort: %s %s", field, order)
	}
	return b.String()
}

// status returns the single line between the title and the table.
func status(d *Dashboard, width int) string {
	switch {
	case d.Collecting():
		return contract.NoticeColor.Sprint("Collecting... the dashboard is paused until the run finishes")
	case d.Banner() != "":
		return contract.ErrorColor.Sprint(contract.TruncateText(d.Banner(), width))
	case d.Notice() != "":
		return contract.NoticeColor.Sprint(contract.TruncateText(d.Notice(), width))
	}
	return ""
}

func renderBody(w io.Writer, d *Dashboard, height int) error {
	if text, ok := d.Data().placeholder(); ok {
		if d.Data().err() != nil {
			text = contract.ErrorColor.Sprint(text)
		}
		_, err := fmt.Fprintln(w, text)
		return err
	}

	headers, rows := d.Data().table()
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No rows in this snapshot.")
		return err
	}

	start, end := visibleRange(d.Selected(), len(rows), height-frameChrome)
	table := tablewriter.NewWriter(w)
	table.Header(append([]string{""}, headers...))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = columnAlignment(len(headers) + 1)
	})

	data := make([][]string, 0, end-start)
	for i := start; i < end; i++ {
		marker := ""
		row := rows[i]
		if i == d.Selected() {
			marker = ">"
			row = highlight(row)
		}
		data = append(data, append([]string{marker}, row...))
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if end-start < len(rows) {
		_, err := fmt.Fprintf(w, "rows %d-%d of %d\n", start+1, end, len(rows))
		return err
	}
	return nil
}

// columnAlignment left-aligns the marker and name columns and right-aligns numbers.
func columnAlignment(n int) []tw.Align {
	align := make([]tw.Align, n)
	for i := range align {
		align[i] = tw.AlignRight
	}
	align[0] = tw.AlignLeft
	if n > 1 {
		align[1] = tw.AlignLeft
	}
	return align
}

func highlight(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = contract.TitleColor.Sprint(cell)
	}
	return out
}

// visibleRange returns the window of rows to draw so that selected stays on screen.
func visibleRange(selected, total, capacity int) (start, end int) {
	if capacity < 1 {
		capacity = 1
	}
	if total <= capacity {
		return 0, total
	}
	start = selected - capacity/2
	if start < 0 {
		start = 0
	}
	if start+capacity > total {
		start = total - capacity
	}
	return start, start + capacity
}

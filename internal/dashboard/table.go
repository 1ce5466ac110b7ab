package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/humanzai/cpdash/internal/history"
	"github.com/humanzai/cpdash/internal/metrics"
	"github.com/humanzai/cpdash/pkg/models"
)

// Styles for table output
var (
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true) // bright-magenta
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))           // purple
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))            // bright-green
	disabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))             // bright-red
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))             // bright-black
	statLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))            // bright-blue
	statValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))            // bright-green
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const dateLayout = "2006-01-02 15:04"

// FormatOptions controls table rendering
type FormatOptions struct {
	NoColor bool
	// Now anchors relative upload times. Defaults to time.Now.
	Now func() time.Time
	// Location for upload dates. Defaults to time.Local.
	Location *time.Location
}

func (o FormatOptions) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func (o FormatOptions) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// Helper function to render with or without colors
func renderStyle(style lipgloss.Style, text string, noColor bool) string {
	if noColor {
		return text
	}
	return style.Render(text)
}

// column is one history table column
type column struct {
	title string
	field history.SortField
	// sortable columns show an arrow when they order the table
	sortable bool
	right    bool
	cell     func(r Row, opts FormatOptions) string
}

func historyColumns(withMetrics bool) []column {
	cols := []column{
		{title: "Label", field: history.SortByLabel, sortable: true, cell: func(r Row, _ FormatOptions) string { return r.Entry.Label }},
		{title: "Uploaded", field: history.SortByUploadTime, sortable: true, cell: func(r Row, o FormatOptions) string { return UploadedCell(r.Entry, o) }},
		{title: "Version", cell: func(r Row, _ FormatOptions) string { return dashIfEmpty(r.Entry.AppVersion) }},
		{title: "Mandatory", field: history.SortByMandatory, sortable: true, cell: func(r Row, _ FormatOptions) string { return yesNo(r.Entry.IsMandatory) }},
		{title: "Status", field: history.SortByDisabled, sortable: true, cell: func(r Row, _ FormatOptions) string { return StatusLabel(r.Entry.IsDisabled) }},
		{title: "Rollout", field: history.SortByRollout, sortable: true, right: true, cell: func(r Row, _ FormatOptions) string { return RolloutCell(r.Entry.Rollout) }},
	}
	if withMetrics {
		cols = append(cols, column{title: "Active Installs", right: true, cell: func(r Row, _ FormatOptions) string { return ActiveCell(r) }})
	}
	return cols
}

// FormatHistoryTable renders a deployment's releases as an aligned table
func FormatHistoryTable(v *View, opts FormatOptions) string {
	var sb strings.Builder

	title := fmt.Sprintf("%s / %s", v.App, v.Deployment)
	sb.WriteString(renderStyle(headerStyle, title, opts.NoColor))
	sb.WriteString("\n")
	sb.WriteString(renderStyle(separatorStyle, strings.Repeat("=", ansi.StringWidth(title)), opts.NoColor))
	sb.WriteString("\n\n")

	if len(v.Rows) == 0 {
		sb.WriteString("No deployments\n")
		return sb.String()
	}

	cols, headers, cells, widths := layoutHistory(v, opts)

	sb.WriteString(renderStyle(headerStyle, joinCells(headers, widths, cols), opts.NoColor))
	sb.WriteString("\n")

	for r, row := range v.Rows {
		line := joinCells(cells[r], widths, cols)
		switch {
		case opts.NoColor:
		case row.Entry.IsDisabled:
			line = mutedStyle.Render(line)
		default:
			label := padRight(cells[r][0], widths[0])
			line = labelStyle.Render(label) + line[len(label):]
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(formatHistoryStats(v, opts.NoColor))
	sb.WriteString("\n")

	return sb.String()
}

// HistoryLines lays out the header and one uncoloured line per row with
// the same column alignment as FormatHistoryTable
func HistoryLines(v *View, opts FormatOptions) (string, []string) {
	cols, headers, cells, widths := layoutHistory(v, opts)
	lines := make([]string, len(cells))
	for r := range cells {
		lines[r] = joinCells(cells[r], widths, cols)
	}
	return joinCells(headers, widths, cols), lines
}

func layoutHistory(v *View, opts FormatOptions) ([]column, []string, [][]string, []int) {
	cols := historyColumns(v.HasMetrics)

	headers := make([]string, len(cols))
	cells := make([][]string, len(v.Rows))
	widths := make([]int, len(cols))

	for i, c := range cols {
		headers[i] = c.title
		if c.sortable && c.field == v.Spec.Field {
			headers[i] += " " + SortArrow(v.Spec.Direction)
		}
		widths[i] = ansi.StringWidth(headers[i])
	}
	for r, row := range v.Rows {
		cells[r] = make([]string, len(cols))
		for i, c := range cols {
			cells[r][i] = c.cell(row, opts)
			widths[i] = max(widths[i], ansi.StringWidth(cells[r][i]))
		}
	}
	return cols, headers, cells, widths
}

func formatHistoryStats(v *View, noColor bool) string {
	plural := "s"
	if len(v.Rows) == 1 {
		plural = ""
	}

	stats := fmt.Sprintf("%d release%s, sorted by %s", len(v.Rows), plural, v.Spec)
	if v.HasMetrics {
		stats += fmt.Sprintf(", %s active installs", humanize.Comma(v.Aggregated.Active))
	}
	return renderStyle(statLabelStyle, "Total: ", noColor) + renderStyle(statValueStyle, stats, noColor)
}

func joinCells(cells []string, widths []int, cols []column) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if cols[i].right {
			parts[i] = padLeft(cell, widths[i])
		} else {
			parts[i] = padRight(cell, widths[i])
		}
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func padRight(s string, width int) string {
	if gap := width - ansi.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func padLeft(s string, width int) string {
	if gap := width - ansi.StringWidth(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

// SortArrow is the header marker for the sort direction
func SortArrow(d history.Direction) string {
	if d == history.Ascending {
		return "▲"
	}
	return "▼"
}

// UploadedCell shows the upload date with a relative age
func UploadedCell(e models.HistoryEntry, opts FormatOptions) string {
	if e.UploadTime == 0 {
		return "-"
	}
	uploaded := e.Uploaded()
	return fmt.Sprintf("%s (%s)", uploaded.In(opts.location()).Format(dateLayout), humanize.RelTime(uploaded, opts.now(), "ago", "from now"))
}

// StatusLabel is the status chip text
func StatusLabel(disabled bool) string {
	if disabled {
		return "Disabled"
	}
	return "Active"
}

// RolloutCell renders a rollout percentage or N/A
func RolloutCell(rollout *int) string {
	pct, ok := metrics.RolloutPercentage(rollout)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", pct)
}

// ActiveCell renders a label's active installs and share, or "-" without metrics
func ActiveCell(r Row) string {
	if !r.HasShare {
		return "-"
	}
	return fmt.Sprintf("%s (%d%%)", humanize.Comma(r.Share.Active), r.Share.Percent)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/humanzai/cpdash/pkg/models"
)

// Styles for summary output
var (
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true) // bright-magenta
	deployStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))            // bright-blue
	periodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true) // bright-magenta
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))             // bright-black
	actionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))            // white
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))             // bright-red
	statLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))            // bright-blue
	statValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))            // bright-green
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))             // bright-black
)

// FormatOptions contains options for formatting the summary
type FormatOptions struct {
	AllActions bool   // List every action instead of per-bucket counts
	Date       string // Date being summarized (YYYY-MM-DD format)
	NoColor    bool   // Disable color output
	BucketSize BucketSize
}

// Helper function to render with or without colors
func renderStyle(style lipgloss.Style, text string, noColor bool) string {
	if noColor {
		return text
	}
	return style.Render(text)
}

// FormatSummary formats the grouped and bucketed actions into human-readable text
func FormatSummary(grouped *GroupedActions, opts FormatOptions) string {
	var output strings.Builder

	// Header
	title := fmt.Sprintf("Release Activity - %s", opts.Date)
	separator := renderStyle(separatorStyle, strings.Repeat("=", max(40-(ansi.StringWidth(title)/2), 0)), opts.NoColor)
	fmt.Fprintf(&output, "\n%s %s %s\n\n", separator, renderStyle(headerStyle, title, opts.NoColor), separator)

	if len(grouped.Deployments) == 0 {
		output.WriteString(renderStyle(statLabelStyle, fmt.Sprintf("No actions found for %s", opts.Date), opts.NoColor) + "\n")
		return output.String()
	}

	for _, s := range grouped.Summarize() {
		fmt.Fprintf(&output, "%s  %s %s\n",
			renderStyle(deployStyle, s.Key.String(), opts.NoColor),
			renderStyle(timestampStyle, s.FormatTimeSpan(), opts.NoColor),
			renderStyle(statLabelStyle, "("+s.FormatDuration()+")", opts.NoColor))

		buckets := BucketBy(grouped.Deployments[s.Key], opts.BucketSize)
		for _, bucketID := range GetOrderedBuckets(buckets) {
			bucket := buckets[bucketID]
			label := bucket.FormatLabel()

			fmt.Fprintf(&output, "  %s %s\n",
				renderStyle(periodStyle, label, opts.NoColor),
				renderStyle(separatorStyle, strings.Repeat("-", max(80-2-len(label), 1)), opts.NoColor))

			if opts.AllActions {
				// Journal order is newest first
				for i := len(bucket.Actions) - 1; i >= 0; i-- {
					output.WriteString(formatAction(bucket.Actions[i], opts))
				}
			} else {
				fmt.Fprintf(&output, "    %s actions", renderStyle(actionStyle, fmt.Sprintf("%d", len(bucket.Actions)), opts.NoColor))
				if bucket.Failed > 0 {
					fmt.Fprintf(&output, ", %s", renderStyle(failedStyle, fmt.Sprintf("%d failed", bucket.Failed), opts.NoColor))
				}
				output.WriteString("\n")
			}
			output.WriteString("\n")
		}
	}

	output.WriteString(formatTotals(grouped, opts.NoColor))
	return output.String()
}

func formatAction(a models.Action, opts FormatOptions) string {
	target := ""
	if a.Label != nil {
		target = " " + *a.Label
	}

	line := fmt.Sprintf("    %s  %s%s",
		renderStyle(timestampStyle, formatTimestamp(a, opts.BucketSize), opts.NoColor),
		renderStyle(actionStyle, string(a.Kind), opts.NoColor),
		target)
	if a.Status == models.StatusFailed {
		line += " " + renderStyle(failedStyle, "(failed)", opts.NoColor)
	}
	return line + "\n"
}

func formatTimestamp(a models.Action, bucketSize BucketSize) string {
	t := time.Unix(a.Timestamp, 0)
	if bucketSize == Hourly {
		return t.Format(":04")
	}
	return t.Format("03:04 PM")
}

func formatTotals(grouped *GroupedActions, noColor bool) string {
	total, failed := 0, 0
	for _, s := range grouped.Summarize() {
		total += s.ActionCount
		failed += s.Failed
	}

	stats := fmt.Sprintf("%d actions on %d deployments", total, len(grouped.Deployments))
	if failed > 0 {
		stats += fmt.Sprintf(", %d failed", failed)
	}
	return renderStyle(statLabelStyle, "Total: ", noColor) + renderStyle(statValueStyle, stats, noColor) + "\n"
}

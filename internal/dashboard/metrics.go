package dashboard

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// counter pairs a metrics field name with its value
type counter struct {
	name  string
	value *int64
}

// MetricChips renders a label's counters as "name: value" chips. Active is
// prefixed with a dot that is green when the label has active installs.
func MetricChips(r Row, noColor bool) string {
	if r.Metrics == nil {
		return ""
	}

	counters := []counter{
		{"active", r.Metrics.Active},
		{"downloaded", r.Metrics.Downloaded},
		{"installed", r.Metrics.Installed},
		{"failed", r.Metrics.Failed},
	}

	var chips []string
	for _, c := range counters {
		// Optional counters the service did not report are left out
		if c.value == nil && c.name != "active" {
			continue
		}

		value := "N/A"
		if c.value != nil {
			value = humanize.Comma(*c.value)
		}
		chip := fmt.Sprintf("%s: %s", c.name, value)

		if c.name == "active" {
			dot := renderStyle(disabledStyle, "●", noColor)
			if c.value != nil && *c.value > 0 {
				dot = renderStyle(activeStyle, "●", noColor)
			}
			chip = dot + " " + chip
		}
		chips = append(chips, "["+chip+"]")
	}
	return strings.Join(chips, " ")
}

// FormatMetrics renders per-label install counters and each label's share
// of the deployment's active installs.
func FormatMetrics(v *View, noColor bool) string {
	var sb strings.Builder

	title := fmt.Sprintf("%s / %s metrics", v.App, v.Deployment)
	sb.WriteString(renderStyle(headerStyle, title, noColor))
	sb.WriteString("\n")
	sb.WriteString(renderStyle(separatorStyle, strings.Repeat("=", len(title)), noColor))
	sb.WriteString("\n\n")

	if !v.HasMetrics {
		sb.WriteString("No metrics reported\n")
		return sb.String()
	}

	labelWidth := len("Label")
	for _, r := range v.Rows {
		labelWidth = max(labelWidth, len(r.Entry.Label))
	}

	shown := 0
	for _, r := range v.Rows {
		if r.Metrics == nil {
			continue
		}
		shown++
		fmt.Fprintf(&sb, "%s  %s  %s\n",
			renderStyle(labelStyle, padRight(r.Entry.Label, labelWidth), noColor),
			padLeft(fmt.Sprintf("%d%%", r.Share.Percent), 4),
			MetricChips(r, noColor))
	}
	if shown == 0 {
		sb.WriteString("No metrics reported for these releases\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderStyle(statLabelStyle, "Total active installs: ", noColor))
	sb.WriteString(renderStyle(statValueStyle, humanize.Comma(v.Aggregated.Active), noColor))
	sb.WriteString("\n")
	return sb.String()
}

package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/humanzai/cpdash/internal/release"
	"github.com/humanzai/cpdash/pkg/models"
)

// FormatApps lists apps with their deployments
func FormatApps(apps []models.App, noColor bool) string {
	if len(apps) == 0 {
		return "No apps found\n"
	}

	var sb strings.Builder
	for _, app := range apps {
		sb.WriteString(renderStyle(headerStyle, app.Name, noColor))
		sb.WriteString("\n")
		if len(app.Deployments) == 0 {
			sb.WriteString("  No deployments\n")
			continue
		}
		for _, d := range app.Deployments {
			sb.WriteString("  " + d + "\n")
		}
	}
	return sb.String()
}

// FormatKeys lists deployment names with their keys
func FormatKeys(app string, keys []models.DeploymentKey, noColor bool) string {
	var sb strings.Builder
	sb.WriteString(renderStyle(headerStyle, app+" deployment keys", noColor))
	sb.WriteString("\n\n")

	if len(keys) == 0 {
		sb.WriteString("No deployment keys\n")
		return sb.String()
	}

	width := 0
	for _, k := range keys {
		width = max(width, len(k.Name))
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s  %s\n", renderStyle(labelStyle, padRight(k.Name, width), noColor), k.Key)
	}
	return sb.String()
}

// FormatReleaseDetails renders the release summary shown before an edit
func FormatReleaseDetails(app, deployment string, e models.HistoryEntry, noColor bool) string {
	rows := release.Details(app, deployment, e)

	width := 0
	for _, r := range rows {
		width = max(width, len(r.Label))
	}

	var sb strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&sb, "%s  %s\n", renderStyle(statLabelStyle, padRight(r.Label, width), noColor), r.Value)
	}
	if e.Size > 0 {
		fmt.Fprintf(&sb, "%s  %s\n", renderStyle(statLabelStyle, padRight("Size", width), noColor), humanize.Bytes(uint64(e.Size)))
	}
	if e.ReleasedBy != "" {
		fmt.Fprintf(&sb, "%s  %s\n", renderStyle(statLabelStyle, padRight("Released By", width), noColor), e.ReleasedBy)
	}
	return sb.String()
}

// FormatJournal lists journaled actions, newest first
func FormatJournal(actions []models.Action, now time.Time, noColor bool) string {
	if len(actions) == 0 {
		return "No actions recorded\n"
	}

	var sb strings.Builder
	for _, a := range actions {
		when := time.Unix(a.Timestamp, 0)
		target := "-"
		if a.Label != nil {
			target = *a.Label
		}

		status := renderStyle(activeStyle, string(a.Status), noColor)
		if a.Status == models.StatusFailed {
			status = renderStyle(disabledStyle, string(a.Status), noColor)
		}

		fmt.Fprintf(&sb, "%s  %-17s  %s/%s  %s  %s",
			renderStyle(mutedStyle, humanize.RelTime(when, now, "ago", "from now"), noColor),
			a.Kind, a.App, a.Deployment, target, status)
		if a.Error != nil {
			fmt.Fprintf(&sb, "  %s", *a.Error)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

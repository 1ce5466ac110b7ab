package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/humanzai/cpdash/internal/dashboard"
	"github.com/humanzai/cpdash/internal/metrics"
)

// Styles
var (
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	focusDotStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	blurDotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	normalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	disabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Underline(true)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const marginX = 2

func (m *Model) renderView() string {
	var b strings.Builder

	width := m.width
	if width == 0 {
		width = 80
	}

	// Content width excludes left and right margins
	contentWidth := width - 2*marginX
	if contentWidth < 20 {
		contentWidth = 20
	}
	margin := strings.Repeat(" ", marginX)

	b.WriteString(margin + m.renderHeader())
	b.WriteString("\n")
	b.WriteString(margin + separatorStyle.Render(strings.Repeat("=", contentWidth)))
	b.WriteString("\n\n")

	var body string
	switch m.viewState {
	case HistoryView:
		body = m.renderHistory(contentWidth)
	case ReleaseDetailView:
		body = m.renderDetail()
	case ConfirmRollbackView:
		body = m.renderConfirm()
	case KeysView:
		body = m.renderKeys()
	case HelpView:
		body = m.renderHelp()
	default:
		body = m.renderAppList(contentWidth)
	}
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		b.WriteString(margin + line + "\n")
	}

	// Status bar
	b.WriteString("\n")
	b.WriteString(margin + separatorStyle.Render(strings.Repeat("─", contentWidth)))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(margin + m.status + "\n")
	}
	b.WriteString(margin + m.renderStatusBar())

	return b.String()
}

func (m *Model) renderHeader() string {
	dot := focusDotStyle.Render("●")
	if !m.focused {
		dot = blurDotStyle.Render("○")
	}

	title := headerStyle.Render("Releases") + " " + dot
	if app, deployment, ok := m.currentDeployment(); ok && m.viewState != AppListView {
		title += " " + headerStyle.Render(app+" / "+deployment)
	}
	if m.loading {
		title += " " + statusBarStyle.Render("loading…")
	}
	return title
}

func (m *Model) renderAppList(width int) string {
	if len(m.apps) == 0 {
		if m.loading {
			return ""
		}
		return "No apps found"
	}

	var b strings.Builder
	for i, app := range m.apps {
		prefix := "  "
		if i == m.appIdx {
			prefix = "▶ "
		}

		count := fmt.Sprintf("%d deployments", len(app.Deployments))
		if len(app.Deployments) == 1 {
			count = "1 deployment "
		}

		name := truncateWithEllipsis(app.Name, max(width-len(prefix)-2-len(count), 10))
		padding := max(width-ansi.StringWidth(prefix)-ansi.StringWidth(name)-ansi.StringWidth(count), 1)
		line := prefix + name + strings.Repeat(" ", padding) + count

		if i == m.appIdx {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(normalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderTabs() string {
	deployments := m.deployments()
	tabs := make([]string, len(deployments))
	for i, d := range deployments {
		if i == m.deploymentIdx {
			tabs[i] = activeTabStyle.Render(d)
		} else {
			tabs[i] = tabStyle.Render(d)
		}
	}
	return strings.Join(tabs, "  ")
}

func (m *Model) renderHistory(width int) string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.view == nil {
		return b.String()
	}
	if len(m.view.Rows) == 0 {
		b.WriteString("No deployments\n")
		return b.String()
	}

	header, lines := dashboard.HistoryLines(m.view, dashboard.FormatOptions{NoColor: true, Now: m.now})
	b.WriteString(headerStyle.Render("  " + truncateWithEllipsis(header, width-2)))
	b.WriteString("\n")

	for i, line := range lines {
		prefix := "  "
		if i == m.rowIdx {
			prefix = "▶ "
		}
		line = prefix + truncateWithEllipsis(line, width-2)

		switch {
		case i == m.rowIdx:
			b.WriteString(selectedStyle.Render(line))
		case m.view.Rows[i].Entry.IsDisabled:
			b.WriteString(disabledStyle.Render(line))
		default:
			b.WriteString(normalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.view.HasMetrics {
		fmt.Fprintf(&b, "\nTotal active installs: %d\n", m.view.Aggregated.Active)
	}
	return b.String()
}

func (m *Model) renderDetail() string {
	row, ok := m.selectedRow()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(dashboard.FormatReleaseDetails(m.view.App, m.view.Deployment, row.Entry, false))
	if row.Entry.Description != "" {
		b.WriteString("\n" + row.Entry.Description + "\n")
	}
	if m.view.HasMetrics {
		b.WriteString("\n" + dashboard.MetricChips(row, false) + "\n")
		if pct, ok := metrics.RolloutPercentage(row.Entry.Rollout); ok {
			fmt.Fprintf(&b, "Rolled out to %d%% of devices\n", pct)
		}
	}
	return b.String()
}

func (m *Model) renderConfirm() string {
	row, ok := m.selectedRow()
	if !ok {
		return ""
	}
	question := fmt.Sprintf("Roll back %s / %s to %s?", m.view.App, m.view.Deployment, row.Entry.Label)
	return warnStyle.Render(question) + "\n\n" + "[y] Yes  [n] No"
}

func (m *Model) renderKeys() string {
	if len(m.apps) == 0 {
		return ""
	}
	if m.keys == nil {
		return "Loading deployment keys…"
	}
	app := m.apps[m.appIdx].Name
	if len(m.keys) == 0 {
		return app + ": no deployment keys"
	}

	width := 0
	for _, k := range m.keys {
		width = max(width, len(k.Name))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(app+" deployment keys") + "\n\n")
	for i, k := range m.keys {
		prefix := "  "
		if i == m.keyIdx {
			prefix = "▶ "
		}
		line := fmt.Sprintf("%s%-*s  %s", prefix, width, k.Name, k.Key)
		if i == m.keyIdx {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(normalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Keybindings") + "\n\n")
	for _, binding := range bindingsForView(m.previousState) {
		fmt.Fprintf(&b, "%-10s %s\n", binding.key, binding.desc)
	}
	return b.String()
}

// truncateWithEllipsis truncates a string to maxWidth, adding … if truncated
func truncateWithEllipsis(s string, maxWidth int) string {
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	// Truncate to maxWidth-1 to leave room for …
	truncated := ansi.Truncate(s, maxWidth-1, "")
	return truncated + "…"
}

func (m *Model) renderStatusBar() string {
	switch m.viewState {
	case HistoryView:
		return statusBarStyle.Render("[j/k] Select  [Enter] Details  [1-5] Sort  [tab] Deployment  [r] Rollback  [K] Keys  [-] Back  [q] Quit")
	case ReleaseDetailView:
		return statusBarStyle.Render("[r] Rollback  [-] Back  [q] Quit")
	case ConfirmRollbackView:
		return statusBarStyle.Render("[y] Confirm  [n] Cancel")
	case KeysView:
		return statusBarStyle.Render("[j/k] Select  [y] Yank key  [-] Back  [q] Quit")
	case HelpView:
		return statusBarStyle.Render("[?] Close help")
	default:
		return statusBarStyle.Render("[j/k] Select  [Enter] Open  [K] Keys  [R] Refresh  [?] Help  [q] Quit")
	}
}

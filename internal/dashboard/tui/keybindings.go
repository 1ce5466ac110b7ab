package tui

// helpBinding represents a single keybinding entry for the help view.
type helpBinding struct {
	key  string
	desc string
}

// bindingsForView returns the help bindings for the given view state.
func bindingsForView(vs ViewState) []helpBinding {
	switch vs {
	case HistoryView:
		return historyBindings()
	case ReleaseDetailView:
		return detailBindings()
	case KeysView:
		return keysBindings()
	default:
		return appListBindings()
	}
}

func appListBindings() []helpBinding {
	return []helpBinding{
		{"j", "Navigate down"},
		{"k", "Navigate up"},
		{"enter", "Open release history"},
		{"K", "Deployment keys"},
		{"R", "Refresh apps"},
		{"?", "Help"},
		{"q", "Quit"},
	}
}

func historyBindings() []helpBinding {
	return []helpBinding{
		{"j", "Navigate down"},
		{"k", "Navigate up"},
		{"enter", "Release details"},
		{"1", "Sort by label"},
		{"2", "Sort by upload time"},
		{"3", "Sort by mandatory"},
		{"4", "Sort by status"},
		{"5", "Sort by rollout"},
		{"tab", "Next deployment"},
		{"shift+tab", "Previous deployment"},
		{"r", "Roll back to release"},
		{"R", "Refresh"},
		{"K", "Deployment keys"},
		{"-", "Back to apps"},
		{"?", "Help"},
		{"q", "Quit"},
	}
}

func detailBindings() []helpBinding {
	return []helpBinding{
		{"r", "Roll back to release"},
		{"-", "Back to history"},
		{"?", "Help"},
		{"q", "Quit"},
	}
}

func keysBindings() []helpBinding {
	return []helpBinding{
		{"j", "Navigate down"},
		{"k", "Navigate up"},
		{"y", "Yank key"},
		{"-", "Back"},
		{"q", "Quit"},
	}
}

package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/humanzai/cpdash/internal/dashboard"
	"github.com/humanzai/cpdash/internal/history"
	"github.com/humanzai/cpdash/internal/rollback"
	"github.com/humanzai/cpdash/pkg/models"
)

// ViewState represents which view is currently displayed
type ViewState int

const (
	AppListView ViewState = iota
	HistoryView
	ReleaseDetailView
	ConfirmRollbackView
	KeysView
	HelpView
)

// Source is the deployment service as seen by the dashboard
type Source interface {
	GetApps(ctx context.Context) ([]models.App, error)
	GetDeploymentHistory(ctx context.Context, app, deployment string) ([]models.HistoryEntry, error)
	GetDeploymentMetrics(ctx context.Context, app, deployment string) (map[string]*models.MetricsEntry, error)
	GetDeploymentKeys(ctx context.Context, app string) ([]models.DeploymentKey, error)
	RollbackToLabel(ctx context.Context, app, deployment, label string, policy rollback.Policy) (models.HistoryEntry, error)
}

// Journal records the rollbacks issued from the dashboard
type Journal interface {
	RecordAction(a models.Action) (models.Action, error)
}

// sortKeys maps number keys to the sortable history columns
var sortKeys = map[string]history.SortField{
	"1": history.SortByLabel,
	"2": history.SortByUploadTime,
	"3": history.SortByMandatory,
	"4": history.SortByDisabled,
	"5": history.SortByRollout,
}

// Model represents the TUI state
type Model struct {
	source  Source
	journal Journal
	ctx     context.Context

	policy   rollback.Policy
	operator string

	// Data
	apps   []models.App
	view   *dashboard.View
	keys   []models.DeploymentKey
	status string

	// Selection
	viewState     ViewState
	previousState ViewState
	appIdx        int
	deploymentIdx int
	rowIdx        int
	keyIdx        int
	spec          history.SortSpec
	loading       bool

	// UI dimensions
	width  int
	height int

	// Focus
	focused bool

	// For testing - allows injecting "now"
	now func() time.Time
}

// Option is a functional option for configuring the Model
type Option func(*Model)

// WithNow sets the function used to get the current time (for testing)
func WithNow(fn func() time.Time) Option {
	return func(m *Model) {
		m.now = fn
	}
}

// WithJournal records rollbacks issued from the dashboard
func WithJournal(j Journal) Option {
	return func(m *Model) {
		m.journal = j
	}
}

// WithRollbackPolicy sets how rollback targets are checked
func WithRollbackPolicy(p rollback.Policy) Option {
	return func(m *Model) {
		m.policy = p
	}
}

// WithContext sets the context used for service calls
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// WithOperator names the local user in journal entries
func WithOperator(name string) Option {
	return func(m *Model) {
		m.operator = name
	}
}

// New creates a new Model
func New(source Source, opts ...Option) *Model {
	m := &Model{
		source:  source,
		ctx:     context.Background(),
		spec:    history.DefaultSortSpec(),
		focused: true,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.loadApps
}

// Messages
type appsLoadedMsg struct {
	apps []models.App
}

type deploymentLoadedMsg struct {
	app        string
	deployment string
	view       *dashboard.View
	// metricsErr is reported but does not hide the history
	metricsErr error
}

type keysLoadedMsg struct {
	keys []models.DeploymentKey
}

type rollbackDoneMsg struct {
	label      string
	err        error
	journalErr error
}

type errMsg struct {
	err error
}

func (m *Model) loadApps() tea.Msg {
	apps, err := m.source.GetApps(m.ctx)
	if err != nil {
		return errMsg{err}
	}
	return appsLoadedMsg{apps: apps}
}

// loadDeployment fetches history and metrics for the selected deployment
func (m *Model) loadDeployment() tea.Cmd {
	app, deployment, ok := m.currentDeployment()
	if !ok {
		return nil
	}
	spec := m.spec
	m.loading = true

	return func() tea.Msg {
		var (
			entries    []models.HistoryEntry
			byLabel    map[string]*models.MetricsEntry
			metricsErr error
		)

		g, ctx := errgroup.WithContext(m.ctx)
		g.Go(func() error {
			var err error
			entries, err = m.source.GetDeploymentHistory(ctx, app, deployment)
			return err
		})
		g.Go(func() error {
			byLabel, metricsErr = m.source.GetDeploymentMetrics(ctx, app, deployment)
			return nil
		})
		if err := g.Wait(); err != nil {
			return errMsg{err}
		}

		view, err := dashboard.BuildView(app, deployment, entries, byLabel, spec)
		if err != nil {
			return errMsg{err}
		}
		return deploymentLoadedMsg{app: app, deployment: deployment, view: view, metricsErr: metricsErr}
	}
}

func (m *Model) loadKeys() tea.Cmd {
	if len(m.apps) == 0 {
		return nil
	}
	app := m.apps[m.appIdx].Name
	return func() tea.Msg {
		keys, err := m.source.GetDeploymentKeys(m.ctx, app)
		if err != nil {
			return errMsg{err}
		}
		return keysLoadedMsg{keys: keys}
	}
}

func (m *Model) rollbackSelected() tea.Cmd {
	app, deployment, ok := m.currentDeployment()
	row, hasRow := m.selectedRow()
	if !ok || !hasRow {
		return nil
	}
	label := row.Entry.Label
	policy := m.policy

	return func() tea.Msg {
		_, err := m.source.RollbackToLabel(m.ctx, app, deployment, label, policy)
		journalErr := m.record(app, deployment, label, err)
		return rollbackDoneMsg{label: label, err: err, journalErr: journalErr}
	}
}

// record journals a rollback. A journal failure is reported in the status
// line and does not affect the rollback.
func (m *Model) record(app, deployment, label string, rollbackErr error) error {
	if m.journal == nil {
		return nil
	}

	detail, err := json.Marshal(map[string]string{"label": label, "policy": m.policy.String()})
	if err != nil {
		return err
	}
	a := models.Action{
		Timestamp:  m.now().Unix(),
		App:        app,
		Deployment: deployment,
		Kind:       models.ActionRollback,
		Label:      &label,
		Detail:     string(detail),
		Status:     models.StatusOK,
		Operator:   m.operator,
	}
	if rollbackErr != nil {
		msg := rollbackErr.Error()
		a.Status = models.StatusFailed
		a.Error = &msg
	}
	_, err = m.journal.RecordAction(a)
	return err
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.FocusMsg:
		m.focused = true
		return m, nil

	case tea.BlurMsg:
		m.focused = false
		return m, nil

	case appsLoadedMsg:
		m.loading = false
		m.apps = msg.apps
		m.appIdx = 0
		m.status = ""
		return m, nil

	case deploymentLoadedMsg:
		app, deployment, ok := m.currentDeployment()
		if !ok || app != msg.app || deployment != msg.deployment {
			// Stale response for a deployment no longer selected
			return m, nil
		}
		m.loading = false
		m.view = msg.view
		if m.rowIdx >= len(m.view.Rows) {
			m.rowIdx = 0
		}
		m.status = ""
		if msg.metricsErr != nil {
			m.status = "Metrics unavailable: " + msg.metricsErr.Error()
		}
		return m, nil

	case keysLoadedMsg:
		m.keys = msg.keys
		m.keyIdx = 0
		return m, nil

	case rollbackDoneMsg:
		var cmd tea.Cmd
		if msg.err != nil {
			m.status = fmt.Sprintf("Failed to roll back to %s: %v", msg.label, msg.err)
		} else {
			m.status = fmt.Sprintf("Rollback to version %s initiated", msg.label)
			cmd = m.loadDeployment()
		}
		if msg.journalErr != nil {
			m.status += " (not journaled: " + msg.journalErr.Error() + ")"
		}
		return m, cmd

	case yankResultMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Copied deployment key"
		}
		return m, nil

	case errMsg:
		m.loading = false
		m.status = "Error: " + msg.err.Error()
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.viewState {
	case HistoryView:
		return m.handleHistoryKey(msg)
	case ReleaseDetailView:
		return m.handleDetailKey(msg)
	case ConfirmRollbackView:
		return m.handleConfirmKey(msg)
	case KeysView:
		return m.handleKeysKey(msg)
	case HelpView:
		return m.handleHelpKey(msg)
	default:
		return m.handleAppListKey(msg)
	}
}

func (m *Model) handleAppListKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "j", "down":
		if m.appIdx < len(m.apps)-1 {
			m.appIdx++
		}
		return m, nil

	case "k", "up":
		if m.appIdx > 0 {
			m.appIdx--
		}
		return m, nil

	case "enter":
		if len(m.apps) == 0 {
			return m, nil
		}
		m.viewState = HistoryView
		m.deploymentIdx = 0
		m.rowIdx = 0
		m.view = nil
		return m, m.loadDeployment()

	case "K":
		return m.openKeys()

	case "R":
		m.loading = true
		return m, m.loadApps

	case "?":
		return m.openHelp()
	}

	return m, nil
}

func (m *Model) handleHistoryKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	key := msg.String()

	if field, ok := sortKeys[key]; ok {
		m.spec = m.spec.Toggle(field)
		if m.view != nil {
			if resorted, err := m.view.Resort(m.spec); err == nil {
				m.view = resorted
			}
		}
		m.rowIdx = 0
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit

	case "j", "down":
		if m.view != nil && m.rowIdx < len(m.view.Rows)-1 {
			m.rowIdx++
		}
		return m, nil

	case "k", "up":
		if m.rowIdx > 0 {
			m.rowIdx--
		}
		return m, nil

	case "tab", "l", "]":
		if deployments := m.deployments(); m.deploymentIdx < len(deployments)-1 {
			m.deploymentIdx++
			m.rowIdx = 0
			return m, m.loadDeployment()
		}
		return m, nil

	case "shift+tab", "h", "[":
		if m.deploymentIdx > 0 {
			m.deploymentIdx--
			m.rowIdx = 0
			return m, m.loadDeployment()
		}
		return m, nil

	case "enter":
		if _, ok := m.selectedRow(); ok {
			m.viewState = ReleaseDetailView
		}
		return m, nil

	case "r":
		if _, ok := m.selectedRow(); ok {
			m.viewState = ConfirmRollbackView
		}
		return m, nil

	case "R":
		return m, m.loadDeployment()

	case "K":
		return m.openKeys()

	case "esc", "-":
		m.viewState = AppListView
		m.view = nil
		return m, nil

	case "?":
		return m.openHelp()
	}

	return m, nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		m.viewState = ConfirmRollbackView
	case "esc", "-":
		m.viewState = HistoryView
	case "?":
		return m.openHelp()
	}
	return m, nil
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.viewState = HistoryView
		return m, m.rollbackSelected()
	case "n", "N", "esc", "q":
		m.viewState = HistoryView
	}
	return m, nil
}

func (m *Model) handleKeysKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		if m.keyIdx < len(m.keys)-1 {
			m.keyIdx++
		}
	case "k", "up":
		if m.keyIdx > 0 {
			m.keyIdx--
		}
	case "y":
		if m.keyIdx < len(m.keys) {
			return m, yankToClipboard(m.keys[m.keyIdx].Key)
		}
	case "esc", "-":
		m.viewState = m.previousState
		m.keys = nil
	}
	return m, nil
}

func (m *Model) handleHelpKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "-", "?":
		m.viewState = m.previousState
	}
	return m, nil
}

func (m *Model) openKeys() (*Model, tea.Cmd) {
	if len(m.apps) == 0 {
		return m, nil
	}
	m.previousState = m.viewState
	m.viewState = KeysView
	m.keys = nil
	return m, m.loadKeys()
}

func (m *Model) openHelp() (*Model, tea.Cmd) {
	m.previousState = m.viewState
	m.viewState = HelpView
	return m, nil
}

func (m *Model) deployments() []string {
	if len(m.apps) == 0 {
		return nil
	}
	return m.apps[m.appIdx].Deployments
}

func (m *Model) currentDeployment() (app, deployment string, ok bool) {
	deployments := m.deployments()
	if m.deploymentIdx >= len(deployments) {
		return "", "", false
	}
	return m.apps[m.appIdx].Name, deployments[m.deploymentIdx], true
}

func (m *Model) selectedRow() (dashboard.Row, bool) {
	if m.view == nil || m.rowIdx >= len(m.view.Rows) {
		return dashboard.Row{}, false
	}
	return m.view.Rows[m.rowIdx], true
}

// View implements tea.Model
func (m *Model) View() string {
	return m.renderView()
}

// Getters for testing
func (m *Model) ViewState() ViewState {
	return m.viewState
}

func (m *Model) Apps() []models.App {
	return m.apps
}

func (m *Model) HistoryView() *dashboard.View {
	return m.view
}

func (m *Model) SortSpec() history.SortSpec {
	return m.spec
}

func (m *Model) RowIdx() int {
	return m.rowIdx
}

func (m *Model) DeploymentIdx() int {
	return m.deploymentIdx
}

func (m *Model) Keys() []models.DeploymentKey {
	return m.keys
}

func (m *Model) Status() string {
	return m.status
}

func (m *Model) Focused() bool {
	return m.focused
}

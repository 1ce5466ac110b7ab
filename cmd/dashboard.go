package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/humanzai/cpdash/internal/dashboard/tui"
	"github.com/humanzai/cpdash/internal/rollback"
)

var dashboardPolicy string

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"ui"},
	Short:   "Browse apps, release history and metrics interactively",
	Args:    cobra.NoArgs,
	RunE:    runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVar(&dashboardPolicy, "policy", rollback.ValidateAppVersion.String(), "Rollback target check: validate-app-version or unchecked")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	policy, err := rollback.ParsePolicy(dashboardPolicy)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	client, err := newClient()
	if err != nil {
		return err
	}

	journal, err := openJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	model := tui.New(client,
		tui.WithContext(cmd.Context()),
		tui.WithJournal(journal),
		tui.WithRollbackPolicy(policy),
		tui.WithOperator(operator()),
	)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/humanzai/cpdash/internal/dashboard"
	"github.com/humanzai/cpdash/internal/history"
	"github.com/humanzai/cpdash/internal/metrics"
	"github.com/humanzai/cpdash/pkg/models"
)

var metricsJSON bool

var metricsCmd = &cobra.Command{
	Use:   "metrics <app> <deployment>",
	Short: "Show install metrics per release label",
	Args:  cobra.ExactArgs(2),
	RunE:  runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Print the raw metrics and total as JSON")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	app, deployment := args[0], args[1]

	client, err := newClient()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if metricsJSON {
		byLabel, err := client.GetDeploymentMetrics(cmd.Context(), app, deployment)
		if err != nil {
			return err
		}
		return writeJSON(out, struct {
			Metrics     map[string]*models.MetricsEntry `json:"metrics"`
			TotalActive int64                           `json:"totalActive"`
		}{byLabel, metrics.Aggregate(byLabel).Active})
	}

	spec := history.SortSpec{Field: history.SortByLabel, Direction: history.Descending}
	v, err := loadView(cmd.Context(), client, app, deployment, spec, true)
	if err != nil {
		return err
	}

	fmt.Fprint(out, dashboard.FormatMetrics(v, noColor(out)))
	return nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/humanzai/cpdash/internal/api"
	"github.com/humanzai/cpdash/internal/dashboard"
	"github.com/humanzai/cpdash/internal/history"
	"github.com/humanzai/cpdash/pkg/models"
)

var (
	historySort      string
	historyOrder     string
	historyJSON      bool
	historyNoMetrics bool
)

var historyCmd = &cobra.Command{
	Use:   "history <app> <deployment>",
	Short: "Show a deployment's release history",
	Long: `Show the releases of a deployment as a table with each label's share of
active installs.

Sort fields: label, uploadTime, isMandatory, isDisabled, rollout.`,
	Args: cobra.ExactArgs(2),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&historySort, "sort", "s", "uploadTime", "Sort field")
	historyCmd.Flags().StringVarP(&historyOrder, "order", "o", "desc", "Sort direction (asc or desc)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print the sorted history as JSON")
	historyCmd.Flags().BoolVar(&historyNoMetrics, "no-metrics", false, "Skip fetching install metrics")
}

// historyRow is the JSON form of a history table row
type historyRow struct {
	models.HistoryEntry
	Active        *int64 `json:"active,omitempty"`
	ActivePercent *int64 `json:"activePercent,omitempty"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	spec, err := parseSortFlags(historySort, historyOrder)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	client, err := newClient()
	if err != nil {
		return err
	}

	v, err := loadView(cmd.Context(), client, args[0], args[1], spec, !historyNoMetrics)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		rows := make([]historyRow, len(v.Rows))
		for i, r := range v.Rows {
			rows[i] = historyRow{HistoryEntry: r.Entry}
			if r.HasShare {
				active, pct := r.Share.Active, r.Share.Percent
				rows[i].Active = &active
				rows[i].ActivePercent = &pct
			}
		}
		return writeJSON(out, rows)
	}

	fmt.Fprint(out, dashboard.FormatHistoryTable(v, dashboard.FormatOptions{NoColor: noColor(out)}))
	return nil
}

func parseSortFlags(field, order string) (history.SortSpec, error) {
	f, err := history.ParseSortField(field)
	if err != nil {
		return history.SortSpec{}, err
	}
	d, err := history.ParseDirection(order)
	if err != nil {
		return history.SortSpec{}, err
	}
	return history.SortSpec{Field: f, Direction: d}, nil
}

// loadView fetches a deployment's history and, when withMetrics is set, its
// metrics. A metrics failure is logged and the view is built without them.
func loadView(ctx context.Context, client *api.Client, app, deployment string, spec history.SortSpec, withMetrics bool) (*dashboard.View, error) {
	entries, err := client.GetDeploymentHistory(ctx, app, deployment)
	if err != nil {
		return nil, err
	}

	var byLabel map[string]*models.MetricsEntry
	if withMetrics {
		byLabel, err = client.GetDeploymentMetrics(ctx, app, deployment)
		if err != nil {
			logger.Warn("metrics unavailable", "app", app, "deployment", deployment, "error", err)
			byLabel = nil
		}
	}

	return dashboard.BuildView(app, deployment, entries, byLabel, spec)
}

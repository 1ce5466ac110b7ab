package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/humanzai/cpdash/internal/db"
	"github.com/humanzai/cpdash/internal/summary"
)

var (
	summaryDate       string
	summaryBucket     string
	summaryAllActions bool
)

var journalSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize a day of journaled actions per deployment",
	Long:  "Display the actions issued on one day grouped by app and deployment, with an hourly or daily timeline",
	Args:  cobra.NoArgs,
	RunE:  runJournalSummary,
}

func init() {
	journalCmd.AddCommand(journalSummaryCmd)

	journalSummaryCmd.Flags().StringVar(&summaryDate, "date", "today", "Date to summarize (today, yesterday, or YYYY-MM-DD)")
	journalSummaryCmd.Flags().StringVar(&summaryBucket, "bucket", "hour", "Bucket size (hour or day)")
	journalSummaryCmd.Flags().BoolVar(&summaryAllActions, "all", false, "List every action in each bucket")
}

func runJournalSummary(cmd *cobra.Command, args []string) error {
	startTime, endTime, dateStr, err := parseDateRange(summaryDate, time.Now())
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	bucketSize, err := summary.ParseBucketSize(strings.ToLower(summaryBucket))
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	journal, err := openJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	actions, err := journal.ListActions(db.ActionFilter{Since: startTime, Until: endTime})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, summary.FormatSummary(summary.GroupByDeployment(actions), summary.FormatOptions{
		AllActions: summaryAllActions,
		Date:       dateStr,
		NoColor:    noColor(out),
		BucketSize: bucketSize,
	}))
	return nil
}

// parseDateRange parses a date string and returns Unix timestamp range (start, end)
// Supports: "yesterday", "today", "YYYY-MM-DD"
// Returns: startTime (inclusive), endTime (exclusive), dateStr (YYYY-MM-DD), error
func parseDateRange(dateStr string, now time.Time) (int64, int64, string, error) {
	var targetDate time.Time

	switch strings.ToLower(dateStr) {
	case "yesterday":
		targetDate = now.AddDate(0, 0, -1)
	case "today":
		targetDate = now
	default:
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return 0, 0, "", fmt.Errorf("date must be 'yesterday', 'today', or YYYY-MM-DD format")
		}
		targetDate = parsed
	}

	// Day boundaries in local time
	year, month, day := targetDate.Date()
	startOfDay := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	endOfDay := startOfDay.AddDate(0, 0, 1)

	return startOfDay.Unix(), endOfDay.Unix(), startOfDay.Format("2006-01-02"), nil
}

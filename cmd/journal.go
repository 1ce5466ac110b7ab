package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/humanzai/cpdash/internal/dashboard"
	"github.com/humanzai/cpdash/internal/db"
	"github.com/humanzai/cpdash/pkg/models"
)

var (
	journalApp        string
	journalDeployment string
	journalKind       string
	journalSince      time.Duration
	journalLimit      int
	journalJSON       bool
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List the releases edits and rollbacks issued from this machine",
	Args:  cobra.NoArgs,
	RunE:  runJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)

	flags := journalCmd.Flags()
	flags.StringVar(&journalApp, "app", "", "Only actions on this app")
	flags.StringVar(&journalDeployment, "deployment", "", "Only actions on this deployment")
	flags.StringVar(&journalKind, "kind", "", "Only actions of this kind (rollback, rollback-previous, release-update)")
	flags.DurationVar(&journalSince, "since", 0, "Only actions newer than this (e.g. 24h)")
	flags.IntVarP(&journalLimit, "limit", "n", 20, "Maximum number of actions (0 for all)")
	flags.BoolVar(&journalJSON, "json", false, "Print actions as JSON")
}

func runJournal(cmd *cobra.Command, args []string) error {
	kind := models.ActionKind(journalKind)
	switch kind {
	case "", models.ActionRollback, models.ActionRollbackPrevious, models.ActionReleaseUpdate:
	default:
		return fmt.Errorf("invalid --kind %q", journalKind)
	}
	cmd.SilenceUsage = true

	journal, err := openJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	now := time.Now()
	filter := db.ActionFilter{
		App:        journalApp,
		Deployment: journalDeployment,
		Kind:       kind,
		Limit:      journalLimit,
	}
	if journalSince > 0 {
		filter.Since = now.Add(-journalSince).Unix()
	}

	actions, err := journal.ListActions(filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if journalJSON {
		return writeJSON(out, actions)
	}
	fmt.Fprint(out, dashboard.FormatJournal(actions, now, noColor(out)))
	return nil
}

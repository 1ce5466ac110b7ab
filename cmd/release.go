package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/humanzai/cpdash/internal/dashboard"
	"github.com/humanzai/cpdash/internal/history"
	"github.com/humanzai/cpdash/internal/release"
	"github.com/humanzai/cpdash/pkg/models"
)

var (
	releaseAppVersion  string
	releaseDescription string
	releaseMandatory   bool
	releaseDisabled    bool
	releaseRollout     int
	releaseNoRollout   bool
	releaseDryRun      bool
)

var releaseCmd = &cobra.Command{
	Use:   "release <app> <deployment>",
	Short: "Edit the latest release of a deployment",
	Long: `Edit the metadata of the latest release. Fields that are not given keep
their current value.

A rollout of 0 or --no-rollout releases to every device.`,
	Args: cobra.ExactArgs(2),
	RunE: runRelease,
}

func init() {
	rootCmd.AddCommand(releaseCmd)

	flags := releaseCmd.Flags()
	flags.StringVar(&releaseAppVersion, "app-version", "", "Target binary version or range (e.g. 1.2.3, ^1.2.0, 1.2.x, \">=1.2.7 <1.3.0\", \"1.x || 2.x\")")
	flags.StringVar(&releaseDescription, "description", "", "Release description")
	flags.BoolVar(&releaseMandatory, "mandatory", false, "Mark the release as mandatory")
	flags.BoolVar(&releaseDisabled, "disabled", false, "Disable the release")
	flags.IntVar(&releaseRollout, "rollout", 0, "Percentage of devices that receive the release (0-100)")
	flags.BoolVar(&releaseNoRollout, "no-rollout", false, "Remove rollout gating")
	flags.BoolVar(&releaseDryRun, "dry-run", false, "Show the update without sending it")
	releaseCmd.MarkFlagsMutuallyExclusive("rollout", "no-rollout")
}

func runRelease(cmd *cobra.Command, args []string) error {
	app, deployment := args[0], args[1]
	flags := cmd.Flags()

	if flags.Changed("app-version") {
		if err := release.ValidateAppVersion(releaseAppVersion); err != nil {
			return err
		}
	}
	cmd.SilenceUsage = true

	client, err := newClient()
	if err != nil {
		return err
	}

	v, err := loadView(cmd.Context(), client, app, deployment, history.DefaultSortSpec(), false)
	if err != nil {
		return err
	}
	latest, ok := v.Latest()
	if !ok {
		return fmt.Errorf("%s/%s has no releases to edit", app, deployment)
	}

	form := release.FormFromEntry(latest)
	if flags.Changed("app-version") {
		form.AppVersion = releaseAppVersion
	}
	if flags.Changed("description") {
		form.Description = releaseDescription
	}
	if flags.Changed("mandatory") {
		form.IsMandatory = releaseMandatory
	}
	if flags.Changed("disabled") {
		form.IsDisabled = releaseDisabled
	}
	if flags.Changed("rollout") {
		form.SetRollout(releaseRollout)
	}
	if releaseNoRollout {
		form.SetRolloutEnabled(false)
	}

	update, err := form.Payload()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if releaseDryRun {
		fmt.Fprintf(out, "Would update %s on %s/%s:\n", latest.Label, app, deployment)
		return writeJSON(out, update)
	}

	journal, err := openJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	updateErr := client.UpdateRelease(cmd.Context(), app, deployment, update)
	recordAction(journal, models.ActionReleaseUpdate, app, deployment, &latest.Label, update, updateErr)
	if updateErr != nil {
		return updateErr
	}

	updated := latest
	updated.AppVersion = update.AppVersion
	updated.Description = update.Description
	updated.IsMandatory = update.IsMandatory
	updated.IsDisabled = update.IsDisabled
	updated.Rollout = update.Rollout

	fmt.Fprintf(out, "Updated release %s\n\n", latest.Label)
	fmt.Fprint(out, dashboard.FormatReleaseDetails(app, deployment, updated, noColor(out)))
	return nil
}

// recordAction journals a mutating call and its outcome. Journal failures are
// logged and never fail the command.
func recordAction(journal interface {
	RecordAction(models.Action) (models.Action, error)
}, kind models.ActionKind, app, deployment string, label *string, detail any, callErr error) {
	encoded, err := json.Marshal(detail)
	if err != nil {
		encoded = []byte("{}")
	}

	a := models.Action{
		Timestamp:  time.Now().Unix(),
		App:        app,
		Deployment: deployment,
		Kind:       kind,
		Label:      label,
		Detail:     string(encoded),
		Status:     models.StatusOK,
		Operator:   operator(),
	}
	if callErr != nil {
		msg := callErr.Error()
		a.Status = models.StatusFailed
		a.Error = &msg
	}

	if _, err := journal.RecordAction(a); err != nil {
		logger.Warn("failed to journal action", "kind", kind, "error", err)
	}
}

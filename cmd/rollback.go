package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/humanzai/cpdash/internal/rollback"
	"github.com/humanzai/cpdash/pkg/models"
)

var (
	rollbackPolicy        string
	rollbackTargetVersion string
	rollbackYes           bool
)

var errAborted = errors.New("rollback aborted")

var rollbackCmd = &cobra.Command{
	Use:   "rollback <app> <deployment> [label]",
	Short: "Roll a deployment back to an earlier release",
	Long: `Roll a deployment back.

With a label, the target must exist in the deployment's history and, under
the default policy, target the same app version as the current release.
Without a label the service rolls back to the previous release, or to
--target-version when given.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)

	rollbackCmd.Flags().StringVar(&rollbackPolicy, "policy", rollback.ValidateAppVersion.String(), "Target check: validate-app-version or unchecked")
	rollbackCmd.Flags().StringVar(&rollbackTargetVersion, "target-version", "", "Release to roll back to when no label is given")
	rollbackCmd.Flags().BoolVarP(&rollbackYes, "yes", "y", false, "Do not ask for confirmation")
}

func runRollback(cmd *cobra.Command, args []string) error {
	app, deployment := args[0], args[1]

	policy, err := rollback.ParsePolicy(rollbackPolicy)
	if err != nil {
		return err
	}
	if len(args) == 3 && rollbackTargetVersion != "" {
		return fmt.Errorf("--target-version cannot be combined with a label")
	}
	cmd.SilenceUsage = true

	client, err := newClient()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	var target, previousLabel string
	switch {
	case len(args) == 3:
		target = args[2]
	case rollbackTargetVersion != "":
		target = rollbackTargetVersion
	default:
		entries, err := client.GetDeploymentHistory(cmd.Context(), app, deployment)
		if err != nil {
			return err
		}
		prev, ok := rollback.Previous(entries)
		if !ok {
			return fmt.Errorf("%s/%s has no previous release to roll back to", app, deployment)
		}
		target = fmt.Sprintf("%s (%s)", prev.Label, prev.AppVersion)
		previousLabel = prev.Label
	}
	if !rollbackYes {
		ok, err := confirm(cmd, fmt.Sprintf("Roll back %s/%s to %s?", app, deployment, target))
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	journal, err := openJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	if len(args) == 3 {
		label := args[2]
		entry, err := client.RollbackToLabel(cmd.Context(), app, deployment, label, policy)
		recordAction(journal, models.ActionRollback, app, deployment, &label, map[string]string{"label": label, "policy": policy.String()}, err)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Rollback to version %s (%s) initiated\n", entry.Label, entry.AppVersion)
		return nil
	}

	label := previousLabel
	if rollbackTargetVersion != "" {
		label = rollbackTargetVersion
	}
	err = client.RollbackToPrevious(cmd.Context(), app, deployment, rollbackTargetVersion)
	recordAction(journal, models.ActionRollbackPrevious, app, deployment, &label, map[string]string{"targetRelease": rollbackTargetVersion}, err)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Rollback to %s initiated\n", target)
	return nil
}

// confirm asks a yes/no question on the command's input
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)

	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false, nil
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/humanzai/cpdash/internal/dashboard"
)

var keysJSON bool

var keysCmd = &cobra.Command{
	Use:   "keys <app>",
	Short: "Show the deployment keys of an app",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.Flags().BoolVar(&keysJSON, "json", false, "Print keys as JSON")
}

func runKeys(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	client, err := newClient()
	if err != nil {
		return err
	}

	keys, err := client.GetDeploymentKeys(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if keysJSON {
		return writeJSON(out, keys)
	}
	fmt.Fprint(out, dashboard.FormatKeys(args[0], keys, noColor(out)))
	return nil
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/humanzai/cpdash/internal/dashboard"
)

var appsJSON bool

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List apps and their deployments",
	Args:  cobra.NoArgs,
	RunE:  runApps,
}

func init() {
	rootCmd.AddCommand(appsCmd)
	appsCmd.Flags().BoolVar(&appsJSON, "json", false, "Print apps as JSON")
}

func runApps(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	client, err := newClient()
	if err != nil {
		return err
	}

	apps, err := client.GetApps(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if appsJSON {
		return writeJSON(out, apps)
	}
	fmt.Fprint(out, dashboard.FormatApps(apps, noColor(out)))
	return nil
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

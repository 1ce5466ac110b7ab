package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the current version of cpdash
const Version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cpdash",
	Long:  "Print the version number of cpdash",
	Args:  cobra.NoArgs,
	// The root pre-run loads configuration, which version does not need
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cpdash version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("cpdash version {{.Version}}\n")
	rootCmd.Flags().BoolP("version", "v", false, "Print the version number of cpdash")
}

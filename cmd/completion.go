package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/humanzai/cpdash/internal/history"
	"github.com/humanzai/cpdash/internal/rollback"
	"github.com/humanzai/cpdash/pkg/models"
)

func init() {
	// Register custom completions after all commands are initialized
	cobra.OnInitialize(registerCompletions)
}

func registerCompletions() {
	// --db flag: complete with .db files
	rootCmd.RegisterFlagCompletionFunc("db", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"db"}, cobra.ShellCompDirectiveFilterFileExt
	})

	rootCmd.RegisterFlagCompletionFunc("color", fixedCompletions(
		"auto\tColor when writing to a terminal",
		"always\tAlways color output",
		"never\tNever color output",
	))

	// history --sort / --order
	historyCmd.RegisterFlagCompletionFunc("sort", completeSortField)
	historyCmd.RegisterFlagCompletionFunc("order", fixedCompletions(
		"desc\tDescending",
		"asc\tAscending",
	))

	policies := fixedCompletions(
		rollback.ValidateAppVersion.String()+"\tOnly targets with the current app version",
		rollback.Unchecked.String()+"\tAny label in the history",
	)
	rollbackCmd.RegisterFlagCompletionFunc("policy", policies)
	dashboardCmd.RegisterFlagCompletionFunc("policy", policies)

	journalCmd.RegisterFlagCompletionFunc("kind", fixedCompletions(
		string(models.ActionRollback)+"\tRollback to a label",
		string(models.ActionRollbackPrevious)+"\tRollback to the previous release",
		string(models.ActionReleaseUpdate)+"\tRelease metadata edit",
	))

	journalSummaryCmd.RegisterFlagCompletionFunc("date", fixedCompletions(
		"today\tToday's actions",
		"yesterday\tYesterday's actions",
	))
	journalSummaryCmd.RegisterFlagCompletionFunc("bucket", fixedCompletions(
		"hour\tGroup by hour",
		"day\tGroup by day",
	))
}

// completeSortField completes the history sort field names
func completeSortField(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var completions []string
	for _, name := range history.FieldNames() {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(toComplete)) {
			completions = append(completions, name)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func fixedCompletions(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

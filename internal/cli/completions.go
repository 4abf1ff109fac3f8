package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ingest/internal/config"
)

// sslModes contains valid PostgreSQL SSL modes for shell completion.
var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

var (
	loadModes   = []string{"best-effort", "atomic"}
	logFormats  = []string{config.LogFormatConsole, config.LogFormatJSON}
	progressOut = []string{config.ProgressAuto, config.ProgressPlain, config.ProgressTUI, config.ProgressNone}
)

// completeFrom returns a completion function offering the values with the typed prefix.
func completeFrom(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var matches []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				matches = append(matches, v)
			}
		}
		return matches, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveFilterDirs
}

func registerCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc(config.FlagSSLMode, completeFrom(sslModes))
	_ = cmd.RegisterFlagCompletionFunc(config.FlagMode, completeFrom(loadModes))
	_ = cmd.RegisterFlagCompletionFunc(config.FlagLogFormat, completeFrom(logFormats))
	_ = cmd.RegisterFlagCompletionFunc(config.FlagProgress, completeFrom(progressOut))
	_ = cmd.RegisterFlagCompletionFunc(config.FlagSourceDir, completeDirectories)
}

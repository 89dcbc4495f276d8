package commands

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags
var (
	Version = "0.1.0"
	Commit  = ""
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if commit := resolveCommitHash(); commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "bomalloc version %s (%s)\n", Version, commit)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bomalloc version %s\n", Version)
		},
	}
}

func resolveCommitHash() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				return setting.Value[:7]
			}
		}
	}
	return ""
}

package cmd

import (
	"fmt"
	"runtime"

	"github.com/ginjaninja78/invoic-edifact/internal/edifact"
	"github.com/spf13/cobra"
)

// Version and BuildDate are stamped by the release build:
//
//	go build -ldflags "-X github.com/ginjaninja78/invoic-edifact/cmd.Version=1.2.0 -X github.com/ginjaninja78/invoic-edifact/cmd.BuildDate=2025-04-15"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the generator and message versions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "invoic %s (built %s, %s)\n", Version, BuildDate, runtime.Version())
		fmt.Fprintf(out, "message type %s, syntax %s\n", edifact.MessageType, edifact.SyntaxIdentifier)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

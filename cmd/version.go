package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("outlook-mail-reader version %s %s/%s\n", version, runtime.GOOS, runtime.GOARCH)
		},
	}
}

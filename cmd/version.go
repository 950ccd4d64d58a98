package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fenrow/prehook/pkg/buildinfo"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			extended, _ := cmd.Flags().GetBool("extended")
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "prehook %s\n", buildinfo.BinaryVersion)
			if extended {
				fmt.Fprintf(out, "module:   %s\n", buildinfo.ModuleVersion())
				fmt.Fprintf(out, "go:       %s\n", runtime.Version())
				fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
			return nil
		},
	}
	cmd.Flags().Bool("extended", false, "Show build details")
	return cmd
}

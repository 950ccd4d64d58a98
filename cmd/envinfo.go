package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fenrow/prehook/pkg/buildinfo"
	"github.com/fenrow/prehook/pkg/config"
	"github.com/fenrow/prehook/pkg/exitcode"
)

type envInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUs      int    `json:"cpus"`
	Home      string `json:"home"`
	CacheDir  string `json:"cache_dir"`
	ConfigDir string `json:"config_dir"`
}

func newEnvinfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envinfo",
		Short: "Show environment information for troubleshooting",
		RunE:  runEnvinfo,
	}
	cmd.Flags().Bool("json-output", false, "Emit environment info as JSON")
	return cmd
}

func runEnvinfo(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json-output")

	home, err := config.GetPrehookHome()
	if err != nil {
		return exitWith(exitcode.GeneralError, err)
	}
	cacheDir, _ := config.GetCacheDir()
	configDir, _ := config.GetConfigDir()

	info := envInfo{
		Version:   buildinfo.BinaryVersion,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		Home:      home,
		CacheDir:  cacheDir,
		ConfigDir: configDir,
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(out, "prehook:    %s\n", info.Version)
	fmt.Fprintf(out, "go:         %s\n", info.GoVersion)
	fmt.Fprintf(out, "platform:   %s/%s (%d cpus)\n", info.OS, info.Arch, info.CPUs)
	fmt.Fprintf(out, "home:       %s\n", info.Home)
	fmt.Fprintf(out, "cache dir:  %s\n", info.CacheDir)
	fmt.Fprintf(out, "config dir: %s\n", info.ConfigDir)
	return nil
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Set with -ldflags "-X github.com/spigell/assessment-flow/cmd.version=..." at build time.
var (
	version = "unknown"
	commit  = "unknown"
	built   = "unknown"
)

type buildInfo struct {
	App     string `json:"app"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
	Go      string `json:"go"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printVersion(cmd.OutOrStdout(), viper.GetBool("json"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion(out io.Writer, asJSON bool) error {
	info := buildInfo{App: app, Version: version, Commit: commit, Built: built, Go: runtime.Version()}

	if asJSON {
		return json.NewEncoder(out).Encode(info)
	}

	_, err := fmt.Fprintf(out, "%s version: %s (commit %s, built %s, %s)\n", info.App, info.Version, info.Commit, info.Built, info.Go)
	return err
}

// Command larmerge runs the cluster merging and stitching stages over YAML event fixtures.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/larreco/larmerge/config"
)

// Version is set at build time.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "larmerge",
	Short: "Cluster association and merge resolution for LArTPC events",
	Long: `larmerge merges fragmented hit clusters with a fixed-point association loop,
vetoes associations across detector volumes, and stitches particle-flow objects
across the gap at z = 0.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (defaults apply when empty)")
}

// loadConfig returns the configuration named by --config, or the defaults.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}

	return config.Load(configPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

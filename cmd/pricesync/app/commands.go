// Package app provides the command-line entry points for the price sync
// worker.
package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sosanhsach/pricesync/internal/logger"
	"github.com/sosanhsach/pricesync/internal/versions"
)

var rootCmd = &cobra.Command{
	Use:               "pricesync",
	DisableAutoGenTag: true,
	Short:             "Vendor catalog to spreadsheet price sync worker",
	Long: `pricesync keeps a spreadsheet work queue in sync with the vendor's
game top-up catalog: each cycle snapshots the catalog, appends the audit
rows, and prices every row flagged for processing.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help.
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates the root command for the worker.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versions.GetVersionInfo()
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to read format flag: %w", err)
		}

		if format == "json" {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to format version info: %w", err)
			}
			fmt.Println(string(output))
			return nil
		}

		fmt.Printf("pricesync %s (commit %s, built %s, %s, %s)\n",
			info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
		return nil
	},
}

func init() {
	versionCmd.Flags().String("format", "", "Output format (json)")
}

package commands

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "etpflow",
	Short: "etpflow - fetch eMM11 transit permits and generate their documents",
	Long: `etpflow drives the eMM11 transit-permit workflow: collect a serial
range and district, fetch the matching permit records, advance them through
the issuing portal, and render each permit into a QR-coded PDF document.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

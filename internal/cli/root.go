package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cruload",
	Short: "Load CRU TS 2.1 gridded climate files into PostgreSQL",
	Long: `cruload reads gridded climate data files in the CRU TS 2.1 format (the
.pre, .tmp, .cld ... files published by the Climatic Research Unit) and loads
every monthly value into a PostgreSQL table with the columns
"Xref", "Yref", "Date" and "Value".

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - User denied dropping the existing table
  13 - Writing rows failed
  14 - Data file is not valid CRU TS 2.1`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	// -h is --host, as in psql.
	rootCmd.PersistentFlags().Bool("help", false, "Help for cruload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

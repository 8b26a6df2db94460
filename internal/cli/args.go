package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequireDataFile validates that exactly one data file argument is provided.
// Returns a helpful error message with usage and examples if missing or too many.
func RequireDataFile(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <file>

Usage: %s

Example:
  %s cru_ts_2_10.1901-2002.pre`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vvka-141/cruload/internal/datafile"
	"github.com/vvka-141/cruload/pkg/cru"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the header of a CRU TS 2.1 file",
	Long: `Inspect prints the dataset metadata decoded from the five-line header of a
CRU TS 2.1 file and the table name load would use by default.

With --validate every grid box is read and checked, without touching a
database. Combine with --strict to also require the header's Boxes= count.

Examples:
  cruload inspect cru_ts_2_10.1901-2002.pre
  cruload inspect cru_ts_2_10.1901-2002.pre --validate --strict`,
	Args: RequireDataFile,
	RunE: runInspect,
}

var inspectFlags struct {
	validate bool
	strict   bool
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(14)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&inspectFlags.validate, "validate", false,
		"Read every grid box and report the totals")
	inspectCmd.Flags().BoolVar(&inspectFlags.strict, "strict", false,
		"With --validate, fail when the box count differs from the header")
}

func runInspect(cmd *cobra.Command, args []string) error {
	return inspectFile(cmd.OutOrStdout(), args[0], inspectFlags.validate, inspectFlags.strict)
}

func inspectFile(out io.Writer, path string, validate, strict bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	df := datafile.New(f, datafile.WithStrictBoxCount(strict))
	if err := df.ReadHeader(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	meta, err := df.Metadata()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	printMetadata(out, path, meta)

	if !validate {
		return nil
	}

	boxes := df.GridBoxes()
	var points int
	for boxes.Next() {
		points += len(boxes.GridBox().Data)
	}
	if err := boxes.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintln(out, row("Validated", okStyle.Render(
		fmt.Sprintf("%d grid boxes, %d data points", boxes.Count(), points))))
	if boxes.Count() != meta.NumBoxes {
		fmt.Fprintln(out, row("Warning", fmt.Sprintf("header declares %d grid boxes", meta.NumBoxes)))
	}
	return nil
}

func printMetadata(out io.Writer, path string, meta cru.DatasetMetadata) {
	fmt.Fprintln(out, row("File", path))
	fmt.Fprintln(out, row("Dataset", meta.Info))
	fmt.Fprintln(out, row("Parameter", fmt.Sprintf("%s (%s)", meta.Parameter, meta.Units)))
	fmt.Fprintln(out, row("Extension", meta.Extension))
	fmt.Fprintln(out, row("Years", fmt.Sprintf("%d-%d (%d)", meta.MinYear, meta.MaxYear, meta.NumYears())))
	fmt.Fprintln(out, row("Grid boxes", fmt.Sprintf("%d declared, %d values each", meta.NumBoxes, meta.PointsPerBox())))
	fmt.Fprintln(out, row("Table", meta.DefaultTableName()))
}

func row(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}

package datafile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const referenceFile = "cru_ts_2_10.1991-2000.pre"

var validHeader = []string{
	"Tyndall Centre grim file created on 22.01.2004 at 17:57 by Dr. Tim Mitchell",
	".pre = precipitation (mm)",
	"CRU TS 2.1",
	"[Long=-180.00, 180.00] [Lati= -90.00,  90.00] [Grid X,Y= 720, 360]",
	"[Boxes=       2] [Years=1991-2000] [Multi=    0.1000] [Missing=-999]",
}

// openReference opens the two-box, ten-year reference file.
func openReference(t *testing.T, opts ...Option) *DataFile {
	t.Helper()

	f, err := os.Open(filepath.Join("testdata", referenceFile))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	return New(f, opts...)
}

// fromLines builds a DataFile over the given lines.
func fromLines(lines []string, opts ...Option) *DataFile {
	return New(strings.NewReader(strings.Join(lines, "\n")+"\n"), opts...)
}

// extentLine renders the fifth header line.
func extentLine(boxes, minYear, maxYear int) string {
	return fmt.Sprintf("[Boxes=%8d] [Years=%d-%d] [Multi=    0.1000] [Missing=-999]", boxes, minYear, maxYear)
}

// header returns validHeader with the box count and year range replaced.
func header(boxes, minYear, maxYear int) []string {
	h := append([]string(nil), validHeader...)
	h[4] = extentLine(boxes, minYear, maxYear)
	return h
}

// dataLine renders twelve values as fixed-width fields.
func dataLine(values ...int) string {
	var b strings.Builder
	for _, v := range values {
		fmt.Fprintf(&b, "%5d", v)
	}
	return b.String()
}

// block renders one grid block with a constant value per year.
func block(xref, yref, years, value int) []string {
	lines := []string{fmt.Sprintf("Grid-ref=%4d,%4d", xref, yref)}
	for y := 0; y < years; y++ {
		row := make([]int, 12)
		for m := range row {
			row[m] = value + y*100 + m
		}
		lines = append(lines, dataLine(row...))
	}
	return lines
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

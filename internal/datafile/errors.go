package datafile

import (
	"errors"
	"fmt"

	"github.com/vvka-141/cruload/pkg/cru"
)

// ErrUninitializedMetadata is returned when header-derived fields are
// requested before the header has been parsed successfully.
var ErrUninitializedMetadata = errors.New("uninitialized metadata: header has not been read")

// HeaderParseError reports a header line that does not match its template.
type HeaderParseError struct {
	Line   int // 0-based index within the header
	Text   string
	Reason string
}

func (e *HeaderParseError) Error() string {
	return fmt.Sprintf("error parsing header line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *HeaderParseError) Is(target error) bool { return target == cru.ErrMalformedFile }

// GridHeaderParseError reports a grid block whose coordinate line is not "Grid-ref=x,y".
type GridHeaderParseError struct {
	Box    int // 0-based index of the grid box in the file
	LineNo int // 1-based line number in the file
	Text   string
}

func (e *GridHeaderParseError) Error() string {
	return fmt.Sprintf("error parsing grid header of box %d (line %d): %q", e.Box, e.LineNo, e.Text)
}

func (e *GridHeaderParseError) Is(target error) bool { return target == cru.ErrMalformedFile }

// GridBoxSizeError reports a grid box that does not hold NumYears*12 values.
type GridBoxSizeError struct {
	Box        int
	Xref, Yref int
	Got, Want  int
}

func (e *GridBoxSizeError) Error() string {
	return fmt.Sprintf("grid box %d (%d,%d) has %d data points, expected %d",
		e.Box, e.Xref, e.Yref, e.Got, e.Want)
}

func (e *GridBoxSizeError) Is(target error) bool { return target == cru.ErrMalformedFile }

// FieldValueError reports a fixed-width field that is not a valid integer,
// or a data line whose length is not a multiple of the field width.
type FieldValueError struct {
	Box    int
	LineNo int
	Field  int // 0-based field index within the line
	Text   string
	Reason string
}

func (e *FieldValueError) Error() string {
	return fmt.Sprintf("invalid value in grid box %d, line %d, field %d: %s: %q",
		e.Box, e.LineNo, e.Field, e.Reason, e.Text)
}

func (e *FieldValueError) Is(target error) bool { return target == cru.ErrMalformedFile }

// BoxCountError reports, in strict mode, a file whose number of grid boxes
// differs from the count declared in the header.
type BoxCountError struct {
	Declared int
	Found    int
}

func (e *BoxCountError) Error() string {
	if e.Found > e.Declared {
		return fmt.Sprintf("header declares %d grid boxes but the file contains more", e.Declared)
	}
	return fmt.Sprintf("header declares %d grid boxes but the file contains %d", e.Declared, e.Found)
}

func (e *BoxCountError) Is(target error) bool { return target == cru.ErrMalformedFile }

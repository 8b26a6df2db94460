package datafile

import (
	"bufio"
	"fmt"
	"io"

	"github.com/vvka-141/cruload/pkg/cru"
)

// maxLineLength bounds a single line; data lines are 60 characters.
const maxLineLength = 1 << 20

// lineSource hands out lines of the underlying reader one at a time.
type lineSource struct {
	scanner *bufio.Scanner
	lineNo  int
}

func newLineSource(r io.Reader) *lineSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	return &lineSource{scanner: scanner}
}

// next returns the next line without its terminator.
// ok is false at end of input.
func (l *lineSource) next() (line string, ok bool, err error) {
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", false, fmt.Errorf("failed to read line %d: %w", l.lineNo+1, err)
		}
		return "", false, nil
	}
	l.lineNo++
	return l.scanner.Text(), true, nil
}

// DataFile is a CRU TS 2.1 file being read from r.
// It is not safe for concurrent use.
type DataFile struct {
	lines  *lineSource
	strict bool

	headerRead bool
	headerErr  error
	meta       cru.DatasetMetadata

	boxes *GridBoxReader
}

// Option configures a DataFile.
type Option func(*DataFile)

// WithStrictBoxCount makes grid box iteration fail with a BoxCountError when
// the number of boxes differs from the count declared in the header.
// By default iteration simply ends at end of file.
func WithStrictBoxCount(strict bool) Option {
	return func(f *DataFile) {
		f.strict = strict
	}
}

// New creates a DataFile reading from r, positioned at the start of the file.
// The caller keeps ownership of r.
func New(r io.Reader, opts ...Option) *DataFile {
	f := &DataFile{lines: newLineSource(r)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ReadHeader parses the five header lines. Calling it again after it has run
// returns the first result without reading anything.
func (f *DataFile) ReadHeader() error {
	if f.headerRead || f.headerErr != nil {
		return f.headerErr
	}

	meta, err := parseHeader(f.lines)
	if err != nil {
		f.headerErr = err
		return err
	}

	f.meta = meta
	f.headerRead = true
	return nil
}

// Metadata returns the parsed header, or ErrUninitializedMetadata if
// ReadHeader has not succeeded yet.
func (f *DataFile) Metadata() (cru.DatasetMetadata, error) {
	if !f.headerRead {
		return cru.DatasetMetadata{}, ErrUninitializedMetadata
	}
	return f.meta, nil
}

// NumYears returns the number of years per grid box, or
// ErrUninitializedMetadata if ReadHeader has not succeeded yet.
func (f *DataFile) NumYears() (int, error) {
	meta, err := f.Metadata()
	if err != nil {
		return 0, err
	}
	return meta.NumYears(), nil
}

// StrictBoxCount reports whether the declared box count is enforced.
func (f *DataFile) StrictBoxCount() bool {
	return f.strict
}

// GridBoxes returns the cursor over the grid boxes of the file, reading the
// header first if necessary. The file can only be traversed once, so every
// call returns the same reader.
func (f *DataFile) GridBoxes() *GridBoxReader {
	if f.boxes == nil {
		f.boxes = &GridBoxReader{file: f}
	}
	return f.boxes
}

// DataPoints returns a stream of flattened data points over GridBoxes.
func (f *DataFile) DataPoints() *DataPointStream {
	return &DataPointStream{boxes: f.GridBoxes()}
}

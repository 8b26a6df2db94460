package datafile

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/cruload/pkg/cru"
)

const (
	// FieldWidth is the number of characters of one monthly value.
	FieldWidth    = 5
	monthsPerYear = 12

	// maxBoxPrealloc caps the capacity reserved for one box; larger boxes grow by append.
	maxBoxPrealloc = 1 << 12
)

var gridRefPattern = regexp.MustCompile(`^Grid-ref=\s*(-?\d+),\s*(-?\d+)\s*$`)

// GridBoxReader is a single-pass cursor over the grid boxes of a DataFile.
//
//	boxes := df.GridBoxes()
//	for boxes.Next() {
//	    box := boxes.GridBox()
//	    ...
//	}
//	if err := boxes.Err(); err != nil { ... }
type GridBoxReader struct {
	file  *DataFile
	box   cru.GridBox
	count int
	err   error
	done  bool
}

// Next advances to the next grid box. It returns false at end of file or on
// the first error; Err tells the two apart.
func (r *GridBoxReader) Next() bool {
	if r.done {
		return false
	}

	box, ok, err := r.read()
	if err != nil || !ok {
		r.err = err
		r.done = true
		r.box = cru.GridBox{}
		return false
	}

	r.box = box
	r.count++
	return true
}

// GridBox returns the box read by the last successful call to Next.
func (r *GridBoxReader) GridBox() cru.GridBox {
	return r.box
}

// Err returns the error that stopped iteration, if any.
func (r *GridBoxReader) Err() error {
	return r.err
}

// Count returns the number of grid boxes read so far.
func (r *GridBoxReader) Count() int {
	return r.count
}

func (r *GridBoxReader) read() (cru.GridBox, bool, error) {
	f := r.file
	if err := f.ReadHeader(); err != nil {
		return cru.GridBox{}, false, err
	}
	meta := f.meta

	line, ok, err := r.nextNonBlank()
	if err != nil {
		return cru.GridBox{}, false, err
	}
	if !ok {
		if f.strict && r.count != meta.NumBoxes {
			return cru.GridBox{}, false, &BoxCountError{Declared: meta.NumBoxes, Found: r.count}
		}
		return cru.GridBox{}, false, nil
	}
	if f.strict && r.count >= meta.NumBoxes {
		return cru.GridBox{}, false, &BoxCountError{Declared: meta.NumBoxes, Found: r.count + 1}
	}

	xref, yref, ok := parseGridRef(line)
	if !ok {
		return cru.GridBox{}, false, &GridHeaderParseError{Box: r.count, LineNo: f.lines.lineNo, Text: line}
	}

	want := meta.PointsPerBox()
	box := cru.GridBox{Xref: xref, Yref: yref, Data: make([]cru.MonthlyValue, 0, min(want, maxBoxPrealloc))}
	sizeErr := func(got int) error {
		return &GridBoxSizeError{Box: r.count, Xref: xref, Yref: yref, Got: got, Want: want}
	}

	for year := meta.MinYear; year <= meta.MaxYear; year++ {
		line, ok, err := f.lines.next()
		if err != nil {
			return cru.GridBox{}, false, err
		}
		if !ok {
			return cru.GridBox{}, false, sizeErr(len(box.Data))
		}

		values, err := SplitFields(line)
		if err != nil {
			var fieldErr *FieldValueError
			if errors.As(err, &fieldErr) {
				fieldErr.Box = r.count
				fieldErr.LineNo = f.lines.lineNo
			}
			return cru.GridBox{}, false, err
		}
		if len(values) != monthsPerYear {
			return cru.GridBox{}, false, sizeErr(len(box.Data) + len(values))
		}

		for i, v := range values {
			box.Data = append(box.Data, cru.MonthlyValue{
				Date:  time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
				Value: v,
			})
		}
	}

	if len(box.Data) != want {
		return cru.GridBox{}, false, sizeErr(len(box.Data))
	}
	return box, true, nil
}

// nextNonBlank skips blank lines between blocks and at the end of the file.
func (r *GridBoxReader) nextNonBlank() (string, bool, error) {
	for {
		line, ok, err := r.file.lines.next()
		if err != nil || !ok {
			return "", false, err
		}
		if strings.TrimSpace(line) != "" {
			return line, true, nil
		}
	}
}

func parseGridRef(line string) (xref, yref int, ok bool) {
	m := gridRefPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	x, errX := strconv.Atoi(m[1])
	y, errY := strconv.Atoi(m[2])
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

// SplitFields splits a data line into right-aligned integer fields of
// FieldWidth characters. A line whose length is not a multiple of FieldWidth,
// or a field that is blank or not an integer, yields a *FieldValueError.
func SplitFields(line string) ([]int, error) {
	if len(line)%FieldWidth != 0 {
		return nil, &FieldValueError{
			Field:  len(line) / FieldWidth,
			Text:   line,
			Reason: fmt.Sprintf("line length %d is not a multiple of %d", len(line), FieldWidth),
		}
	}

	values := make([]int, 0, len(line)/FieldWidth)
	for i := 0; i < len(line); i += FieldWidth {
		chunk := line[i : i+FieldWidth]
		v, err := strconv.Atoi(strings.TrimLeft(chunk, " "))
		if err != nil {
			reason := "not an integer"
			if strings.TrimSpace(chunk) == "" {
				reason = "blank field"
			}
			return nil, &FieldValueError{Field: i / FieldWidth, Text: chunk, Reason: reason}
		}
		values = append(values, v)
	}
	return values, nil
}

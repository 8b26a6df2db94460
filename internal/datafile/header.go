package datafile

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/vvka-141/cruload/pkg/cru"
)

// headerLines is the number of lines in a CRU TS 2.1 header.
const headerLines = 5

// VersionLine is the literal third header line.
const VersionLine = "CRU TS 2.1"

// headerTemplate matches one header line and copies its fields into meta.
type headerTemplate struct {
	pattern *regexp.Regexp
	apply   func(match []string, meta *cru.DatasetMetadata) error
}

var headerTemplates = [headerLines]headerTemplate{
	{
		pattern: regexp.MustCompile(`^(.+?) file created on (.+) at (.+) by (.+)$`),
		apply: func(m []string, meta *cru.DatasetMetadata) error {
			meta.Info = m[1]
			return nil
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?) = (.+) \((.+)\)\s*$`),
		apply: func(m []string, meta *cru.DatasetMetadata) error {
			meta.Extension = m[1]
			meta.Parameter = m[2]
			meta.Units = m[3]
			return nil
		},
	},
	{
		pattern: regexp.MustCompile(`^` + regexp.QuoteMeta(VersionLine) + `$`),
	},
	{
		// Long, Lati and Grid X,Y are not needed downstream.
		pattern: regexp.MustCompile(`^\[Long=(.+?)\] \[Lati=(.+?)\] \[Grid X,Y=(.+?)\]\s*$`),
	},
	{
		pattern: regexp.MustCompile(`^\[Boxes=\s*(\d+)\] \[Years=\s*(\d+)-(\d+)\] \[Multi=(.+?)\] \[Missing=(.+?)\]\s*$`),
		apply:   applyExtent,
	},
}

// MaxYear is the latest year a header may declare. It matches the upper
// bound of a four-digit calendar year.
const MaxYear = 9999

func applyExtent(m []string, meta *cru.DatasetMetadata) error {
	numBoxes, err := strconv.Atoi(m[1])
	if err != nil {
		return fmt.Errorf("invalid box count %q", m[1])
	}
	minYear, err := strconv.Atoi(m[2])
	if err != nil {
		return fmt.Errorf("invalid first year %q", m[2])
	}
	maxYear, err := strconv.Atoi(m[3])
	if err != nil {
		return fmt.Errorf("invalid last year %q", m[3])
	}
	if numBoxes <= 0 {
		return fmt.Errorf("box count must be positive, got %d", numBoxes)
	}
	if minYear > maxYear {
		return fmt.Errorf("year range %d-%d is reversed", minYear, maxYear)
	}
	if maxYear > MaxYear {
		return fmt.Errorf("last year %d is after %d", maxYear, MaxYear)
	}

	meta.NumBoxes = numBoxes
	meta.MinYear = minYear
	meta.MaxYear = maxYear
	return nil
}

// parseHeader consumes exactly five lines. The result is only returned once
// every line has matched.
func parseHeader(lines *lineSource) (cru.DatasetMetadata, error) {
	var meta cru.DatasetMetadata

	for i, tmpl := range headerTemplates {
		line, ok, err := lines.next()
		if err != nil {
			return cru.DatasetMetadata{}, err
		}
		if !ok {
			return cru.DatasetMetadata{}, &HeaderParseError{Line: i, Reason: "unexpected end of file"}
		}

		match := tmpl.pattern.FindStringSubmatch(line)
		if match == nil {
			return cru.DatasetMetadata{}, &HeaderParseError{Line: i, Text: line, Reason: "line does not match template"}
		}
		if tmpl.apply == nil {
			continue
		}
		if err := tmpl.apply(match, &meta); err != nil {
			return cru.DatasetMetadata{}, &HeaderParseError{Line: i, Text: line, Reason: err.Error()}
		}
	}

	return meta, nil
}

// Package datafile reads CRU TS 2.1 gridded climate data files.
//
// A file starts with a five-line header describing the dataset, followed by
// one block per grid box: a "Grid-ref=x,y" line and one line per year holding
// twelve right-aligned integers of five characters each.
//
// # Example Usage
//
//	f, err := os.Open("cru_ts_2_10.1991-2000.pre")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	df := datafile.New(f, datafile.WithStrictBoxCount(true))
//	points := df.DataPoints()
//	for points.Next() {
//	    p := points.DataPoint()
//	    fmt.Println(p.Xref, p.Yref, p.Date.Format("2006-01"), p.Value)
//	}
//	if err := points.Err(); err != nil {
//	    return err
//	}
//
// # Streaming
//
// GridBoxReader and DataPointStream are single-pass cursors over the
// underlying reader: each call to Next reads only as many lines as it needs.
// The reader is never closed by this package.
//
// # Errors
//
// Every structural problem is reported as one of the typed errors in this
// package (HeaderParseError, GridHeaderParseError, GridBoxSizeError,
// FieldValueError, BoxCountError), each matching cru.ErrMalformedFile with
// errors.Is. The format has no resynchronization marker, so the first error
// ends iteration.
package datafile

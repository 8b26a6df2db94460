package datafile

import (
	"fmt"

	"github.com/vvka-141/cruload/pkg/cru"
)

// maxBatchPrealloc caps the capacity reserved up front by Batch.
const maxBatchPrealloc = 1 << 16

// DataPointStream flattens the grid boxes of a file into data points, in
// grid box order and chronologically within a box. It is single-pass.
type DataPointStream struct {
	boxes *GridBoxReader
	box   cru.GridBox
	next  int
	point cru.DataPoint
	err   error
}

// Next advances to the next data point. It returns false at the end of the
// file or on the first error; Err tells the two apart.
func (s *DataPointStream) Next() bool {
	for s.next >= len(s.box.Data) {
		if !s.boxes.Next() {
			s.err = s.boxes.Err()
			s.point = cru.DataPoint{}
			return false
		}
		s.box = s.boxes.GridBox()
		s.next = 0
	}

	v := s.box.Data[s.next]
	s.next++
	s.point = cru.DataPoint{Xref: s.box.Xref, Yref: s.box.Yref, Date: v.Date, Value: v.Value}
	return true
}

// DataPoint returns the point read by the last successful call to Next.
func (s *DataPointStream) DataPoint() cru.DataPoint {
	return s.point
}

// Err returns the error that stopped iteration, if any.
func (s *DataPointStream) Err() error {
	return s.err
}

// Boxes returns the number of grid boxes consumed so far.
func (s *DataPointStream) Boxes() int {
	return s.boxes.Count()
}

// Batch returns up to n further data points. An empty batch with a nil error
// means the stream is exhausted.
func (s *DataPointStream) Batch(n int) ([]cru.DataPoint, error) {
	if n <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", n)
	}

	batch := make([]cru.DataPoint, 0, min(n, maxBatchPrealloc))
	for len(batch) < n && s.Next() {
		batch = append(batch, s.point)
	}
	return batch, s.err
}

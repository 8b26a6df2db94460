package logging

import "github.com/vvka-141/cruload/pkg/cru"

// NullLogger discards everything. Used by tests and library callers that
// do not want output.
type NullLogger struct{}

// NewNullLogger returns a NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Verbose(format string, args ...interface{}) {}
func (l *NullLogger) Info(format string, args ...interface{})    {}
func (l *NullLogger) Error(format string, args ...interface{})   {}

var _ cru.Logger = (*NullLogger)(nil)

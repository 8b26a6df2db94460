// Package logging implements cru.Logger for the command line.
//
// Informational messages and errors always go to the configured writer
// (stderr for the CLI); verbose diagnostics only when enabled with -v.
package logging

package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/vvka-141/cruload/pkg/cru"
)

// InteractiveApprover asks the user to type the table name before it is
// dropped. Without a terminal on stdin it refuses instead of waiting.
type InteractiveApprover struct {
	in         io.Reader
	out        io.Writer
	isTerminal func() bool
}

// NewInteractiveApprover returns an approver reading stdin and writing stderr.
func NewInteractiveApprover() *InteractiveApprover {
	return NewInteractiveApproverWith(os.Stdin, os.Stderr, func() bool {
		return term.IsTerminal(int(os.Stdin.Fd()))
	})
}

// NewInteractiveApproverWith allows the streams and terminal check to be chosen.
func NewInteractiveApproverWith(in io.Reader, out io.Writer, isTerminal func() bool) *InteractiveApprover {
	return &InteractiveApprover{in: in, out: out, isTerminal: isTerminal}
}

func (a *InteractiveApprover) RequestApproval(ctx context.Context, tableName string) (bool, error) {
	if !a.isTerminal() {
		return false, fmt.Errorf("table %s already exists and stdin is not a terminal; use --force to drop it or --append to keep it: %w",
			tableName, cru.ErrApprovalDenied)
	}

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, warningStyle.Render(fmt.Sprintf("WARNING: table %s already exists and will be dropped.", tableName)))
	fmt.Fprintln(a.out, "All rows in it will be permanently deleted. Use --append to keep them.")
	fmt.Fprintf(a.out, "\nTo confirm, type the table name '%s' and press Enter: ", tableName)

	type result struct {
		line string
		err  error
	}
	read := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			read <- result{err: err}
			return
		}
		read <- result{line: strings.TrimSpace(line)}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-read:
		if r.err != nil {
			return false, fmt.Errorf("failed to read confirmation: %w", r.err)
		}
		if r.line != tableName {
			fmt.Fprintf(a.out, "Input '%s' does not match '%s'. Table left unchanged.\n", r.line, tableName)
			return false, nil
		}
		fmt.Fprintln(a.out, "Confirmed.")
		return true, nil
	}
}

var _ cru.Approver = (*InteractiveApprover)(nil)

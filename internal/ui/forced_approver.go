package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"

	"github.com/vvka-141/cruload/pkg/cru"
)

var warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

// ForcedApprover approves after a countdown the user can interrupt with
// Ctrl+C. It is used with --force.
type ForcedApprover struct {
	out       io.Writer
	clock     clockwork.Clock
	countdown time.Duration
}

// NewForcedApprover returns a ForcedApprover writing to stderr with the
// default countdown.
func NewForcedApprover() *ForcedApprover {
	return NewForcedApproverWith(os.Stderr, clockwork.NewRealClock(), cru.DefaultForceApprovalCountdown)
}

// NewForcedApproverWith allows the output, clock and countdown to be chosen.
func NewForcedApproverWith(out io.Writer, clock clockwork.Clock, countdown time.Duration) *ForcedApprover {
	return &ForcedApprover{out: out, clock: clock, countdown: countdown}
}

func (a *ForcedApprover) RequestApproval(ctx context.Context, tableName string) (bool, error) {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, warningStyle.Render(fmt.Sprintf("WARNING: table %s will be dropped and recreated.", tableName)))

	for remaining := int(a.countdown.Seconds()); remaining > 0; remaining-- {
		fmt.Fprintf(a.out, "\rDropping in: %d seconds... (Press Ctrl+C to cancel)", remaining)
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.out)
			return false, ctx.Err()
		case <-a.clock.After(time.Second):
		}
	}

	fmt.Fprintf(a.out, "\rProceeding with table %s.%-30s\n", tableName, "")
	return true, nil
}

var _ cru.Approver = (*ForcedApprover)(nil)

package cru

import "context"

// Approver handles confirmation before a destructive operation: dropping an
// existing table so it can be recreated.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves
//   - InteractiveApprover: Prompts user to type the table name for confirmation
type Approver interface {
	// RequestApproval asks whether the named table may be dropped.
	// Returns false without error when the user declines.
	RequestApproval(ctx context.Context, tableName string) (bool, error)
}

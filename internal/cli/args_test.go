package cli

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/vvka-141/cruload/pkg/cru"
)

func TestRequireDataFile(t *testing.T) {
	cmd := &cobra.Command{
		Use: "load <file>",
	}

	t.Run("returns error when no args", func(t *testing.T) {
		err := RequireDataFile(cmd, []string{})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "missing required argument: <file>") {
			t.Errorf("expected error to contain 'missing required argument: <file>', got: %s", err.Error())
		}
		if !strings.Contains(err.Error(), "Example:") {
			t.Errorf("expected error to contain 'Example:', got: %s", err.Error())
		}
		if code := cru.ExitCodeForError(err); code != cru.ExitUsageError {
			t.Errorf("expected exit code %d, got %d", cru.ExitUsageError, code)
		}
	})

	t.Run("returns nil when arg provided", func(t *testing.T) {
		if err := RequireDataFile(cmd, []string{"data.pre"}); err != nil {
			t.Errorf("expected nil, got: %v", err)
		}
	})

	t.Run("returns error when too many args", func(t *testing.T) {
		err := RequireDataFile(cmd, []string{"a", "b"})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "accepts 1 arg") {
			t.Errorf("expected error to contain 'accepts 1 arg', got: %s", err.Error())
		}
		if code := cru.ExitCodeForError(err); code != cru.ExitUsageError {
			t.Errorf("expected exit code %d, got %d", cru.ExitUsageError, code)
		}
	})
}

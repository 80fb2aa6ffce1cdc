package download

import (
	"context"
	"os/exec"
)

// runCommand runs a CLI tool and returns its combined output.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

package bridge

import (
	"context"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
)

// execRunner shells out through os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// systemClipboard is the real OS pasteboard.
type systemClipboard struct{}

func (systemClipboard) ReadText() (string, error) {
	return clipboard.ReadAll()
}

func (systemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}

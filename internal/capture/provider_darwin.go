//go:build darwin

package capture

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"promptos/internal/logging"
)

// systemProvider captures through the screencapture CLI. The CLI cannot
// render per-window thumbnails without a window ID from the compositor, so
// it only offers whole-screen sources and lets selection fall through to the
// screen fallback.
type systemProvider struct{}

// NewSystemProvider returns the platform screenshot provider.
func NewSystemProvider() SourceProvider {
	return systemProvider{}
}

func (systemProvider) WindowSources(ctx context.Context) ([]Source, error) {
	return nil, nil
}

func (systemProvider) ScreenSources(ctx context.Context) ([]Source, error) {
	tmp := filepath.Join(os.TempDir(), "promptos-capture.png")
	defer os.Remove(tmp)

	// -x suppresses the shutter sound
	cmd := exec.CommandContext(ctx, "screencapture", "-x", "-t", "png", tmp)
	if err := cmd.Run(); err != nil {
		logging.CaptureWarn("screencapture failed: %v", err)
		return nil, err
	}

	png, err := os.ReadFile(tmp)
	if err != nil {
		return nil, err
	}
	return []Source{{Name: "Entire Screen", Thumbnail: png}}, nil
}

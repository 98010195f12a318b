package bridge

import (
	"context"
	"time"

	"promptos/internal/logging"
)

// CaptureSelectedText reads the user's current text selection by snapshotting
// the clipboard, clearing it, sending the copy keystroke, waiting for the OS
// to deliver the copied text, and reading the result. The original clipboard
// content is always restored, whether or not anything was selected.
func (b *Bridge) CaptureSelectedText(ctx context.Context) string {
	original, err := b.clipboard.ReadText()
	if err != nil {
		logging.BridgeError("clipboard read failed: %v", err)
		original = ""
	}

	// Clearing first lets us tell "nothing selected" apart from stale
	// clipboard content.
	if err := b.clipboard.WriteText(""); err != nil {
		logging.BridgeError("clipboard clear failed: %v", err)
		return ""
	}

	b.simulateCopy(ctx)

	if b.settleDelay > 0 {
		select {
		case <-time.After(b.settleDelay):
		case <-ctx.Done():
		}
	}

	selected, err := b.clipboard.ReadText()
	if err != nil {
		logging.BridgeError("clipboard read after copy failed: %v", err)
		selected = ""
	}

	if err := b.clipboard.WriteText(original); err != nil {
		logging.BridgeError("clipboard restore failed: %v", err)
	}

	logging.BridgeDebug("captured %d chars of selection", len(selected))
	return selected
}

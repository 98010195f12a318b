// Package bridge wraps the OS-level primitives the assistant needs: reading
// the frontmost application, activating windows, capturing the user's text
// selection through the clipboard, and simulating paste. Every operation is
// best-effort; OS command failures degrade to empty results rather than
// propagating as errors.
package bridge

import (
	"context"
	"time"
)

// AppInfo identifies the frontmost application at invocation time.
type AppInfo struct {
	Name        string
	WindowTitle string
}

// TabInfo is the active browser tab, when the frontmost app is a scriptable
// browser.
type TabInfo struct {
	URL   string
	Title string
}

// Runner executes an external command and returns its trimmed stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Clipboard is the system clipboard. Abstracted so selection capture can be
// tested without touching the real pasteboard.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// Bridge carries the injected OS dependencies for every platform operation.
type Bridge struct {
	runner    Runner
	clipboard Clipboard

	// wait between the copy keystroke and the clipboard read
	settleDelay time.Duration
}

// New returns a Bridge backed by the real shell and system clipboard.
func New() *Bridge {
	return NewWith(execRunner{}, systemClipboard{})
}

// NewWith builds a Bridge with explicit dependencies, used by tests.
func NewWith(runner Runner, clip Clipboard) *Bridge {
	return &Bridge{
		runner:      runner,
		clipboard:   clip,
		settleDelay: 100 * time.Millisecond,
	}
}

// Clipboard exposes the system clipboard for direct writes, such as placing
// generated text before a simulated paste.
func (b *Bridge) Clipboard() Clipboard {
	return b.clipboard
}

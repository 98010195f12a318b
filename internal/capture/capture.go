// Package capture selects and captures a screenshot of the window the user
// was working in before invoking the overlay. Window enumeration is
// abstracted behind SourceProvider so selection policy is testable without a
// display server.
package capture

import (
	"context"
	"errors"
	"strings"

	"promptos/internal/logging"
)

// ErrPermission indicates Screen Recording permission has not been granted.
// Callers surface this to the user instead of retrying.
var ErrPermission = errors.New("screen recording permission not granted")

// Source is one capturable window or screen with its rendered thumbnail.
type Source struct {
	Name      string
	Thumbnail []byte // PNG bytes, empty when the OS withheld pixels
}

// SourceProvider enumerates capturable surfaces.
type SourceProvider interface {
	WindowSources(ctx context.Context) ([]Source, error)
	ScreenSources(ctx context.Context) ([]Source, error)
}

// Screenshot is a successful capture.
type Screenshot struct {
	SourceName string
	PNG        []byte
	MIMEType   string
}

// selfWindowMarker identifies our own overlay windows so they are never
// offered as context.
const selfWindowMarker = "promptos"

// Capture picks the best source and returns its image. Selection order:
// the window matching previousApp, then the first window that is not our
// own overlay, then the whole screen. Returns nil with no error when
// nothing at all is capturable, and ErrPermission when a source exists but
// its thumbnail is empty.
func Capture(ctx context.Context, sp SourceProvider, previousApp string) (*Screenshot, error) {
	sources, err := sp.WindowSources(ctx)
	if err != nil {
		logging.CaptureWarn("window enumeration failed: %v", err)
		return nil, nil
	}
	logging.Capture("got %d window sources", len(sources))

	target := selectWindow(sources, previousApp)
	if target == nil {
		logging.Capture("no suitable window, falling back to screen capture")
		screens, err := sp.ScreenSources(ctx)
		if err != nil || len(screens) == 0 {
			logging.CaptureWarn("no screen sources available")
			return nil, nil
		}
		target = &screens[0]
	}

	logging.Capture("captured source %q", target.Name)

	if len(target.Thumbnail) == 0 {
		logging.CaptureWarn("thumbnail for %q is empty, screen recording permission likely missing", target.Name)
		return nil, ErrPermission
	}

	return &Screenshot{
		SourceName: target.Name,
		PNG:        target.Thumbnail,
		MIMEType:   "image/png",
	}, nil
}

func selectWindow(sources []Source, previousApp string) *Source {
	if previousApp != "" {
		lowerPrev := strings.ToLower(previousApp)
		for i := range sources {
			if strings.Contains(strings.ToLower(sources[i].Name), lowerPrev) {
				return &sources[i]
			}
		}
	}
	for i := range sources {
		if !strings.Contains(strings.ToLower(sources[i].Name), selfWindowMarker) {
			return &sources[i]
		}
	}
	return nil
}

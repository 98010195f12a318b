package bridge

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"promptos/internal/logging"
)

// browserScriptMap maps lowercase app-name substrings to the canonical name
// used in AppleScript. Firefox is absent: it exposes no scriptable tab URL.
var browserScriptMap = []struct {
	substring string
	canonical string
}{
	{"google chrome", "Google Chrome"},
	{"chrome", "Google Chrome"},
	{"arc", "Arc"},
	{"brave", "Brave Browser"},
	{"microsoft edge", "Microsoft Edge"},
	{"safari", "Safari"},
}

// BrowserContext returns the active tab of the frontmost browser, or nil
// when the app is not a scriptable browser or the query fails. macOS only.
func (b *Bridge) BrowserContext(ctx context.Context, appName string) *TabInfo {
	if runtime.GOOS != "darwin" || appName == "" {
		return nil
	}

	lower := strings.ToLower(appName)
	canonical := ""
	for _, entry := range browserScriptMap {
		if strings.Contains(lower, entry.substring) {
			canonical = entry.canonical
			break
		}
	}
	if canonical == "" {
		return nil
	}

	// Safari says "current tab" where Chromium browsers say "active tab".
	tabPhrase := "active tab"
	if canonical == "Safari" {
		tabPhrase = "current tab"
	}

	urlScript := fmt.Sprintf("tell application %q to return URL of %s of front window", canonical, tabPhrase)
	titleScript := fmt.Sprintf("tell application %q to return name of %s of front window", canonical, tabPhrase)

	url, err := b.runner.Run(ctx, "osascript", "-e", urlScript)
	if err != nil {
		logging.BridgeDebug("browser context from %q unavailable: %v", appName, err)
		return nil
	}
	title, err := b.runner.Run(ctx, "osascript", "-e", titleScript)
	if err != nil {
		logging.BridgeDebug("browser tab title from %q unavailable: %v", appName, err)
		return nil
	}

	logging.BridgeDebug("browser context: %s (%s)", url, title)
	return &TabInfo{URL: url, Title: title}
}

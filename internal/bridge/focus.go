package bridge

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"promptos/internal/logging"
)

// Sandboxed apps where `tell application ... to activate` is unreliable and
// `open -a` must be used instead.
var openAApps = []string{"Google Chrome", "Chrome", "Brave Browser", "Microsoft Edge", "Arc"}

const frontmostAppScript = `tell application "System Events" to get name of first process whose frontmost is true`
const frontWindowScript = `tell application "System Events" to get name of front window of (first process whose frontmost is true)`

const windowsFocusScript = `Add-Type @"
using System;
using System.Runtime.InteropServices;
public class FocusHelper {
    [DllImport("user32.dll")] public static extern IntPtr GetForegroundWindow();
    [DllImport("user32.dll")] public static extern uint GetWindowThreadProcessId(IntPtr hWnd, out uint processId);
    [DllImport("user32.dll")] public static extern int GetWindowText(IntPtr hWnd, System.Text.StringBuilder text, int count);
}
"@
$hwnd = [FocusHelper]::GetForegroundWindow()
$procId = 0
[FocusHelper]::GetWindowThreadProcessId($hwnd, [ref]$procId) | Out-Null
$appName = (Get-Process -Id $procId).ProcessName
$sb = New-Object System.Text.StringBuilder 256
[FocusHelper]::GetWindowText($hwnd, $sb, 256) | Out-Null
$windowTitle = $sb.ToString()
"$appName|$windowTitle"`

// FrontmostApp returns the name and front window title of the application
// with keyboard focus. Either field may be empty when the OS refuses to
// answer, which is common before Accessibility permission is granted.
func (b *Bridge) FrontmostApp(ctx context.Context) AppInfo {
	switch runtime.GOOS {
	case "darwin":
		name, err := b.runner.Run(ctx, "osascript", "-e", frontmostAppScript)
		if err != nil {
			logging.BridgeError("frontmost app query failed: %v", err)
			return AppInfo{}
		}
		// window title is best effort, many apps hide it from Accessibility
		title, _ := b.runner.Run(ctx, "osascript", "-e", frontWindowScript)
		return AppInfo{Name: name, WindowTitle: title}
	case "windows":
		raw, err := b.runner.Run(ctx, "powershell", "-NoProfile", "-Command", windowsFocusScript)
		if err != nil {
			logging.BridgeError("frontmost app query failed: %v", err)
			return AppInfo{}
		}
		name, title, _ := strings.Cut(raw, "|")
		return AppInfo{Name: name, WindowTitle: title}
	default:
		return AppInfo{}
	}
}

func needsOpenA(appName string) bool {
	lower := strings.ToLower(appName)
	for _, name := range openAApps {
		if strings.Contains(lower, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// ActivateApp brings the named application to the foreground. Returns false
// when activation fails, callers treat that as advisory.
func (b *Bridge) ActivateApp(ctx context.Context, appName string) bool {
	if appName == "" {
		return false
	}

	switch runtime.GOOS {
	case "darwin":
		if needsOpenA(appName) {
			if _, err := b.runner.Run(ctx, "open", "-a", appName); err != nil {
				logging.BridgeError("activate %q failed: %v", appName, err)
				return false
			}
			logging.Bridge("activated %q", appName)
			return true
		}
		script := fmt.Sprintf("tell application %q to activate", appName)
		if _, err := b.runner.Run(ctx, "osascript", "-e", script); err != nil {
			// Some apps reject AppleScript activation, open -a still works.
			if _, fbErr := b.runner.Run(ctx, "open", "-a", appName); fbErr != nil {
				logging.BridgeError("activate %q failed: %v", appName, fbErr)
				return false
			}
		}
		logging.Bridge("activated %q", appName)
		return true
	case "windows":
		safe := strings.ReplaceAll(appName, "'", "''")
		cmd := fmt.Sprintf("(New-Object -ComObject WScript.Shell).AppActivate('%s')", safe)
		if _, err := b.runner.Run(ctx, "powershell", "-NoProfile", "-Command", cmd); err != nil {
			logging.BridgeError("activate %q failed: %v", appName, err)
			return false
		}
		return true
	default:
		return false
	}
}

// SimulatePaste sends the platform paste keystroke to the focused app.
func (b *Bridge) SimulatePaste(ctx context.Context) bool {
	var err error
	switch runtime.GOOS {
	case "darwin":
		_, err = b.runner.Run(ctx, "osascript", "-e",
			`tell application "System Events" to keystroke "v" using command down`)
	case "windows":
		_, err = b.runner.Run(ctx, "powershell", "-Command",
			`$wshell = New-Object -ComObject wscript.shell; $wshell.SendKeys('^v')`)
	default:
		_, err = b.runner.Run(ctx, "xdotool", "key", "ctrl+v")
	}
	if err != nil {
		logging.BridgeError("paste keystroke failed: %v", err)
	}
	return err == nil
}

func (b *Bridge) simulateCopy(ctx context.Context) {
	var err error
	switch runtime.GOOS {
	case "darwin":
		_, err = b.runner.Run(ctx, "osascript", "-e",
			`tell application "System Events" to keystroke "c" using command down`)
	case "windows":
		_, err = b.runner.Run(ctx, "powershell", "-NoProfile", "-Command",
			`$wshell = New-Object -ComObject wscript.shell; $wshell.SendKeys('^c')`)
	default:
		_, err = b.runner.Run(ctx, "xdotool", "key", "ctrl+c")
	}
	if err != nil {
		logging.BridgeError("copy keystroke failed: %v", err)
	}
}

package hypr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryMonitorsParsesAndTrims(t *testing.T) {
	installHyprctlStub(t, `
if [[ "${1:-}" == "-j" && "${2:-}" == "monitors" ]]; then
  echo '[{"name":" DP-1 ","description":" LG UltraGear ","width":2560,"height":1440,"focused":true},{"name":"HDMI-A-1","description":"","width":1920,"height":1080,"focused":false}]'
  exit 0
fi
echo '[]'
`)

	monitors, err := QueryMonitors(context.Background())
	require.NoError(t, err)
	require.Len(t, monitors, 2)
	require.Equal(t, "DP-1", monitors[0].Name)
	require.Equal(t, "LG UltraGear", monitors[0].Description)
	require.Equal(t, 2560, monitors[0].Width)
	require.Equal(t, 1440, monitors[0].Height)
	require.True(t, monitors[0].Focused)
	require.False(t, monitors[1].Focused)
}

func TestQueryClientsSkipsUnmappedAndHiddenWindows(t *testing.T) {
	installHyprctlStub(t, `
if [[ "${1:-}" == "-j" && "${2:-}" == "clients" ]]; then
  echo '[{"address":" 0xabc ","class":" brave-browser ","title":" Docs ","mapped":true,"hidden":false},{"address":"0xdef","class":"slack","title":"DM","mapped":false,"hidden":false},{"address":"0x123","class":"spotify","title":"Now Playing","mapped":true,"hidden":true},{"address":"","class":"ghost","title":"","mapped":true,"hidden":false}]'
  exit 0
fi
echo '[]'
`)

	windows, err := QueryClients(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	require.Equal(t, "0xabc", windows[0].Address)
	require.Equal(t, "brave-browser", windows[0].Class)
	require.Equal(t, "Docs", windows[0].Title)
}

func TestQueryActiveWindowAndFocusedMonitor(t *testing.T) {
	installHyprctlStub(t, `
if [[ "${1:-}" == "-j" && "${2:-}" == "activewindow" ]]; then
  echo '{"address":" 0xabc ","class":" brave-browser ","title":" Docs ","mapped":true}'
  exit 0
fi
if [[ "${1:-}" == "-j" && "${2:-}" == "monitors" ]]; then
  echo '[{"name":"HDMI-A-1","focused":false},{"name":" DP-1 ","width":2560,"height":1440,"focused":true}]'
  exit 0
fi
echo '[]'
`)

	window, err := QueryActiveWindow(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0xabc", window.Address)
	require.Equal(t, "brave-browser", window.Class)
	require.Equal(t, "Docs", window.Title)

	monitor, err := QueryFocusedMonitor(context.Background())
	require.NoError(t, err)
	require.Equal(t, "DP-1", monitor.Name)
	require.Equal(t, 2560, monitor.Width)
}

func TestQueryFocusedMonitorFallsBackToFirstOutput(t *testing.T) {
	installHyprctlStub(t, `
if [[ "${1:-}" == "-j" && "${2:-}" == "monitors" ]]; then
  echo '[{"name":"HDMI-A-1","focused":false},{"name":"DP-1","focused":false}]'
  exit 0
fi
echo '[]'
`)

	monitor, err := QueryFocusedMonitor(context.Background())
	require.NoError(t, err)
	require.Equal(t, "HDMI-A-1", monitor.Name)
}

func TestQueryActiveWindowRejectsEmptyAddress(t *testing.T) {
	installHyprctlStub(t, `
if [[ "${1:-}" == "-j" && "${2:-}" == "activewindow" ]]; then
  echo '{"address":"","class":"brave"}'
  exit 0
fi
echo '[]'
`)

	_, err := QueryActiveWindow(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty address")
}

func TestNotifyAndDismissUseHyprctlDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	err := Notify(context.Background(), 3, 1200, "", "Capture failed")
	require.NoError(t, err)

	err = DismissNotify(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "--quiet dispatch notify 3 1200 rgb(89b4fa) Capture failed", lines[0])
	require.Equal(t, "--quiet dispatch dismissnotify", lines[1])
}

func TestQueryMonitorsReturnsCombinedOutputOnFailure(t *testing.T) {
	installHyprctlStub(t, `
echo 'boom from hyprctl' >&2
exit 1
`)

	_, err := QueryMonitors(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom from hyprctl")
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}

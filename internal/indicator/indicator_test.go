package indicator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glintcap/glint/internal/config"
)

func TestHyprBackendDispatchesStateNotifications(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installNotifyStub(t, "hyprctl", `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cfg.Enable = true
	cfg.ErrorTimeoutMS = 1600

	notify := NewHyprNotify(cfg, nil)
	notify.ShowCapturing(context.Background(), "DP-1")
	notify.ShowSaved(context.Background(), "/home/u/Videos/glint/cap-42.mkv")
	notify.ShowError(context.Background(), "engine refused session")
	notify.Hide(context.Background())

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "--quiet dispatch notify 1 300000 rgb(89b4fa) Capturing DP-1", lines[0])
	require.Equal(t, "--quiet dispatch notify 1 2500 rgb(a6e3a1) Recording saved: cap-42.mkv", lines[1])
	require.Equal(t, "--quiet dispatch notify 3 1600 rgb(f38ba8) engine refused session", lines[2])
	require.Equal(t, "--quiet dispatch dismissnotify", lines[3])
}

func TestShowErrorFallsBackToDefaultTextAndTimeout(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installNotifyStub(t, "hyprctl", `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cfg.Enable = true
	cfg.ErrorTimeoutMS = 0 // exercises fallback to 1200ms

	notify := NewHyprNotify(cfg, nil)
	notify.ShowError(context.Background(), "")

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "--quiet dispatch notify 3 1200 rgb(f38ba8) Capture failed\n", string(data))
}

func TestDisabledIndicatorSkipsDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installNotifyStub(t, "hyprctl", `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.Enable = false
	cfg.SoundEnable = false

	notify := NewHyprNotify(cfg, nil)
	notify.ShowCapturing(context.Background(), "DP-1")
	notify.ShowSaved(context.Background(), "/tmp/cap.mkv")
	notify.ShowError(context.Background(), "ignored")
	notify.Hide(context.Background())

	_, err := os.Stat(argsFile)
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

func TestBackendNoneSuppressesNotifications(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installNotifyStub(t, "hyprctl", `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.Enable = true
	cfg.SoundEnable = false
	cfg.Backend = "none"

	notify := NewHyprNotify(cfg, nil)
	notify.ShowCapturing(context.Background(), "DP-1")
	notify.Hide(context.Background())

	_, err := os.Stat(argsFile)
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

func TestDesktopBackendReplacesAndClosesNotification(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "busctl-args.log")
	countFile := filepath.Join(t.TempDir(), "busctl-count")
	t.Setenv("BUSCTL_ARGS_FILE", argsFile)
	t.Setenv("BUSCTL_COUNT_FILE", countFile)
	installNotifyStub(t, "busctl", `
printf '%s\n' "$*" >> "${BUSCTL_ARGS_FILE}"
if [[ "${6:-}" == "Notify" ]]; then
  count=$(cat "${BUSCTL_COUNT_FILE}" 2>/dev/null || echo 0)
  count=$((count + 1))
  echo "${count}" > "${BUSCTL_COUNT_FILE}"
  echo "u $((40 + count))"
fi
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cfg.Enable = true
	cfg.Backend = "desktop"
	cfg.DesktopAppName = ""

	notify := NewHyprNotify(cfg, nil)
	notify.ShowCapturing(context.Background(), "DP-1")
	notify.ShowError(context.Background(), "engine gone")
	notify.Hide(context.Background())
	notify.Hide(context.Background()) // second hide has no ID left to close

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	require.Contains(t, lines[0], "Notify")
	require.Contains(t, lines[0], "glint-indicator 0 ")
	require.Contains(t, lines[0], "Capturing DP-1")

	require.Contains(t, lines[1], "glint-indicator 41 ", "second notify must replace the first ID")
	require.Contains(t, lines[1], "engine gone")

	require.Contains(t, lines[2], "CloseNotification u 42")
}

func TestDesktopBackendRejectsMalformedReply(t *testing.T) {
	installNotifyStub(t, "busctl", `
echo "not-an-id"
`)

	_, err := desktopNotify(context.Background(), "glint-indicator", 0, "Capturing", 1000)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid response")
}

func installNotifyStub(t *testing.T, name string, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}

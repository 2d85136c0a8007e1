package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/glintcap/glint/internal/capture"
	"github.com/glintcap/glint/internal/ipc"
	"github.com/glintcap/glint/internal/picker"
)

// Handle implements the daemon's IPC command surface. Every response carries
// the current session state so clients never need a second roundtrip.
func (d *daemon) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return d.handleStatus()
	case "start":
		return d.handleStart(ctx)
	case "stop":
		return d.handleStop(ctx)
	case "toggle":
		if d.controller.Running() {
			return d.handleStop(ctx)
		}
		return d.handleStart(ctx)
	case "pick":
		return d.handlePick(ctx, req)
	case "targets":
		return d.handleTargets(ctx)
	case "set":
		return d.handleSet(ctx, req.Key, req.Value)
	case "show":
		return ipc.Response{OK: true, State: d.stateString(), Message: renderSettings(d.runtime)}
	case "audio":
		return d.handleAudio(req.Key)
	case "levels":
		return ipc.Response{OK: true, State: d.stateString(), Message: fmt.Sprintf("%.3f", d.player.Level())}
	default:
		return ipc.Response{OK: false, Error: fmt.Sprintf("unsupported command %q", req.Command)}
	}
}

func (d *daemon) stateString() string {
	return string(d.controller.State())
}

func (d *daemon) fail(err error) ipc.Response {
	return ipc.Response{OK: false, State: d.stateString(), Error: err.Error()}
}

func (d *daemon) handleStatus() ipc.Response {
	settings := d.runtime.Snapshot()

	playing := "stopped"
	if d.player.IsPlaying() {
		playing = "playing"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "target: %s\n", describeSelection(settings))
	fmt.Fprintf(&b, "picker token: %d\n", d.controller.PickerToken())
	fmt.Fprintf(&b, "sample audio: %s\n", playing)
	fmt.Fprintf(&b, "capture: type=%s range=%s exclude_app=%t app_audio_excluded=%t mic=%t system=%t record=%t",
		settings.CaptureType,
		settings.DynamicRange,
		settings.AppExcluded,
		settings.AppAudioExcluded && !settings.AppExcluded,
		settings.MicCapture,
		settings.AudioCapture,
		settings.RecordingStream,
	)
	if last := d.controller.LastRecording(); last != "" {
		fmt.Fprintf(&b, "\nlast recording: %s", last)
	}

	return ipc.Response{OK: true, State: d.stateString(), Message: b.String()}
}

// describeSelection renders the target the active capture type points at.
func describeSelection(s capture.Settings) string {
	switch s.CaptureType {
	case capture.TypeWindow:
		if s.Window == nil {
			return "none"
		}
		if s.Window.Class != "" {
			return fmt.Sprintf("window %s (%s)", s.Window.Class, s.Window.Address)
		}
		return "window " + s.Window.Address
	default:
		if s.Display == nil {
			return "none"
		}
		return "display " + s.Display.Name
	}
}

func (d *daemon) handleStart(ctx context.Context) ipc.Response {
	if err := d.controller.Start(ctx); err != nil {
		return d.fail(err)
	}
	return ipc.Response{OK: true, State: d.stateString(), Message: "capture started"}
}

func (d *daemon) handleStop(ctx context.Context) ipc.Response {
	result, stopped := d.controller.Stop(ctx)
	if !stopped {
		return ipc.Response{OK: true, State: d.stateString(), Message: "no active capture session"}
	}

	message := "capture stopped"
	if result.RecordingPath != "" {
		message += "\nrecording: " + result.RecordingPath
	}
	return ipc.Response{OK: true, State: d.stateString(), Message: message}
}

// handlePick presents the chooser, or with an explicit kind/target pair
// records the selection directly through the same picker path a chooser
// completion takes.
func (d *daemon) handlePick(ctx context.Context, req ipc.Request) ipc.Response {
	if !d.runtime.CanPresentPicker() {
		return d.fail(capture.ErrPickerInactive)
	}

	if req.Key == "" {
		if err := d.controller.PresentPicker(ctx); err != nil {
			return d.fail(err)
		}
		return ipc.Response{OK: true, State: d.stateString(), Message: "picker presented"}
	}

	entry, err := d.resolveEntry(ctx, req.Key, req.Value)
	if err != nil {
		return d.fail(err)
	}
	token := d.coordinator.Record(entry)
	return ipc.Response{
		OK:      true,
		State:   d.stateString(),
		Message: fmt.Sprintf("selected %s (token %d)", entry.Line, token),
	}
}

// resolveEntry turns a kind/identifier pair into a picker entry against the
// compositor's current target list.
func (d *daemon) resolveEntry(ctx context.Context, kindRaw, target string) (picker.Entry, error) {
	kind, err := capture.ParseType(kindRaw)
	if err != nil {
		return picker.Entry{}, errors.New("pick kind must be display or window")
	}

	if kind == capture.TypeWindow {
		window, err := picker.ResolveWindow(ctx, target)
		if err != nil {
			return picker.Entry{}, err
		}
		return picker.WindowEntry(window), nil
	}

	display, err := picker.ResolveDisplay(ctx, target)
	if err != nil {
		return picker.Entry{}, err
	}
	return picker.DisplayEntry(display), nil
}

func (d *daemon) handleTargets(ctx context.Context) ipc.Response {
	entries, err := picker.Targets(ctx)
	if err != nil {
		return d.fail(err)
	}
	if len(entries) == 0 {
		return ipc.Response{OK: true, State: d.stateString(), Message: "no capture targets available"}
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.Line)
	}
	return ipc.Response{OK: true, State: d.stateString(), Message: strings.Join(lines, "\n")}
}

func (d *daemon) handleSet(ctx context.Context, key, value string) ipc.Response {
	if err := d.applySetting(ctx, key, value); err != nil {
		return d.fail(err)
	}
	return ipc.Response{
		OK:      true,
		State:   d.stateString(),
		Message: fmt.Sprintf("%s = %s", key, strings.TrimSpace(value)),
	}
}

// applySetting routes one runtime mutation through the validated setters, so
// IPC writes obey the same invariants as picker and boot-time writes.
func (d *daemon) applySetting(ctx context.Context, key, value string) error {
	switch key {
	case "capture.type":
		t, err := capture.ParseType(value)
		if err != nil {
			return err
		}
		return d.runtime.SetCaptureType(t)
	case "capture.display":
		display, err := picker.ResolveDisplay(ctx, value)
		if err != nil {
			return err
		}
		d.runtime.SetSelectedDisplay(display)
		return nil
	case "capture.window":
		window, err := picker.ResolveWindow(ctx, value)
		if err != nil {
			return err
		}
		d.runtime.SetSelectedWindow(window)
		return nil
	case "capture.exclude_app":
		v, err := parseBoolSetting(key, value)
		if err != nil {
			return err
		}
		return d.runtime.SetAppExcluded(v)
	case "capture.record_stream":
		v, err := parseBoolSetting(key, value)
		if err != nil {
			return err
		}
		d.runtime.SetRecordingStream(v)
		return nil
	case "capture.dynamic_range":
		preset, err := capture.ParseRangePreset(value)
		if err != nil {
			return err
		}
		return d.runtime.SetDynamicRange(preset)
	case "audio.capture_system":
		v, err := parseBoolSetting(key, value)
		if err != nil {
			return err
		}
		d.runtime.SetAudioCapture(v)
		return nil
	case "audio.capture_mic":
		v, err := parseBoolSetting(key, value)
		if err != nil {
			return err
		}
		d.runtime.SetMicCapture(v)
		return nil
	case "audio.exclude_app_audio":
		v, err := parseBoolSetting(key, value)
		if err != nil {
			return err
		}
		return d.runtime.SetAppAudioExcluded(v)
	case "picker.enable":
		v, err := parseBoolSetting(key, value)
		if err != nil {
			return err
		}
		d.runtime.SetPickerActive(v)
		return nil
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
}

func parseBoolSetting(key, value string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("value for %s must be true or false", key)
	}
	return v, nil
}

func (d *daemon) handleAudio(action string) ipc.Response {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "play":
		if err := d.player.Play(); err != nil {
			return d.fail(err)
		}
		return ipc.Response{OK: true, State: d.stateString(), Message: "sample audio playing"}
	case "stop":
		d.player.Stop()
		return ipc.Response{OK: true, State: d.stateString(), Message: "sample audio stopped"}
	default:
		return ipc.Response{OK: false, State: d.stateString(), Error: "audio action must be play or stop"}
	}
}

// renderSettings prints the runtime configuration as the key names `set` accepts.
func renderSettings(runtime *capture.Configuration) string {
	s := runtime.Snapshot()

	display := "(none)"
	if s.Display != nil {
		display = s.Display.Name
	}
	window := "(none)"
	if s.Window != nil {
		window = s.Window.Address
		if s.Window.Class != "" {
			window = fmt.Sprintf("%s (%s)", s.Window.Address, s.Window.Class)
		}
	}

	lines := []string{
		fmt.Sprintf("capture.type: %s", s.CaptureType),
		fmt.Sprintf("capture.display: %s", display),
		fmt.Sprintf("capture.window: %s", window),
		fmt.Sprintf("capture.dynamic_range: %s", s.DynamicRange),
		fmt.Sprintf("capture.exclude_app: %t (togglable: %t)", s.AppExcluded, runtime.CanToggleAppExclusion()),
		fmt.Sprintf("capture.record_stream: %t", s.RecordingStream),
		fmt.Sprintf("audio.capture_system: %t", s.AudioCapture),
		fmt.Sprintf("audio.capture_mic: %t", s.MicCapture),
		fmt.Sprintf("audio.exclude_app_audio: %t (effective: %t, togglable: %t)",
			s.AppAudioExcluded, runtime.EffectiveAppAudioExcluded(), runtime.CanToggleAppAudioExclusion()),
		fmt.Sprintf("picker.enable: %t", s.PickerActive),
	}
	return strings.Join(lines, "\n")
}

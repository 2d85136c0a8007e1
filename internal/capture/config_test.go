package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/glintcap/glint/internal/events"
)

func TestNewConfigurationDefaults(t *testing.T) {
	cfg := NewConfiguration(nil, nil)

	require.Equal(t, TypeDisplay, cfg.CaptureType())
	require.Equal(t, RangeSDR, cfg.DynamicRange())
	require.True(t, cfg.AudioCapture())
	require.False(t, cfg.MicCapture())
	require.False(t, cfg.AppExcluded())
	require.False(t, cfg.AppAudioExcluded())
	require.True(t, cfg.PickerActive())
	require.False(t, cfg.RecordingStream())

	_, ok := cfg.SelectedDisplay()
	require.False(t, ok)
	_, ok = cfg.SelectedWindow()
	require.False(t, ok)
}

func TestSetCaptureTypeWindowClearsAppExclusion(t *testing.T) {
	cfg := NewConfiguration(nil, nil)

	require.NoError(t, cfg.SetAppExcluded(true))
	require.True(t, cfg.AppExcluded())

	require.NoError(t, cfg.SetCaptureType(TypeWindow))
	require.False(t, cfg.AppExcluded())
	require.False(t, cfg.CanToggleAppExclusion())

	// No mutation path may re-engage exclusion while window capture is active.
	require.ErrorIs(t, cfg.SetAppExcluded(true), ErrExclusionUnavailable)
	cfg.SetSelectedWindow(Window{Address: "0xabc", Class: "mpv"})
	require.NoError(t, cfg.SetCaptureType(TypeWindow))
	require.False(t, cfg.AppExcluded())

	require.NoError(t, cfg.SetCaptureType(TypeDisplay))
	require.True(t, cfg.CanToggleAppExclusion())
	require.NoError(t, cfg.SetAppExcluded(true))
}

func TestSetCaptureTypeRejectsUnknownValues(t *testing.T) {
	cfg := NewConfiguration(nil, nil)
	require.ErrorIs(t, cfg.SetCaptureType(Type("hologram")), ErrUnknownCaptureType)
	require.Equal(t, TypeDisplay, cfg.CaptureType())
}

func TestSetAppExcludedStopsActivePlayback(t *testing.T) {
	player := &fakePlayer{}
	player.playing.Store(true)
	cfg := NewConfiguration(player, nil)

	require.NoError(t, cfg.SetAppExcluded(true))
	require.False(t, player.IsPlaying())
	require.Equal(t, int32(1), player.stops.Load())

	// Re-asserting an already-engaged exclusion must not stop again.
	player.playing.Store(true)
	require.NoError(t, cfg.SetAppExcluded(true))
	require.True(t, player.IsPlaying())
	require.Equal(t, int32(1), player.stops.Load())
}

func TestSetAppExcludedSkipsStopWhenIdle(t *testing.T) {
	player := &fakePlayer{}
	cfg := NewConfiguration(player, nil)

	require.NoError(t, cfg.SetAppExcluded(true))
	require.Equal(t, int32(0), player.stops.Load())
}

func TestSetAppAudioExcludedLockedWhileAppExcluded(t *testing.T) {
	cfg := NewConfiguration(nil, nil)

	require.NoError(t, cfg.SetAppExcluded(true))
	require.False(t, cfg.CanToggleAppAudioExclusion())
	require.ErrorIs(t, cfg.SetAppAudioExcluded(true), ErrAppAudioLocked)
	require.False(t, cfg.AppAudioExcluded())

	require.NoError(t, cfg.SetAppExcluded(false))
	require.True(t, cfg.CanToggleAppAudioExclusion())
	require.NoError(t, cfg.SetAppAudioExcluded(true))
	require.True(t, cfg.EffectiveAppAudioExcluded())

	// The stored flag survives an exclusion round trip but only takes
	// effect while the app itself is captured.
	require.NoError(t, cfg.SetAppExcluded(true))
	require.True(t, cfg.AppAudioExcluded())
	require.False(t, cfg.EffectiveAppAudioExcluded())
}

func TestSetDynamicRangeValidatesPreset(t *testing.T) {
	cfg := NewConfiguration(nil, nil)

	require.NoError(t, cfg.SetDynamicRange(RangeHDRCanonical))
	require.Equal(t, RangeHDRCanonical, cfg.DynamicRange())

	require.ErrorIs(t, cfg.SetDynamicRange(RangePreset("vivid")), ErrUnknownPreset)
	require.Equal(t, RangeHDRCanonical, cfg.DynamicRange())
}

func TestTargetSelectionsRetainStaleCounterpart(t *testing.T) {
	cfg := NewConfiguration(nil, nil)

	cfg.SetSelectedDisplay(Display{Name: "DP-1", Width: 2560, Height: 1440})
	cfg.SetSelectedWindow(Window{Address: "0xabc", Class: "brave-browser"})
	require.NoError(t, cfg.SetCaptureType(TypeWindow))

	display, ok := cfg.SelectedDisplay()
	require.True(t, ok)
	require.Equal(t, "DP-1", display.Name)

	window, ok := cfg.SelectedWindow()
	require.True(t, ok)
	require.Equal(t, "0xabc", window.Address)
}

func TestSnapshotCopiesTargets(t *testing.T) {
	cfg := NewConfiguration(nil, nil)
	cfg.SetSelectedDisplay(Display{Name: "DP-1"})

	snap := cfg.Snapshot()
	require.NotNil(t, snap.Display)
	snap.Display.Name = "mutated"

	display, ok := cfg.SelectedDisplay()
	require.True(t, ok)
	require.Equal(t, "DP-1", display.Name)
}

func TestParseTypeNormalizes(t *testing.T) {
	parsed, err := ParseType(" Display ")
	require.NoError(t, err)
	require.Equal(t, TypeDisplay, parsed)

	parsed, err = ParseType("WINDOW")
	require.NoError(t, err)
	require.Equal(t, TypeWindow, parsed)

	_, err = ParseType("region")
	require.ErrorIs(t, err, ErrUnknownCaptureType)
}

func TestParseRangePresetNormalizes(t *testing.T) {
	parsed, err := ParseRangePreset("HDR-Local")
	require.NoError(t, err)
	require.Equal(t, RangeHDRLocal, parsed)

	_, err = ParseRangePreset("vivid")
	require.ErrorIs(t, err, ErrUnknownPreset)
}

func TestConfigurationPublishesChanges(t *testing.T) {
	bus := events.New()
	cfg := NewConfiguration(nil, bus)

	changes := make(chan events.ConfigChangeEvent, 8)
	unsubscribe := bus.Subscribe(func(ev events.ConfigChangeEvent) {
		changes <- ev
	})
	defer unsubscribe()

	require.NoError(t, cfg.SetCaptureType(TypeWindow))

	require.Eventually(t, func() bool {
		select {
		case ev := <-changes:
			return ev.Field == "capture.type" && ev.Value == "window"
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

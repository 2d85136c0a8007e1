// Package capture coordinates capture session lifecycle state and the
// user-selectable configuration that feeds it.
package capture

import (
	"strconv"
	"sync"

	"github.com/glintcap/glint/internal/events"
)

// Settings is a point-in-time copy of the configuration.
type Settings struct {
	CaptureType      Type        `json:"capture_type"`
	Display          *Display    `json:"display,omitempty"`
	Window           *Window     `json:"window,omitempty"`
	DynamicRange     RangePreset `json:"dynamic_range"`
	AppExcluded      bool        `json:"app_excluded"`
	MicCapture       bool        `json:"mic_capture"`
	AudioCapture     bool        `json:"audio_capture"`
	AppAudioExcluded bool        `json:"app_audio_excluded"`
	PickerActive     bool        `json:"picker_active"`
	RecordingStream  bool        `json:"recording_stream"`
}

// Configuration holds all user-selectable capture options. Setters enforce
// the cross-field rules synchronously so invalid states are unreachable
// rather than merely disallowed by callers.
type Configuration struct {
	source AudioSource
	bus    *events.Bus

	mu               sync.RWMutex
	captureType      Type
	display          *Display
	window           *Window
	rangePreset      RangePreset
	appExcluded      bool
	micCapture       bool
	audioCapture     bool
	appAudioExcluded bool
	pickerActive     bool
	recordingStream  bool
}

// NewConfiguration constructs a configuration with safe default fallbacks.
func NewConfiguration(source AudioSource, bus *events.Bus) *Configuration {
	if source == nil {
		source = noopAudioSource{}
	}

	return &Configuration{
		source:       source,
		bus:          bus,
		captureType:  TypeDisplay,
		rangePreset:  RangeSDR,
		audioCapture: true,
		pickerActive: true,
	}
}

// CaptureType returns the active capture type.
func (c *Configuration) CaptureType() Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.captureType
}

// SetCaptureType switches between display and window capture. Switching to
// window capture force-clears app exclusion, which only applies to app
// windows within a display capture.
func (c *Configuration) SetCaptureType(t Type) error {
	if t != TypeDisplay && t != TypeWindow {
		return ErrUnknownCaptureType
	}

	c.mu.Lock()
	exclusionCleared := t == TypeWindow && c.appExcluded
	if exclusionCleared {
		c.appExcluded = false
	}
	c.captureType = t
	c.mu.Unlock()

	c.publish("capture.type", string(t))
	if exclusionCleared {
		c.publish("capture.exclude_app", "false")
	}
	return nil
}

// SelectedDisplay returns the chosen display, if any.
func (c *Configuration) SelectedDisplay() (Display, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.display == nil {
		return Display{}, false
	}
	return *c.display, true
}

// SetSelectedDisplay records a display selection. The window selection keeps
// its stale value; the session ignores it while the capture type is display.
func (c *Configuration) SetSelectedDisplay(d Display) {
	c.mu.Lock()
	c.display = &d
	c.mu.Unlock()

	c.publish("capture.display", d.Name)
}

// SelectedWindow returns the chosen window, if any.
func (c *Configuration) SelectedWindow() (Window, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.window == nil {
		return Window{}, false
	}
	return *c.window, true
}

// SetSelectedWindow records a window selection. The display selection keeps
// its stale value; the session ignores it while the capture type is window.
func (c *Configuration) SetSelectedWindow(w Window) {
	c.mu.Lock()
	c.window = &w
	c.mu.Unlock()

	c.publish("capture.window", w.Address)
}

// DynamicRange returns the active tone-mapping preset.
func (c *Configuration) DynamicRange() RangePreset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rangePreset
}

// SetDynamicRange selects a tone-mapping preset.
func (c *Configuration) SetDynamicRange(p RangePreset) error {
	if p != RangeSDR && p != RangeHDRLocal && p != RangeHDRCanonical {
		return ErrUnknownPreset
	}

	c.mu.Lock()
	c.rangePreset = p
	c.mu.Unlock()

	c.publish("capture.dynamic_range", string(p))
	return nil
}

// AppExcluded reports whether the app's own windows are dropped from capture.
func (c *Configuration) AppExcluded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.appExcluded
}

// SetAppExcluded toggles app exclusion. Exclusion is only available for
// display capture. Excluding the app halts its sample playback before the
// call returns: excluded app audio cannot keep playing.
func (c *Configuration) SetAppExcluded(v bool) error {
	c.mu.Lock()
	if v && c.captureType == TypeWindow {
		c.mu.Unlock()
		return ErrExclusionUnavailable
	}
	engaged := v && !c.appExcluded
	c.appExcluded = v
	c.mu.Unlock()

	if engaged && c.source.IsPlaying() {
		c.source.Stop()
	}
	c.publish("capture.exclude_app", strconv.FormatBool(v))
	return nil
}

// MicCapture reports whether microphone capture is requested.
func (c *Configuration) MicCapture() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.micCapture
}

// SetMicCapture toggles microphone capture.
func (c *Configuration) SetMicCapture(v bool) {
	c.mu.Lock()
	c.micCapture = v
	c.mu.Unlock()

	c.publish("audio.capture_mic", strconv.FormatBool(v))
}

// AudioCapture reports whether system audio capture is requested.
func (c *Configuration) AudioCapture() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.audioCapture
}

// SetAudioCapture toggles system audio capture.
func (c *Configuration) SetAudioCapture(v bool) {
	c.mu.Lock()
	c.audioCapture = v
	c.mu.Unlock()

	c.publish("audio.capture_system", strconv.FormatBool(v))
}

// AppAudioExcluded reports the stored app-audio exclusion flag. Use
// EffectiveAppAudioExcluded for the value the session acts on.
func (c *Configuration) AppAudioExcluded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.appAudioExcluded
}

// SetAppAudioExcluded toggles app-audio exclusion. The toggle is locked
// while the app itself is excluded: there is no app audio left to exclude.
func (c *Configuration) SetAppAudioExcluded(v bool) error {
	c.mu.Lock()
	if c.appExcluded {
		c.mu.Unlock()
		return ErrAppAudioLocked
	}
	c.appAudioExcluded = v
	c.mu.Unlock()

	c.publish("audio.exclude_app_audio", strconv.FormatBool(v))
	return nil
}

// EffectiveAppAudioExcluded reports whether app audio is excluded from the
// captured mix. The stored flag only takes effect while the app itself is
// not excluded.
func (c *Configuration) EffectiveAppAudioExcluded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.appAudioExcluded && !c.appExcluded
}

// PickerActive reports whether picker actions are permitted.
func (c *Configuration) PickerActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pickerActive
}

// SetPickerActive gates the picker surface.
func (c *Configuration) SetPickerActive(v bool) {
	c.mu.Lock()
	c.pickerActive = v
	c.mu.Unlock()

	c.publish("picker.enable", strconv.FormatBool(v))
}

// RecordingStream reports whether local recording is requested alongside the stream.
func (c *Configuration) RecordingStream() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recordingStream
}

// SetRecordingStream toggles local recording of the stream.
func (c *Configuration) SetRecordingStream(v bool) {
	c.mu.Lock()
	c.recordingStream = v
	c.mu.Unlock()

	c.publish("capture.record_stream", strconv.FormatBool(v))
}

// CanToggleAppExclusion reports whether the app-exclusion toggle is available.
func (c *Configuration) CanToggleAppExclusion() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.captureType == TypeDisplay
}

// CanToggleAppAudioExclusion reports whether the app-audio toggle is available.
func (c *Configuration) CanToggleAppAudioExclusion() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.appExcluded
}

// CanPresentPicker reports whether picker presentation is permitted.
func (c *Configuration) CanPresentPicker() bool {
	return c.PickerActive()
}

// Snapshot returns a copy of the full configuration.
func (c *Configuration) Snapshot() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Settings{
		CaptureType:      c.captureType,
		DynamicRange:     c.rangePreset,
		AppExcluded:      c.appExcluded,
		MicCapture:       c.micCapture,
		AudioCapture:     c.audioCapture,
		AppAudioExcluded: c.appAudioExcluded,
		PickerActive:     c.pickerActive,
		RecordingStream:  c.recordingStream,
	}
	if c.display != nil {
		display := *c.display
		s.Display = &display
	}
	if c.window != nil {
		window := *c.window
		s.Window = &window
	}
	return s
}

// publish emits a configuration change notification when a bus is wired.
func (c *Configuration) publish(field, value string) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.ConfigChangeEvent{Field: field, Value: value})
}

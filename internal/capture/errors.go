package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning indicates start was requested while a session is active.
	ErrAlreadyRunning = errors.New("capture session already running")
	// ErrNoTargetSelected indicates the active capture type has no selected target.
	ErrNoTargetSelected = errors.New("no capture target selected")
	// ErrInvalidConfiguration indicates the configuration reached a state the
	// setters should have made unreachable.
	ErrInvalidConfiguration = errors.New("capture configuration invalid")
	// ErrPickerInactive indicates picker presentation was requested while the
	// picker surface is disabled.
	ErrPickerInactive = errors.New("picker is not active")

	// ErrUnknownCaptureType indicates a capture type outside {display, window}.
	ErrUnknownCaptureType = errors.New("unknown capture type")
	// ErrUnknownPreset indicates an unrecognized dynamic range preset.
	ErrUnknownPreset = errors.New("unknown dynamic range preset")
	// ErrExclusionUnavailable indicates app exclusion was toggled while the
	// capture type is window.
	ErrExclusionUnavailable = errors.New("app exclusion requires display capture")
	// ErrAppAudioLocked indicates the app-audio toggle was changed while the
	// app itself is excluded from capture.
	ErrAppAudioLocked = errors.New("app audio toggle unavailable while app is excluded")
)

// BackendError wraps a failure reported by the capture engine.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("capture engine %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsEngineUnavailable reports whether an error represents missing engine wiring.
func IsEngineUnavailable(err error) bool {
	return errors.Is(err, ErrEngineUnavailable)
}

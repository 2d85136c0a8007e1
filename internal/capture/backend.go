package capture

import (
	"context"
	"errors"
)

// ErrEngineUnavailable indicates runtime engine wiring is missing.
var ErrEngineUnavailable = errors.New("capture engine not wired")

// StartConfig is the frozen configuration handed to the engine at session start.
type StartConfig struct {
	CaptureType        Type        `json:"capture_type"`
	DisplayName        string      `json:"display_name,omitempty"`
	WindowAddress      string      `json:"window_address,omitempty"`
	WindowClass        string      `json:"window_class,omitempty"`
	DynamicRange       RangePreset `json:"dynamic_range"`
	CaptureSystemAudio bool        `json:"capture_system_audio"`
	CaptureMic         bool        `json:"capture_mic"`
	ExcludeApp         bool        `json:"exclude_app"`
	ExcludeAppAudio    bool        `json:"exclude_app_audio"`
	RecordStream       bool        `json:"record_stream"`
}

// EndResult is the engine output consumed when a session stops.
type EndResult struct {
	RecordingPath string
}

// Backend abstracts the capture engine operations needed by session orchestration.
type Backend interface {
	Begin(ctx context.Context, cfg StartConfig) error
	End(ctx context.Context) (EndResult, error)
}

// AudioSource is the playback collaborator whose output must halt when the
// app is excluded from capture.
type AudioSource interface {
	Stop()
	IsPlaying() bool
}

// PickerPresenter shows the target chooser. Selections surface later through
// picker-update events, not through the Present return value.
type PickerPresenter interface {
	Present(ctx context.Context) error
}

// PlaceholderBackend is a no-op placeholder used in tests/fallback wiring.
type PlaceholderBackend struct{}

func (PlaceholderBackend) Begin(context.Context, StartConfig) error {
	return ErrEngineUnavailable
}

func (PlaceholderBackend) End(context.Context) (EndResult, error) {
	return EndResult{}, nil
}

// noopAudioSource preserves configuration flow when no player is wired.
type noopAudioSource struct{}

func (noopAudioSource) Stop()           {}
func (noopAudioSource) IsPlaying() bool { return false }

// noopPresenter preserves controller flow when no picker is wired.
type noopPresenter struct{}

func (noopPresenter) Present(context.Context) error { return nil }

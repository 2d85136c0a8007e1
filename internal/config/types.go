// Package config resolves, parses, validates, and defaults glint configuration.
package config

// Config is the fully materialized file configuration used by glint.
type Config struct {
	Capture    CaptureConfig
	Audio      AudioConfig
	Picker     PickerConfig
	Engine     EngineConfig
	Recordings RecordingsConfig
	Indicator  IndicatorConfig
	Debug      DebugConfig
}

// CaptureConfig seeds the runtime capture configuration at daemon start.
type CaptureConfig struct {
	Type         string
	ExcludeApp   bool
	RecordStream bool
	DynamicRange string
}

// AudioConfig controls capture audio inputs and the sample source.
type AudioConfig struct {
	CaptureSystem   bool
	CaptureMic      bool
	ExcludeAppAudio bool
	MicSource       string
	SampleVolume    float64
}

// PickerConfig controls the content picker surface.
type PickerConfig struct {
	Enable     bool
	ChooserCmd CommandConfig
}

// EngineConfig addresses the external capture engine service.
type EngineConfig struct {
	GRPCTarget     string
	HTTP           string
	HealthPath     string
	BeginTimeoutMS int
	EndTimeoutMS   int
	Watch          bool
}

// RecordingsConfig controls local recording output hand-off.
type RecordingsConfig struct {
	Directory    string
	CopyPath     bool
	ClipboardCmd CommandConfig
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	ErrorTimeoutMS int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	LogEngineEvents bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

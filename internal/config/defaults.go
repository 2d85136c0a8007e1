package config

// Default returns the canonical configuration used when no file is present.
func Default() Config {
	chooser := "wofi --dmenu --prompt pick"
	clipboard := "wl-copy --trim-newline"

	return Config{
		Capture: CaptureConfig{
			Type:         "display",
			ExcludeApp:   false,
			RecordStream: false,
			DynamicRange: "",
		},
		Audio: AudioConfig{
			CaptureSystem:   true,
			CaptureMic:      false,
			ExcludeAppAudio: false,
			MicSource:       "default",
			SampleVolume:    0.4,
		},
		Picker: PickerConfig{
			Enable:     true,
			ChooserCmd: CommandConfig{Raw: chooser, Argv: mustParseArgv(chooser)},
		},
		Engine: EngineConfig{
			GRPCTarget:     "127.0.0.1:50051",
			HTTP:           "127.0.0.1:9000",
			HealthPath:     "/v1/health/ready",
			BeginTimeoutMS: 6000,
			EndTimeoutMS:   4000,
			Watch:          true,
		},
		Recordings: RecordingsConfig{
			Directory:    "~/Videos/glint",
			CopyPath:     true,
			ClipboardCmd: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "glint-indicator",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Debug: DebugConfig{},
	}
}

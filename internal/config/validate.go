package config

import (
	"fmt"
	"strings"
)

// DynamicRangePresets lists the accepted tone-mapping preset names.
var DynamicRangePresets = []string{"sdr", "hdr-local", "hdr-canonical"}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	captureType := strings.ToLower(strings.TrimSpace(cfg.Capture.Type))
	if captureType != "display" && captureType != "window" {
		return nil, fmt.Errorf("capture.type must be one of: display, window")
	}
	if !validDynamicRange(cfg.Capture.DynamicRange) {
		return nil, fmt.Errorf("capture.dynamic_range must be empty or one of: %s", strings.Join(DynamicRangePresets, ", "))
	}

	if cfg.Audio.SampleVolume <= 0 || cfg.Audio.SampleVolume > 1 {
		return nil, fmt.Errorf("audio.sample_volume must be within (0, 1]")
	}

	if cfg.Picker.Enable && len(cfg.Picker.ChooserCmd.Argv) == 0 {
		return nil, fmt.Errorf("picker.chooser_cmd must not be empty when picker.enable=true")
	}

	if strings.TrimSpace(cfg.Engine.GRPCTarget) == "" {
		return nil, fmt.Errorf("engine.grpc_target must not be empty")
	}
	if strings.TrimSpace(cfg.Engine.HTTP) == "" {
		return nil, fmt.Errorf("engine.http must not be empty")
	}
	healthPath := strings.TrimSpace(cfg.Engine.HealthPath)
	if healthPath == "" {
		return nil, fmt.Errorf("engine.health_path must not be empty")
	}
	if !strings.HasPrefix(healthPath, "/") {
		return nil, fmt.Errorf("engine.health_path must start with '/'")
	}
	if cfg.Engine.BeginTimeoutMS < 0 {
		return nil, fmt.Errorf("engine.begin_timeout_ms must be >= 0")
	}
	if cfg.Engine.EndTimeoutMS < 0 {
		return nil, fmt.Errorf("engine.end_timeout_ms must be >= 0")
	}

	if strings.TrimSpace(cfg.Recordings.Directory) == "" {
		return nil, fmt.Errorf("recordings.directory must not be empty")
	}
	if cfg.Recordings.CopyPath && len(cfg.Recordings.ClipboardCmd.Argv) == 0 {
		return nil, fmt.Errorf("recordings.clipboard_cmd must not be empty when recordings.copy_path=true")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" && backend != "none" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop, none")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if cfg.Capture.RecordStream && !cfg.Recordings.CopyPath && len(cfg.Recordings.ClipboardCmd.Argv) == 0 {
		warnings = append(warnings, Warning{Message: "capture.record_stream is set but recordings.copy_path is disabled; recording paths will only appear in the log"})
	}

	return warnings, nil
}

func validDynamicRange(preset string) bool {
	preset = strings.ToLower(strings.TrimSpace(preset))
	if preset == "" {
		return true
	}
	for _, known := range DynamicRangePresets {
		if preset == known {
			return true
		}
	}
	return false
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Capture    *jsoncCapture    `json:"capture"`
	Audio      *jsoncAudio      `json:"audio"`
	Picker     *jsoncPicker     `json:"picker"`
	Engine     *jsoncEngine     `json:"engine"`
	Recordings *jsoncRecordings `json:"recordings"`
	Indicator  *jsoncIndicator  `json:"indicator"`
	Debug      *jsoncDebug      `json:"debug"`
}

type jsoncCapture struct {
	Type         *string `json:"type"`
	ExcludeApp   *bool   `json:"exclude_app"`
	RecordStream *bool   `json:"record_stream"`
	DynamicRange *string `json:"dynamic_range"`
}

type jsoncAudio struct {
	CaptureSystem   *bool    `json:"capture_system"`
	CaptureMic      *bool    `json:"capture_mic"`
	ExcludeAppAudio *bool    `json:"exclude_app_audio"`
	MicSource       *string  `json:"mic_source"`
	SampleVolume    *float64 `json:"sample_volume"`
}

type jsoncPicker struct {
	Enable     *bool   `json:"enable"`
	ChooserCmd *string `json:"chooser_cmd"`
}

type jsoncEngine struct {
	GRPCTarget     *string `json:"grpc_target"`
	HTTP           *string `json:"http"`
	HealthPath     *string `json:"health_path"`
	BeginTimeoutMS *int    `json:"begin_timeout_ms"`
	EndTimeoutMS   *int    `json:"end_timeout_ms"`
	Watch          *bool   `json:"watch"`
}

type jsoncRecordings struct {
	Directory    *string `json:"directory"`
	CopyPath     *bool   `json:"copy_path"`
	ClipboardCmd *string `json:"clipboard_cmd"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncDebug struct {
	LogEngineEvents *bool `json:"log_engine_events"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Capture != nil {
		if payload.Capture.Type != nil {
			cfg.Capture.Type = strings.ToLower(strings.TrimSpace(*payload.Capture.Type))
		}
		if payload.Capture.ExcludeApp != nil {
			cfg.Capture.ExcludeApp = *payload.Capture.ExcludeApp
		}
		if payload.Capture.RecordStream != nil {
			cfg.Capture.RecordStream = *payload.Capture.RecordStream
		}
		if payload.Capture.DynamicRange != nil {
			cfg.Capture.DynamicRange = strings.ToLower(strings.TrimSpace(*payload.Capture.DynamicRange))
		}
	}

	// App exclusion requires display capture; repair the combination here so
	// the runtime configuration never boots in a state its setters forbid.
	if cfg.Capture.Type == "window" && cfg.Capture.ExcludeApp {
		cfg.Capture.ExcludeApp = false
		warnings = append(warnings, Warning{Message: "capture.exclude_app ignored: app exclusion requires capture.type=display"})
	}

	if payload.Audio != nil {
		if payload.Audio.CaptureSystem != nil {
			cfg.Audio.CaptureSystem = *payload.Audio.CaptureSystem
		}
		if payload.Audio.CaptureMic != nil {
			cfg.Audio.CaptureMic = *payload.Audio.CaptureMic
		}
		if payload.Audio.ExcludeAppAudio != nil {
			cfg.Audio.ExcludeAppAudio = *payload.Audio.ExcludeAppAudio
		}
		if payload.Audio.MicSource != nil {
			cfg.Audio.MicSource = strings.TrimSpace(*payload.Audio.MicSource)
		}
		if payload.Audio.SampleVolume != nil {
			cfg.Audio.SampleVolume = *payload.Audio.SampleVolume
		}
	}

	if payload.Picker != nil {
		if payload.Picker.Enable != nil {
			cfg.Picker.Enable = *payload.Picker.Enable
		}
		if payload.Picker.ChooserCmd != nil {
			raw := *payload.Picker.ChooserCmd
			argv, err := parseArgv(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid picker.chooser_cmd: %w", err)
			}
			cfg.Picker.ChooserCmd = CommandConfig{Raw: raw, Argv: argv}
		}
	}

	if payload.Engine != nil {
		if payload.Engine.GRPCTarget != nil {
			cfg.Engine.GRPCTarget = strings.TrimSpace(*payload.Engine.GRPCTarget)
		}
		if payload.Engine.HTTP != nil {
			cfg.Engine.HTTP = strings.TrimSpace(*payload.Engine.HTTP)
		}
		if payload.Engine.HealthPath != nil {
			cfg.Engine.HealthPath = strings.TrimSpace(*payload.Engine.HealthPath)
		}
		if payload.Engine.BeginTimeoutMS != nil {
			cfg.Engine.BeginTimeoutMS = *payload.Engine.BeginTimeoutMS
		}
		if payload.Engine.EndTimeoutMS != nil {
			cfg.Engine.EndTimeoutMS = *payload.Engine.EndTimeoutMS
		}
		if payload.Engine.Watch != nil {
			cfg.Engine.Watch = *payload.Engine.Watch
		}
	}

	if payload.Recordings != nil {
		if payload.Recordings.Directory != nil {
			cfg.Recordings.Directory = strings.TrimSpace(*payload.Recordings.Directory)
		}
		if payload.Recordings.CopyPath != nil {
			cfg.Recordings.CopyPath = *payload.Recordings.CopyPath
		}
		if payload.Recordings.ClipboardCmd != nil {
			raw := *payload.Recordings.ClipboardCmd
			argv, err := parseArgv(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid recordings.clipboard_cmd: %w", err)
			}
			cfg.Recordings.ClipboardCmd = CommandConfig{Raw: raw, Argv: argv}
		}
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.Backend != nil {
			cfg.Indicator.Backend = strings.TrimSpace(*payload.Indicator.Backend)
		}
		if payload.Indicator.DesktopAppName != nil {
			cfg.Indicator.DesktopAppName = strings.TrimSpace(*payload.Indicator.DesktopAppName)
		}
		if payload.Indicator.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *payload.Indicator.SoundEnable
		}
		if payload.Indicator.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *payload.Indicator.ErrorTimeoutMS
		}
	}

	if payload.Debug != nil {
		if payload.Debug.LogEngineEvents != nil {
			cfg.Debug.LogEngineEvents = *payload.Debug.LogEngineEvents
		}
	}

	return warnings, nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

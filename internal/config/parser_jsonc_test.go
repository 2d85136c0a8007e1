package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeJSONCRemovesCommentsAndTrailingCommas(t *testing.T) {
	input := `
{
  // line comment
  "items": [
    "one", /* block comment */
    "two",
  ],
  "nested": {
    "enabled": true,
  },
}
`

	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.NotContains(t, normalized, "//")
	require.NotContains(t, normalized, "/*")
	require.NotContains(t, normalized, ",]")
	require.NotContains(t, normalized, ",}")
}

func TestNormalizeJSONCRetainsCommentLikeTextInsideStrings(t *testing.T) {
	input := `{"value":"contains // and /* comment-like */ text",}`
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Contains(t, normalized, "// and /* comment-like */")
}

func TestNormalizeJSONCUnterminatedBlockCommentFails(t *testing.T) {
	_, err := normalizeJSONC("{ /* unterminated ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated block comment")
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1}{"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))

	err := ensureSingleJSONValue(decoder)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	line, col := offsetToLineCol(content, 1)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)

	line, col = offsetToLineCol(content, 8) // line2, col2
	require.Equal(t, 2, line)
	require.Equal(t, 2, col)

	line, col = offsetToLineCol(content, 999)
	require.Equal(t, 3, line)
	require.Equal(t, 5, col)
}

func TestParseJSONCRejectsInvalidCommandArgv(t *testing.T) {
	_, _, err := parseJSONC(`{"picker":{"chooser_cmd":"unterminated ' quote"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid picker.chooser_cmd")

	_, _, err = parseJSONC(`{"recordings":{"clipboard_cmd":"unterminated ' quote"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid recordings.clipboard_cmd")
}

func TestParseJSONCTrimsStringFields(t *testing.T) {
	cfg, _, err := parseJSONC(`{
  "audio": {"mic_source": "  Elgato Wave  "},
  "engine": {"grpc_target": " 10.0.0.2:50051 "},
  "indicator": {
    "backend": " desktop ",
    "desktop_app_name": "  glint-indicator  "
  }
}`, Default())
	require.NoError(t, err)
	require.Equal(t, "Elgato Wave", cfg.Audio.MicSource)
	require.Equal(t, "10.0.0.2:50051", cfg.Engine.GRPCTarget)
	require.Equal(t, "desktop", cfg.Indicator.Backend)
	require.Equal(t, "glint-indicator", cfg.Indicator.DesktopAppName)
}

func TestParseJSONCRejectsMultipleTopLevelValues(t *testing.T) {
	_, _, err := parseJSONC(`{"picker":{"enable":false}}{"picker":{"enable":true}}`, Default())
	require.Error(t, err)
	require.True(
		t,
		strings.Contains(err.Error(), "multiple JSON values") || strings.Contains(err.Error(), "unknown field"),
		"unexpected error: %v",
		err,
	)
}

func TestParseJSONCTypeErrorIncludesLocation(t *testing.T) {
	_, _, err := parseJSONC(`{
  "engine": {"grpc_target": 123}
}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line")
	require.Contains(t, err.Error(), "column")
}

func TestParseJSONCPartialSectionsKeepBaseValues(t *testing.T) {
	base := Default()
	cfg, _, err := parseJSONC(`{"audio":{"capture_mic":true}}`, base)
	require.NoError(t, err)
	require.True(t, cfg.Audio.CaptureMic)
	require.Equal(t, base.Audio.CaptureSystem, cfg.Audio.CaptureSystem)
	require.Equal(t, base.Audio.SampleVolume, cfg.Audio.SampleVolume)
	require.Equal(t, base.Picker.ChooserCmd.Raw, cfg.Picker.ChooserCmd.Raw)
}

func TestParseJSONCDebugSection(t *testing.T) {
	cfg, _, err := parseJSONC(`{"debug":{"log_engine_events":true}}`, Default())
	require.NoError(t, err)
	require.True(t, cfg.Debug.LogEngineEvents)
}

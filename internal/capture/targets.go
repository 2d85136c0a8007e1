package capture

import "strings"

// Type selects whether a session captures an entire display or a single window.
type Type string

const (
	TypeDisplay Type = "display"
	TypeWindow  Type = "window"
)

// ParseType normalizes and validates a capture type string.
func ParseType(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeDisplay:
		return TypeDisplay, nil
	case TypeWindow:
		return TypeWindow, nil
	default:
		return "", ErrUnknownCaptureType
	}
}

// RangePreset is the tone-mapping profile applied to captured output.
type RangePreset string

const (
	RangeSDR          RangePreset = "sdr"
	RangeHDRLocal     RangePreset = "hdr-local"
	RangeHDRCanonical RangePreset = "hdr-canonical"
)

// ParseRangePreset normalizes and validates a dynamic range preset string.
func ParseRangePreset(raw string) (RangePreset, error) {
	switch RangePreset(strings.ToLower(strings.TrimSpace(raw))) {
	case RangeSDR:
		return RangeSDR, nil
	case RangeHDRLocal:
		return RangeHDRLocal, nil
	case RangeHDRCanonical:
		return RangeHDRCanonical, nil
	default:
		return "", ErrUnknownPreset
	}
}

// Display identifies one output available for capture.
type Display struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Window identifies one toplevel window available for capture.
type Window struct {
	Address string `json:"address"`
	Class   string `json:"class"`
	Title   string `json:"title,omitempty"`
}

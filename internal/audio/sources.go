// Package audio handles Pulse source discovery and local sample playback.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Source describes one Pulse input source surfaced to glint.
type Source struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved microphone source plus optional fallback warning context.
type Selection struct {
	Source   Source
	Warning  string
	Fallback bool
}

// ListSources returns available Pulse input sources with default/availability metadata.
func ListSources(_ context.Context) ([]Source, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("glint"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	sources := make([]Source, 0, len(sourceInfos))
	for _, info := range sourceInfos {
		if info == nil {
			continue
		}
		sources = append(sources, Source{
			ID:          info.SourceName,
			Description: info.Device,
			State:       sourceStateString(info.State),
			Available:   sourceAvailable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == defaultID,
		})
	}
	return sources, nil
}

// SelectSource resolves the audio.mic_source preference against live sources.
func SelectSource(ctx context.Context, preferred string) (Selection, error) {
	sources, err := ListSources(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectSourceFromList(sources, preferred)
}

// selectSourceFromList applies selection policy to a pre-fetched source list.
// A stale or unusable preference falls back to the default source with a
// warning; only a missing or unusable default is an error.
func selectSourceFromList(sources []Source, preferred string) (Selection, error) {
	if len(sources) == 0 {
		return Selection{}, errors.New("no audio input sources found")
	}

	preferred = strings.TrimSpace(strings.ToLower(preferred))

	var defaultSource, byPreference *Source
	for i := range sources {
		src := &sources[i]
		if src.Default {
			defaultSource = src
		}
		if byPreference == nil && preferred != "" && preferred != "default" && sourceMatches(*src, preferred) {
			byPreference = src
		}
	}

	chooseDefault := func() (*Source, error) {
		if defaultSource == nil {
			return nil, errors.New("default audio source is unavailable")
		}
		if !defaultSource.Available {
			return nil, fmt.Errorf("default audio source %q is not available", defaultSource.ID)
		}
		if defaultSource.Muted {
			return nil, fmt.Errorf("default audio source %q is muted", defaultSource.ID)
		}
		return defaultSource, nil
	}

	if preferred == "" || preferred == "default" {
		src, err := chooseDefault()
		if err != nil {
			return Selection{}, err
		}
		return Selection{Source: *src}, nil
	}

	if byPreference != nil && byPreference.Available && !byPreference.Muted {
		return Selection{Source: *byPreference}, nil
	}

	reason := "did not match any source"
	preferredID := preferred
	if byPreference != nil {
		preferredID = byPreference.ID
		reason = "unavailable"
		if byPreference.Muted {
			reason = "muted"
		}
	}

	src, err := chooseDefault()
	if err != nil {
		return Selection{}, fmt.Errorf("audio.mic_source %q is %s and no usable default: %w", preferredID, reason, err)
	}
	return Selection{
		Source:   *src,
		Warning:  fmt.Sprintf("audio.mic_source %q %s; falling back to %q", preferredID, reason, src.ID),
		Fallback: true,
	}, nil
}

// sourceMatches reports whether a search term matches a source id or description.
func sourceMatches(source Source, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(source.ID)
	desc := strings.ToLower(source.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}

// sourceStateString maps Pulse source state constants to human-readable values.
func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}

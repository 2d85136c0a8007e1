package engine

// BeginRequest asks the engine to start one capture session.
type BeginRequest struct {
	CaptureType        string `json:"capture_type"`
	DisplayName        string `json:"display_name,omitempty"`
	WindowAddress      string `json:"window_address,omitempty"`
	WindowClass        string `json:"window_class,omitempty"`
	DynamicRange       string `json:"dynamic_range"`
	CaptureSystemAudio bool   `json:"capture_system_audio"`
	CaptureMic         bool   `json:"capture_mic"`
	MicSource          string `json:"mic_source,omitempty"`
	ExcludeApp         bool   `json:"exclude_app"`
	ExcludeAppAudio    bool   `json:"exclude_app_audio"`
	RecordStream       bool   `json:"record_stream"`
	RecordDirectory    string `json:"record_directory,omitempty"`
}

// BeginReply acknowledges a started session.
type BeginReply struct {
	SessionID string `json:"session_id"`
}

// EndRequest asks the engine to stop a session. An empty session id ends
// whatever session the engine considers current; ending nothing succeeds.
type EndRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// EndReply reports teardown output.
type EndReply struct {
	RecordingPath string `json:"recording_path,omitempty"`
}

// WatchRequest subscribes to session events.
type WatchRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// SessionEvent is one engine-reported occurrence on the watch stream.
type SessionEvent struct {
	// Kind is "terminated" for engine-initiated session teardown; anything
	// else is an informational notice.
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// EventTerminated marks an engine-initiated session end.
const EventTerminated = "terminated"

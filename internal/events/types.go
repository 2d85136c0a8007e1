package events

// Event type identifiers for dispatcher routing.
const (
	TypePickerUpdate uint32 = iota + 1
	TypeSessionState
	TypeConfigChange
	TypeEngineNotice
)

// Event is implemented by every payload routed through the bus.
type Event interface {
	Type() uint32
}

// PickerUpdateEvent is published once per completed picker selection, after
// the selection has been recorded into the runtime configuration.
type PickerUpdateEvent struct {
	Token  uint64 `json:"token"`
	Kind   string `json:"kind"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

func (PickerUpdateEvent) Type() uint32 { return TypePickerUpdate }

// SessionStateEvent is published on every capture session state change.
// Recording is set when a stopping session produced a local recording.
type SessionStateEvent struct {
	Running   bool   `json:"running"`
	Reason    string `json:"reason"`
	Target    string `json:"target,omitempty"`
	Recording string `json:"recording,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (SessionStateEvent) Type() uint32 { return TypeSessionState }

// ConfigChangeEvent is published by the runtime configuration setters.
type ConfigChangeEvent struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (ConfigChangeEvent) Type() uint32 { return TypeConfigChange }

// EngineNoticeEvent carries non-fatal notices from the capture engine stream.
type EngineNoticeEvent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (EngineNoticeEvent) Type() uint32 { return TypeEngineNotice }

// Package ipc carries the daemon's single-request unix-socket control
// protocol: one JSON request line in, one JSON response line out.
package ipc

// Request is one control command. Key/Value carry the argument pair for
// commands that take one (set, pick).
type Request struct {
	Command string `json:"command"`
	Key     string `json:"key,omitempty"`
	Value   string `json:"value,omitempty"`
}

// Response reports the command outcome. State is the session state after the
// command; Message carries human-readable output for the CLI to print.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

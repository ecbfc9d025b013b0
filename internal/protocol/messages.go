package protocol

import "encoding/json"

// HELLO (controller -> host)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ControllerName  string `json:"controller_name"`
}

// WELCOME (host -> controller)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	SceneName       string `json:"scene_name,omitempty"`
	Seed            int64  `json:"seed,omitempty"`
}

// STEP (controller -> host): one simulation step with a batch of commands.
type StepMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Tick            uint64    `json:"tick"`
	Commands        []Command `json:"commands"`
}

// RESP (host -> controller): the labeled data frames produced by a step.
// Frames stay raw here; consumers decode only the types they care about and
// ignore the rest.
type RespMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	Tick            uint64            `json:"tick"`
	Frames          []json.RawMessage `json:"frames"`
	Error           *RespError        `json:"error,omitempty"`
}

type RespError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

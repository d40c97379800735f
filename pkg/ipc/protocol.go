// Package ipc is the unix-socket control channel between a running
// daemon and the `send` client mode. The wire format is one JSON
// request line answered by one JSON response line.
package ipc

import "github.com/westonhowe98/SoundSwitch/pkg/profile"

const (
	CommandHotkey   = "hotkey"
	CommandList     = "list"
	CommandAdd      = "add"
	CommandDelete   = "delete"
	CommandStatus   = "status"
	CommandLauncher = "launcher"
)

type Request struct {
	Command string           `json:"command"`
	Combo   string           `json:"combo,omitempty"`
	Profile *profile.Profile `json:"profile,omitempty"`
	Names   []string         `json:"names,omitempty"`
}

type Response struct {
	OK       bool              `json:"ok"`
	Message  string            `json:"message,omitempty"`
	Profiles []profile.Profile `json:"profiles,omitempty"`
	Error    string            `json:"error,omitempty"`
}

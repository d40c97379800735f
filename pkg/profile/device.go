package profile

import "strings"

// Flow is the direction of an audio endpoint.
type Flow string

const (
	FlowPlayback  Flow = "playback"
	FlowRecording Flow = "recording"
)

// Role is the logical endpoint role applied when switching, distinct from
// the physical device identity.
type Role string

const (
	RoleConsole        Role = "console"
	RoleMultimedia     Role = "multimedia"
	RoleCommunications Role = "communications"
)

// Device describes one live audio endpoint as enumerated by the OS.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Flow Flow   `json:"flow"`
}

// DeviceTarget is a stored device descriptor plus the role to use when a
// profile switches to it.
type DeviceTarget struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Flow Flow   `json:"flow"`
	Role Role   `json:"role"`
}

// Matches reports whether a live device satisfies the target descriptor.
// Flow must agree; identity matches on the device id when both sides carry
// one, otherwise on the name. Live ids change across OS sessions while the
// logical device persists, so the name comparison is the one that matters
// for stored targets.
func (t DeviceTarget) Matches(d Device) bool {
	if t.Flow != d.Flow {
		return false
	}
	if t.ID != "" && t.ID == d.ID {
		return true
	}
	return t.Name != "" && strings.EqualFold(t.Name, d.Name)
}

// Descriptor returns the identity portion of the target.
func (t DeviceTarget) Descriptor() Device {
	return Device{ID: t.ID, Name: t.Name, Flow: t.Flow}
}

// Label is the name shown to users, falling back to the raw id for
// targets recorded without one.
func (t DeviceTarget) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

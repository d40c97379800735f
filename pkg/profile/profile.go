// Package profile holds the domain model of the switching engine: profiles,
// their activation triggers, and the audio devices they route to.
package profile

// Profile associates a set of activation triggers with target audio
// devices. Its name is the identity used by storage and the registry.
type Profile struct {
	Name              string        `json:"name"`
	Triggers          []Trigger     `json:"triggers"`
	Playback          *DeviceTarget `json:"playback,omitempty"`
	Recording         *DeviceTarget `json:"recording,omitempty"`
	AlsoSwitchDefault bool          `json:"alsoSwitchDefaultDevice"`
}

// Targets returns the configured device targets in switch order, playback
// first.
func (p Profile) Targets() []DeviceTarget {
	targets := make([]DeviceTarget, 0, 2)
	if p.Playback != nil {
		targets = append(targets, *p.Playback)
	}
	if p.Recording != nil {
		targets = append(targets, *p.Recording)
	}
	return targets
}

// AppliesToProcesses reports whether any trigger scopes the profile to a
// foreground process or window, i.e. whether activating it may have routed
// audio for individual processes.
func (p Profile) AppliesToProcesses() bool {
	for _, t := range p.Triggers {
		if t.Kind == TriggerWindow || t.Kind == TriggerProcess {
			return true
		}
	}
	return false
}

// Equal compares two profiles by value.
func (p Profile) Equal(other Profile) bool {
	if p.Name != other.Name ||
		p.AlsoSwitchDefault != other.AlsoSwitchDefault ||
		len(p.Triggers) != len(other.Triggers) {
		return false
	}
	for i, t := range p.Triggers {
		if !t.equal(other.Triggers[i]) {
			return false
		}
	}
	return targetEqual(p.Playback, other.Playback) &&
		targetEqual(p.Recording, other.Recording)
}

func (t Trigger) equal(other Trigger) bool {
	if t.Kind != other.Kind ||
		t.WindowName != other.WindowName ||
		t.ProcessPath != other.ProcessPath {
		return false
	}
	if (t.HotKey == nil) != (other.HotKey == nil) {
		return false
	}
	return t.HotKey == nil || *t.HotKey == *other.HotKey
}

func targetEqual(a, b *DeviceTarget) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

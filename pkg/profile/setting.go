package profile

// Setting is the flattened single-trigger profile shape written by
// configurations that predate trigger lists. It carries at most one hotkey
// and one application path and is migrated to a full Profile on startup.
type Setting struct {
	Name      string        `json:"name"`
	HotKey    *HotKey       `json:"hotKey,omitempty"`
	AppPath   string        `json:"appPath,omitempty"`
	Playback  *DeviceTarget `json:"playback,omitempty"`
	Recording *DeviceTarget `json:"recording,omitempty"`
}

// Profile converts the legacy shape into the trigger-list form. The
// pre-rewrite application only ever switched the default endpoint, so the
// converted profile keeps that behavior for its process-scoped triggers.
func (s Setting) Profile() Profile {
	p := Profile{
		Name:              s.Name,
		Playback:          s.Playback,
		Recording:         s.Recording,
		AlsoSwitchDefault: true,
	}
	if s.HotKey != nil {
		p.Triggers = append(p.Triggers, NewHotKeyTrigger(*s.HotKey))
	}
	if s.AppPath != "" {
		p.Triggers = append(p.Triggers, NewProcessTrigger(s.AppPath))
	}
	return p
}

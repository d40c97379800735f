package soundswitch

import "github.com/westonhowe98/SoundSwitch/pkg/profile"

// ForegroundEvent is one foreground-window change as delivered by the OS
// watcher. ProcessPath is the main executable of the owning process.
type ForegroundEvent struct {
	WindowTitle string
	ProcessPath string
	PID         int
}

// ForegroundWatcher streams foreground-window changes.
type ForegroundWatcher interface {
	Events() <-chan ForegroundEvent
}

// HotkeyService reserves global key combinations with the OS and streams
// presses. TryRegister doubles as the availability check: actually
// reserving the combination is the only way to learn whether another
// application already claimed it, without racing between check and use.
type HotkeyService interface {
	TryRegister(hk profile.HotKey) bool
	Unregister(hk profile.HotKey)
	Pressed() <-chan profile.HotKey
}

// DeviceLister snapshots the audio endpoints currently live on the system.
type DeviceLister interface {
	PlaybackDevices() []profile.Device
	RecordingDevices() []profile.Device
}

// AudioSwitcher issues routing changes to the OS audio subsystem.
type AudioSwitcher interface {
	SwitchTo(deviceID string, flow profile.Flow, role profile.Role) error
	SwitchProcessTo(deviceID string, flow profile.Flow, role profile.Role, pid int) error
	ResetProcessRouting() error
}

// Process is one running process as seen by the startup scan.
type Process interface {
	ID() int
	Alive() bool
	Path() (string, error)
}

// ProcessLister enumerates the currently running processes.
type ProcessLister interface {
	Snapshot() ([]Process, error)
}

// Notifier surfaces non-fatal, user-visible conditions.
type Notifier interface {
	Notify(message, title string)
}

// ProfileStore persists the ordered profile set and any legacy settings
// still awaiting migration. Save commits the current in-memory set.
type ProfileStore interface {
	Profiles() []profile.Profile
	Add(p profile.Profile) error
	Remove(name string) error
	LegacySettings() []profile.Setting
	ClearLegacySettings()
	Save() error
}

package soundswitch

import (
	"fmt"
	"strings"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
)

// TriggerRegistry indexes registered profiles by the natural key of each
// trigger they own: one map per keyed trigger kind plus the single
// launcher slot. Window and process keys are stored and looked up in
// lower case. The registry does not lock itself; the engine serializes
// access.
type TriggerRegistry struct {
	byHotkey  map[string]profile.Profile
	byWindow  map[string]profile.Profile
	byProcess map[string]profile.Profile
	launcher  *profile.Profile

	hotkeys HotkeyService
}

func NewTriggerRegistry(hotkeys HotkeyService) *TriggerRegistry {
	return &TriggerRegistry{
		byHotkey:  make(map[string]profile.Profile),
		byWindow:  make(map[string]profile.Profile),
		byProcess: make(map[string]profile.Profile),
		hotkeys:   hotkeys,
	}
}

// Register inserts an index entry for every trigger the profile owns.
// The trigger variant set is closed; an unknown kind is a programming
// defect, not a runtime condition.
func (r *TriggerRegistry) Register(p profile.Profile) {
	for _, t := range p.Triggers {
		switch t.Kind {
		case profile.TriggerHotKey:
			if t.HotKey != nil {
				r.byHotkey[t.HotKey.MapKey()] = p
			}
		case profile.TriggerWindow:
			r.byWindow[strings.ToLower(t.WindowName)] = p
		case profile.TriggerProcess:
			r.byProcess[strings.ToLower(t.ProcessPath)] = p
		case profile.TriggerLauncher:
			launcher := p
			r.launcher = &launcher
		default:
			panic(fmt.Sprintf("unknown trigger kind %q on profile %q", t.Kind, p.Name))
		}
	}
}

// Unregister removes the profile's index entries and releases its hotkeys
// at the OS level.
func (r *TriggerRegistry) Unregister(p profile.Profile) {
	for _, t := range p.Triggers {
		switch t.Kind {
		case profile.TriggerHotKey:
			if t.HotKey != nil {
				delete(r.byHotkey, t.HotKey.MapKey())
				r.hotkeys.Unregister(*t.HotKey)
			}
		case profile.TriggerWindow:
			delete(r.byWindow, strings.ToLower(t.WindowName))
		case profile.TriggerProcess:
			delete(r.byProcess, strings.ToLower(t.ProcessPath))
		case profile.TriggerLauncher:
			if r.launcher != nil && r.launcher.Name == p.Name {
				r.launcher = nil
			}
		default:
			panic(fmt.Sprintf("unknown trigger kind %q on profile %q", t.Kind, p.Name))
		}
	}
}

func (r *TriggerRegistry) ByHotkey(hk profile.HotKey) (profile.Profile, bool) {
	p, ok := r.byHotkey[hk.MapKey()]
	return p, ok
}

func (r *TriggerRegistry) ByWindow(title string) (profile.Profile, bool) {
	p, ok := r.byWindow[strings.ToLower(title)]
	return p, ok
}

func (r *TriggerRegistry) ByProcessPath(path string) (profile.Profile, bool) {
	p, ok := r.byProcess[strings.ToLower(path)]
	return p, ok
}

func (r *TriggerRegistry) LauncherProfile() (profile.Profile, bool) {
	if r.launcher == nil {
		return profile.Profile{}, false
	}
	return *r.launcher, true
}

// HasProcessTriggers reports whether any process-path trigger is
// registered; the startup scan is skipped entirely when none is.
func (r *TriggerRegistry) HasProcessTriggers() bool {
	return len(r.byProcess) > 0
}

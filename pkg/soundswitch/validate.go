package soundswitch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
)

// Validation failures are user-correctable and carry the first violated
// rule; callers match them with errors.Is to present the precise cause.
var (
	ErrNoName          = errors.New("profile needs a name")
	ErrNoTrigger       = errors.New("profile needs at least one trigger")
	ErrNoDevice        = errors.New("profile needs a playback or recording device")
	ErrNameTaken       = errors.New("a profile with this name already exists")
	ErrHotKeyMissing   = errors.New("hotkey trigger has no key combination")
	ErrHotKeyTaken     = errors.New("hotkey already used by another profile")
	ErrHotKeyRefused   = errors.New("hotkey could not be registered with the system")
	ErrWindowEmpty     = errors.New("window trigger has no title")
	ErrWindowTaken     = errors.New("window title already used by another profile")
	ErrPathEmpty       = errors.New("application trigger has no path")
	ErrPathTaken       = errors.New("application already used by another profile")
	ErrLauncherTaken   = errors.New("another profile already handles the launcher")
	ErrProfileNotFound = errors.New("profile does not exist")
)

// validateAdd runs the fixed-order rule sequence for a full profile. The
// first violated rule decides the returned error. Hotkey availability is
// checked by reserving the combination with the OS; combinations reserved
// before a later rule fails are released again.
func (e *Engine) validateAdd(p profile.Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNoName
	}
	if len(p.Triggers) == 0 {
		return ErrNoTrigger
	}
	if p.Playback == nil && p.Recording == nil {
		return ErrNoDevice
	}
	if _, ok := e.storedProfile(p.Name); ok {
		return fmt.Errorf("%w: %q", ErrNameTaken, p.Name)
	}

	var reserved []profile.HotKey
	release := func() {
		for _, hk := range reserved {
			e.hotkeys.Unregister(hk)
		}
	}

	for _, t := range p.Triggers {
		if err := e.validateTrigger(t, &reserved); err != nil {
			release()
			return err
		}
	}
	return nil
}

func (e *Engine) validateTrigger(t profile.Trigger, reserved *[]profile.HotKey) error {
	switch t.Kind {
	case profile.TriggerHotKey:
		if t.HotKey == nil || t.HotKey.IsZero() {
			return ErrHotKeyMissing
		}
		if _, ok := e.registry.ByHotkey(*t.HotKey); ok {
			return fmt.Errorf("%w: %s", ErrHotKeyTaken, t.HotKey)
		}
		if !e.hotkeys.TryRegister(*t.HotKey) {
			return fmt.Errorf("%w: %s", ErrHotKeyRefused, t.HotKey)
		}
		*reserved = append(*reserved, *t.HotKey)
	case profile.TriggerWindow:
		if strings.TrimSpace(t.WindowName) == "" {
			return ErrWindowEmpty
		}
		if _, ok := e.registry.ByWindow(t.WindowName); ok {
			return fmt.Errorf("%w: %q", ErrWindowTaken, t.WindowName)
		}
	case profile.TriggerProcess:
		if strings.TrimSpace(t.ProcessPath) == "" {
			return ErrPathEmpty
		}
		if _, ok := e.registry.ByProcessPath(t.ProcessPath); ok {
			return fmt.Errorf("%w: %q", ErrPathTaken, t.ProcessPath)
		}
	case profile.TriggerLauncher:
		if existing, ok := e.registry.LauncherProfile(); ok {
			return fmt.Errorf("%w: %q", ErrLauncherTaken, existing.Name)
		}
	default:
		panic(fmt.Sprintf("unknown trigger kind %q", t.Kind))
	}
	return nil
}

// ValidateSetting runs the looser rule sequence for the legacy
// single-trigger shape: a setting needs a name, at least one of
// hotkey-or-path, at least one device, and must not collide with stored
// profiles or registered triggers. It never reserves the hotkey; a
// setting that passes is converted and added through AddProfile, which
// performs the reservation.
func (e *Engine) ValidateSetting(s profile.Setting) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if strings.TrimSpace(s.Name) == "" {
		return ErrNoName
	}
	hasHotkey := s.HotKey != nil && !s.HotKey.IsZero()
	if !hasHotkey && strings.TrimSpace(s.AppPath) == "" {
		return ErrNoTrigger
	}
	if s.Playback == nil && s.Recording == nil {
		return ErrNoDevice
	}
	if _, ok := e.storedProfile(s.Name); ok {
		return fmt.Errorf("%w: %q", ErrNameTaken, s.Name)
	}
	if hasHotkey {
		if _, ok := e.registry.ByHotkey(*s.HotKey); ok {
			return fmt.Errorf("%w: %s", ErrHotKeyTaken, s.HotKey)
		}
	}
	if path := strings.TrimSpace(s.AppPath); path != "" {
		if _, ok := e.registry.ByProcessPath(path); ok {
			return fmt.Errorf("%w: %q", ErrPathTaken, path)
		}
	}
	return nil
}

// storedProfile finds a stored profile by exact name.
func (e *Engine) storedProfile(name string) (profile.Profile, bool) {
	for _, p := range e.store.Profiles() {
		if p.Name == name {
			return p, true
		}
	}
	return profile.Profile{}, false
}

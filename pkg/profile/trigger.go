package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TriggerKind discriminates the closed set of trigger variants.
type TriggerKind string

const (
	TriggerHotKey   TriggerKind = "hotkey"
	TriggerWindow   TriggerKind = "window"
	TriggerProcess  TriggerKind = "process"
	TriggerLauncher TriggerKind = "launcher"
)

// Trigger is one activation condition of a profile. Kind selects which of
// the payload fields is meaningful; consumers switch exhaustively on it.
type Trigger struct {
	Kind        TriggerKind `json:"kind"`
	HotKey      *HotKey     `json:"hotKey,omitempty"`
	WindowName  string      `json:"windowName,omitempty"`
	ProcessPath string      `json:"processPath,omitempty"`
}

// NewHotKeyTrigger returns a trigger firing on a global key combination.
func NewHotKeyTrigger(hk HotKey) Trigger {
	return Trigger{Kind: TriggerHotKey, HotKey: &hk}
}

// NewWindowTrigger returns a trigger firing when a window with the given
// title takes the foreground. Matching is case-insensitive.
func NewWindowTrigger(name string) Trigger {
	return Trigger{Kind: TriggerWindow, WindowName: name}
}

// NewProcessTrigger returns a trigger firing when the process at the given
// executable path takes the foreground. Matching is case-insensitive.
func NewProcessTrigger(path string) Trigger {
	return Trigger{Kind: TriggerProcess, ProcessPath: path}
}

// NewLauncherTrigger returns the singleton game-launcher trigger.
func NewLauncherTrigger() Trigger {
	return Trigger{Kind: TriggerLauncher}
}

// Modifier is a bitmask of hotkey modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

// modifierOrder fixes the canonical rendering order of String.
var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "Ctrl"},
	{ModShift, "Shift"},
	{ModAlt, "Alt"},
	{ModSuper, "Super"},
}

// HotKey is a global key combination: zero or more modifiers plus one key.
type HotKey struct {
	Modifiers Modifier
	Key       string
}

var ErrBadHotKey = errors.New("malformed hotkey")

// ParseHotKey reads combinations like "ctrl+alt+g" or "Super + F5".
// Tokens are case-insensitive; exactly one non-modifier key is required.
func ParseHotKey(s string) (HotKey, error) {
	var hk HotKey
	for _, tok := range strings.Split(s, "+") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		switch tok {
		case "":
			return HotKey{}, fmt.Errorf("%w: %q", ErrBadHotKey, s)
		case "ctrl", "control":
			hk.Modifiers |= ModCtrl
		case "shift":
			hk.Modifiers |= ModShift
		case "alt":
			hk.Modifiers |= ModAlt
		case "super", "win", "meta", "cmd":
			hk.Modifiers |= ModSuper
		default:
			if hk.Key != "" {
				return HotKey{}, fmt.Errorf("%w: more than one key in %q", ErrBadHotKey, s)
			}
			if strings.Contains(tok, " ") {
				return HotKey{}, fmt.Errorf("%w: %q is not a key", ErrBadHotKey, tok)
			}
			hk.Key = tok
		}
	}
	if hk.Key == "" {
		return HotKey{}, fmt.Errorf("%w: no key in %q", ErrBadHotKey, s)
	}
	return hk, nil
}

// String renders the canonical form, e.g. "Ctrl+Alt+G".
func (h HotKey) String() string {
	parts := make([]string, 0, 5)
	for _, m := range modifierOrder {
		if h.Modifiers&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, titleKey(h.Key))
	return strings.Join(parts, "+")
}

// MapKey is the normalized form used as a registry index key.
func (h HotKey) MapKey() string {
	return strings.ToLower(h.String())
}

// IsZero reports whether the combination is unset.
func (h HotKey) IsZero() bool {
	return h.Key == "" && h.Modifiers == 0
}

func (h HotKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *HotKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHotKey(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func titleKey(key string) string {
	if key == "" {
		return ""
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

package hypr

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
)

// Binds reserves global key combinations by installing compositor binds
// that exec this binary's send mode. The resulting presses come back in
// over the control connection and are injected with Deliver.
type Binds struct {
	// Path of the hyprctl binary, "hyprctl" when empty.
	Path string

	selfExe string
	pressed chan profile.HotKey
	log     *zap.SugaredLogger
}

var ErrBindRejected = errors.New("bind rejected by compositor")

var errorMapper = map[*regexp.Regexp]error{
	regexp.MustCompile(`^ok`):                 nil,
	regexp.MustCompile(`(?i)invalid`):         ErrBindRejected,
	regexp.MustCompile(`(?i)no such keyword`): ErrBindRejected,
}

func NewBinds(log *zap.SugaredLogger) (*Binds, error) {
	selfExe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate own executable: %w", err)
	}

	return &Binds{
		selfExe: selfExe,
		pressed: make(chan profile.HotKey, 8),
		log:     log,
	}, nil
}

func (b *Binds) TryRegister(hk profile.HotKey) bool {
	outStr, err := b.runCommand("keyword", "bind", bindArg(hk, b.selfExe))
	if err != nil {
		b.log.Warnf("bind %s: %v", hk, err)
		return false
	}
	if err := mapOutput(outStr); err != nil {
		b.log.Warnf("bind %s: %v", hk, err)
		return false
	}
	return true
}

func (b *Binds) Unregister(hk profile.HotKey) {
	outStr, err := b.runCommand("keyword", "unbind", unbindArg(hk))
	if err != nil {
		b.log.Warnf("unbind %s: %v", hk, err)
		return
	}
	if err := mapOutput(outStr); err != nil {
		b.log.Warnf("unbind %s: %v", hk, err)
	}
}

func (b *Binds) Pressed() <-chan profile.HotKey {
	return b.pressed
}

// Deliver injects a press reported by a bound command. Combinations
// nothing listens for are still delivered; matching is the consumer's
// business.
func (b *Binds) Deliver(combo string) error {
	hk, err := profile.ParseHotKey(combo)
	if err != nil {
		return fmt.Errorf("parse combination %q: %w", combo, err)
	}

	select {
	case b.pressed <- hk:
	default:
		b.log.Warnf("dropping press of %s, consumer is behind", hk)
	}
	return nil
}

func (b *Binds) runCommand(args ...string) (string, error) {
	var stdout bytes.Buffer

	path := b.Path
	if path == "" {
		path = "hyprctl"
	}

	cmd := exec.Command(path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stdout

	err := cmd.Run()
	outStr := strings.TrimSpace(stdout.String())
	if err != nil {
		return "", fmt.Errorf("hyprctl: %w, output: %s", err, outStr)
	}

	return outStr, nil
}

func mapOutput(outStr string) error {
	for re, mappedErr := range errorMapper {
		if re.MatchString(outStr) {
			if mappedErr == nil {
				return nil
			}
			return fmt.Errorf("%w: %s", mappedErr, outStr)
		}
	}

	return fmt.Errorf("unknown hyprctl response: %s", outStr)
}

// bindArg renders a keyword argument like
// "CTRL ALT,g,exec,/usr/bin/soundswitch send hotkey Ctrl+Alt+G".
func bindArg(hk profile.HotKey, selfExe string) string {
	return fmt.Sprintf("%s,%s,exec,%s send hotkey %s", hyprMods(hk.Modifiers), hk.Key, selfExe, hk)
}

func unbindArg(hk profile.HotKey) string {
	return fmt.Sprintf("%s,%s", hyprMods(hk.Modifiers), hk.Key)
}

func hyprMods(m profile.Modifier) string {
	var parts []string
	if m&profile.ModCtrl != 0 {
		parts = append(parts, "CTRL")
	}
	if m&profile.ModShift != 0 {
		parts = append(parts, "SHIFT")
	}
	if m&profile.ModAlt != 0 {
		parts = append(parts, "ALT")
	}
	if m&profile.ModSuper != 0 {
		parts = append(parts, "SUPER")
	}
	return strings.Join(parts, " ")
}

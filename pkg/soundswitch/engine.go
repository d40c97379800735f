// Package soundswitch implements the trigger-driven audio-route switching
// engine: a registry of profile triggers, validated profile CRUD, and an
// event loop that redirects audio when a trigger fires.
package soundswitch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
)

// NoProcess marks a dispatch that is not scoped to a process, i.e. one
// coming from a hotkey or the launcher rather than a foreground match.
const NoProcess = 0

// Engine owns the trigger registry and coordinates the collaborators. Add
// and delete take the write lock; event dispatch runs under the read lock,
// so a profile can never be deleted out from under an in-flight switch.
type Engine struct {
	store      ProfileStore
	registry   *TriggerRegistry
	hotkeys    HotkeyService
	foreground ForegroundWatcher
	devices    DeviceLister
	switcher   AudioSwitcher
	procs      ProcessLister
	notifier   Notifier
	log        *zap.SugaredLogger

	mu sync.RWMutex
}

func NewEngine(
	store ProfileStore,
	hotkeys HotkeyService,
	foreground ForegroundWatcher,
	devices DeviceLister,
	switcher AudioSwitcher,
	procs ProcessLister,
	notifier Notifier,
	log *zap.SugaredLogger,
) *Engine {
	return &Engine{
		store:      store,
		registry:   NewTriggerRegistry(hotkeys),
		hotkeys:    hotkeys,
		foreground: foreground,
		devices:    devices,
		switcher:   switcher,
		procs:      procs,
		notifier:   notifier,
		log:        log,
	}
}

// Initialize loads the stored profile set into the registry, migrates any
// legacy settings, and applies process-triggered profiles to processes
// that were already running before the engine existed. It returns the
// profiles whose hotkey the OS refused to register; those profiles stay
// active for their remaining triggers.
func (e *Engine) Initialize() ([]profile.Profile, error) {
	failed := e.registerStored()
	if err := e.migrateLegacySettings(); err != nil {
		return failed, err
	}
	e.reconcileRunning()
	return failed, nil
}

func (e *Engine) registerStored() []profile.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()

	var failed []profile.Profile
	for _, p := range e.store.Profiles() {
		refused := false
		for _, t := range p.Triggers {
			if t.Kind != profile.TriggerHotKey || t.HotKey == nil {
				continue
			}
			if !e.hotkeys.TryRegister(*t.HotKey) {
				e.log.Warnf("profile %q: hotkey %s refused by the system", p.Name, t.HotKey)
				refused = true
			}
		}
		if refused {
			failed = append(failed, p)
		}
		e.registry.Register(p)
	}
	return failed
}

// migrateLegacySettings upgrades the flattened pre-rewrite settings into
// full profiles through the validated add path, then drops the legacy
// collection. Settings that no longer validate are logged and lost, which
// matches the one-way upgrade of the original application.
func (e *Engine) migrateLegacySettings() error {
	settings := e.store.LegacySettings()
	if len(settings) == 0 {
		return nil
	}

	for _, s := range settings {
		if err := e.ValidateSetting(s); err != nil {
			e.log.Warnf("dropping legacy profile %q: %v", s.Name, err)
			continue
		}
		if err := e.AddProfile(s.Profile()); err != nil {
			e.log.Warnf("migrate legacy profile %q: %v", s.Name, err)
			continue
		}
		e.log.Infof("migrated legacy profile %q", s.Name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.ClearLegacySettings()
	if err := e.store.Save(); err != nil {
		return fmt.Errorf("save after legacy migration: %w", err)
	}
	return nil
}

// AddProfile validates the candidate against the structural rules and the
// current registry, then registers its triggers and persists it. The
// returned error is the first violated rule.
func (e *Engine) AddProfile(p profile.Profile) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateAdd(p); err != nil {
		return err
	}

	e.registry.Register(p)
	if err := e.store.Add(p); err != nil {
		e.registry.Unregister(p)
		return fmt.Errorf("store profile %q: %w", p.Name, err)
	}
	if err := e.store.Save(); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	e.log.Infof("added profile %q with %d trigger(s)", p.Name, len(p.Triggers))
	return nil
}

// DeleteProfiles removes the named profiles, unregisters their triggers,
// and persists the remaining set. Names that do not exist are reported in
// the returned error, one ErrProfileNotFound per name, while the rest are
// still deleted. When any deleted profile had process or window triggers,
// routing previously applied to individual processes is reset.
func (e *Engine) DeleteProfiles(names []string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var merr *multierror.Error
	deleted := 0
	resetRouting := false

	for _, name := range names {
		p, ok := e.storedProfile(name)
		if !ok {
			merr = multierror.Append(merr, fmt.Errorf("%w: %q", ErrProfileNotFound, name))
			continue
		}
		e.registry.Unregister(p)
		if err := e.store.Remove(p.Name); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("remove profile %q: %w", p.Name, err))
			continue
		}
		if p.AppliesToProcesses() {
			resetRouting = true
		}
		deleted++
	}

	if resetRouting {
		if err := e.switcher.ResetProcessRouting(); err != nil {
			e.log.Warnf("reset per-process routing: %v", err)
		}
	}
	if deleted > 0 {
		if err := e.store.Save(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("save profiles: %w", err))
		}
	}
	return deleted, merr.ErrorOrNil()
}

// Profiles returns a snapshot of the stored profile set.
func (e *Engine) Profiles() []profile.Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Profiles()
}

// Run consumes the foreground and hotkey event streams until the context
// is cancelled or a stream closes. Events are handled one at a time; a
// miss is a silent no-op.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-e.foreground.Events():
			if !ok {
				return errors.New("foreground event stream closed")
			}
			e.handleForeground(ev)
		case hk, ok := <-e.hotkeys.Pressed():
			if !ok {
				return errors.New("hotkey event stream closed")
			}
			e.handleHotkey(hk)
		}
	}
}

func (e *Engine) handleForeground(ev ForegroundEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if p, ok := e.registry.ByProcessPath(ev.ProcessPath); ok {
		e.log.Debugf("foreground process %q matched profile %q", ev.ProcessPath, p.Name)
		e.dispatch(p, ev.PID)
		return
	}
	if p, ok := e.registry.ByWindow(ev.WindowTitle); ok {
		e.log.Debugf("foreground window %q matched profile %q", ev.WindowTitle, p.Name)
		e.dispatch(p, ev.PID)
	}
}

// handleHotkey dispatches without a process id: a hotkey press is a
// user-initiated global action, so only the default endpoint moves.
func (e *Engine) handleHotkey(hk profile.HotKey) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.registry.ByHotkey(hk)
	if !ok {
		return
	}
	e.log.Debugf("hotkey %s matched profile %q", hk, p.Name)
	e.dispatch(p, NoProcess)
}

// TriggerLauncher dispatches the launcher-triggered profile, if one is
// registered. The launcher event arrives from an external integration
// over the control channel rather than from an OS hook.
func (e *Engine) TriggerLauncher() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.registry.LauncherProfile()
	if !ok {
		return false
	}
	e.dispatch(p, NoProcess)
	return true
}

// dispatch resolves every device target of the profile against the live
// device list and issues the switch commands. A target whose device is
// missing is reported and skipped; it never blocks the remaining targets.
func (e *Engine) dispatch(p profile.Profile, pid int) {
	for _, target := range p.Targets() {
		live, ok := e.resolveDevice(target)
		if !ok {
			e.log.Infof("profile %q: device %q not present, skipping", p.Name, target.Label())
			e.notifier.Notify(
				fmt.Sprintf("The audio device %q used by profile %q is not connected.", target.Label(), p.Name),
				"Device not found",
			)
			continue
		}

		if pid != NoProcess {
			if err := e.switcher.SwitchProcessTo(live.ID, live.Flow, target.Role, pid); err != nil {
				e.log.Warnf("profile %q: switch process %d to %q: %v", p.Name, pid, live.Name, err)
			}
		}
		if pid == NoProcess || p.AlsoSwitchDefault {
			if err := e.switcher.SwitchTo(live.ID, live.Flow, target.Role); err != nil {
				e.log.Warnf("profile %q: switch default to %q: %v", p.Name, live.Name, err)
			}
		}
	}
}

// resolveDevice asks the device lister whether a live device matches the
// stored descriptor. Matching is structural (flow plus identity), not by
// raw id: ids may differ across OS sessions while the device persists.
func (e *Engine) resolveDevice(t profile.DeviceTarget) (profile.Device, bool) {
	var live []profile.Device
	switch t.Flow {
	case profile.FlowPlayback:
		live = e.devices.PlaybackDevices()
	case profile.FlowRecording:
		live = e.devices.RecordingDevices()
	}
	for _, d := range live {
		if t.Matches(d) {
			return d, true
		}
	}
	return profile.Device{}, false
}

// reconcileRunning applies process-triggered profiles to processes that
// launched before the registry existed. Introspection failures are
// routine for system processes the current user cannot inspect, so they
// are skipped per process and never abort the scan.
func (e *Engine) reconcileRunning() {
	e.mu.RLock()
	scan := e.registry.HasProcessTriggers()
	e.mu.RUnlock()
	if !scan {
		return
	}

	procs, err := e.procs.Snapshot()
	if err != nil {
		e.log.Warnf("enumerate running processes: %v", err)
		return
	}

	for _, proc := range procs {
		if !proc.Alive() {
			continue
		}
		path, err := proc.Path()
		if err != nil {
			e.log.Debugf("process %d: resolve executable: %v", proc.ID(), err)
			continue
		}

		e.mu.RLock()
		p, ok := e.registry.ByProcessPath(path)
		if ok {
			e.log.Infof("reconciling running process %d (%s) with profile %q", proc.ID(), path, p.Name)
			e.dispatch(p, proc.ID())
		}
		e.mu.RUnlock()
	}
}

package soundswitch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
)

type fakeHotkeys struct {
	refuse   map[string]bool
	reserved map[string]int
	pressed  chan profile.HotKey
}

func newFakeHotkeys() *fakeHotkeys {
	return &fakeHotkeys{
		refuse:   make(map[string]bool),
		reserved: make(map[string]int),
		pressed:  make(chan profile.HotKey, 8),
	}
}

func (f *fakeHotkeys) TryRegister(hk profile.HotKey) bool {
	if f.refuse[hk.MapKey()] {
		return false
	}
	f.reserved[hk.MapKey()]++
	return true
}

func (f *fakeHotkeys) Unregister(hk profile.HotKey) {
	f.reserved[hk.MapKey()]--
	if f.reserved[hk.MapKey()] <= 0 {
		delete(f.reserved, hk.MapKey())
	}
}

func (f *fakeHotkeys) Pressed() <-chan profile.HotKey { return f.pressed }

type fakeForeground struct {
	events chan ForegroundEvent
}

func (f *fakeForeground) Events() <-chan ForegroundEvent { return f.events }

type fakeDevices struct {
	playback  []profile.Device
	recording []profile.Device
}

func (f *fakeDevices) PlaybackDevices() []profile.Device  { return f.playback }
func (f *fakeDevices) RecordingDevices() []profile.Device { return f.recording }

// switchCall records one routing command; pid is NoProcess for default
// switches, so the slice doubles as an ordered transcript of both kinds.
type switchCall struct {
	deviceID string
	flow     profile.Flow
	role     profile.Role
	pid      int
}

type fakeSwitcher struct {
	calls  []switchCall
	resets int
	fail   error
}

func (f *fakeSwitcher) SwitchTo(deviceID string, flow profile.Flow, role profile.Role) error {
	f.calls = append(f.calls, switchCall{deviceID: deviceID, flow: flow, role: role, pid: NoProcess})
	return f.fail
}

func (f *fakeSwitcher) SwitchProcessTo(deviceID string, flow profile.Flow, role profile.Role, pid int) error {
	f.calls = append(f.calls, switchCall{deviceID: deviceID, flow: flow, role: role, pid: pid})
	return f.fail
}

func (f *fakeSwitcher) ResetProcessRouting() error {
	f.resets++
	return nil
}

type fakeProcess struct {
	id    int
	alive bool
	path  string
	err   error
}

func (f fakeProcess) ID() int               { return f.id }
func (f fakeProcess) Alive() bool           { return f.alive }
func (f fakeProcess) Path() (string, error) { return f.path, f.err }

type fakeProcs struct {
	procs []Process
	err   error
	calls int
}

func (f *fakeProcs) Snapshot() ([]Process, error) {
	f.calls++
	return f.procs, f.err
}

type note struct {
	message string
	title   string
}

type fakeNotifier struct {
	notes []note
}

func (f *fakeNotifier) Notify(message, title string) {
	f.notes = append(f.notes, note{message: message, title: title})
}

type fakeStore struct {
	profiles  []profile.Profile
	legacy    []profile.Setting
	saves     int
	addErr    error
	removeErr error
	saveErr   error
}

func (f *fakeStore) Profiles() []profile.Profile {
	return append([]profile.Profile(nil), f.profiles...)
}

func (f *fakeStore) Add(p profile.Profile) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.profiles = append(f.profiles, p)
	return nil
}

func (f *fakeStore) Remove(name string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	for i, p := range f.profiles {
		if p.Name == name {
			f.profiles = append(f.profiles[:i], f.profiles[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) LegacySettings() []profile.Setting { return f.legacy }
func (f *fakeStore) ClearLegacySettings()              { f.legacy = nil }

func (f *fakeStore) Save() error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	return nil
}

type engineFixture struct {
	engine     *Engine
	store      *fakeStore
	hotkeys    *fakeHotkeys
	foreground *fakeForeground
	devices    *fakeDevices
	switcher   *fakeSwitcher
	procs      *fakeProcs
	notifier   *fakeNotifier
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		store:      &fakeStore{},
		hotkeys:    newFakeHotkeys(),
		foreground: &fakeForeground{events: make(chan ForegroundEvent, 8)},
		devices:    &fakeDevices{},
		switcher:   &fakeSwitcher{},
		procs:      &fakeProcs{},
		notifier:   &fakeNotifier{},
	}
	f.engine = NewEngine(
		f.store, f.hotkeys, f.foreground,
		f.devices, f.switcher, f.procs, f.notifier,
		zaptest.NewLogger(t).Sugar(),
	)
	return f
}

// runForeground queues the events, closes the stream, and drains it
// through Run so the whole exchange stays on the test goroutine.
func (f *engineFixture) runForeground(t *testing.T, events ...ForegroundEvent) {
	t.Helper()
	for _, ev := range events {
		f.foreground.events <- ev
	}
	close(f.foreground.events)
	require.EqualError(t, f.engine.Run(context.Background()), "foreground event stream closed")
}

func (f *engineFixture) runHotkeys(t *testing.T, presses ...profile.HotKey) {
	t.Helper()
	for _, hk := range presses {
		f.hotkeys.pressed <- hk
	}
	close(f.hotkeys.pressed)
	require.EqualError(t, f.engine.Run(context.Background()), "hotkey event stream closed")
}

func mustHotKey(t *testing.T, combo string) profile.HotKey {
	t.Helper()
	hk, err := profile.ParseHotKey(combo)
	require.NoError(t, err)
	return hk
}

func hotKeyPtr(t *testing.T, combo string) *profile.HotKey {
	t.Helper()
	hk := mustHotKey(t, combo)
	return &hk
}

func playbackTarget(name string) *profile.DeviceTarget {
	return &profile.DeviceTarget{Name: name, Flow: profile.FlowPlayback, Role: profile.RoleMultimedia}
}

func recordingTarget(name string) *profile.DeviceTarget {
	return &profile.DeviceTarget{Name: name, Flow: profile.FlowRecording, Role: profile.RoleCommunications}
}

func TestForegroundProcessMatchSwitchesOnlyThatProcess(t *testing.T) {
	f := newFixture(t)
	f.devices.playback = []profile.Device{
		{ID: "sink-0", Name: "Headset", Flow: profile.FlowPlayback},
		{ID: "sink-1", Name: "Speakers", Flow: profile.FlowPlayback},
	}
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name:     "Gaming",
		Triggers: []profile.Trigger{profile.NewProcessTrigger(`C:\games\game.exe`)},
		Playback: playbackTarget("Speakers"),
	}))

	f.runForeground(t, ForegroundEvent{ProcessPath: `C:\Games\GAME.EXE`, WindowTitle: "Game", PID: 4242})

	require.Equal(t, []switchCall{
		{deviceID: "sink-1", flow: profile.FlowPlayback, role: profile.RoleMultimedia, pid: 4242},
	}, f.switcher.calls)
}

func TestForegroundAlsoSwitchesDefaultWhenAsked(t *testing.T) {
	f := newFixture(t)
	f.devices.playback = []profile.Device{{ID: "sink-1", Name: "Speakers", Flow: profile.FlowPlayback}}
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name:              "Gaming",
		Triggers:          []profile.Trigger{profile.NewProcessTrigger("/usr/bin/game")},
		Playback:          playbackTarget("Speakers"),
		AlsoSwitchDefault: true,
	}))

	f.runForeground(t, ForegroundEvent{ProcessPath: "/usr/bin/game", PID: 4242})

	require.Equal(t, []switchCall{
		{deviceID: "sink-1", flow: profile.FlowPlayback, role: profile.RoleMultimedia, pid: 4242},
		{deviceID: "sink-1", flow: profile.FlowPlayback, role: profile.RoleMultimedia, pid: NoProcess},
	}, f.switcher.calls)
}

func TestForegroundWithoutPIDSwitchesDefault(t *testing.T) {
	f := newFixture(t)
	f.devices.playback = []profile.Device{{ID: "sink-1", Name: "Speakers", Flow: profile.FlowPlayback}}
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name:     "Gaming",
		Triggers: []profile.Trigger{profile.NewWindowTrigger("Game")},
		Playback: playbackTarget("Speakers"),
	}))

	f.runForeground(t, ForegroundEvent{WindowTitle: "Game", PID: NoProcess})

	require.Equal(t, []switchCall{
		{deviceID: "sink-1", flow: profile.FlowPlayback, role: profile.RoleMultimedia, pid: NoProcess},
	}, f.switcher.calls)
}

func TestForegroundPrefersProcessMatchOverWindow(t *testing.T) {
	f := newFixture(t)
	f.devices.playback = []profile.Device{
		{ID: "sink-1", Name: "Speakers", Flow: profile.FlowPlayback},
		{ID: "sink-2", Name: "Headset", Flow: profile.FlowPlayback},
	}
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name:     "By path",
		Triggers: []profile.Trigger{profile.NewProcessTrigger("/usr/bin/game")},
		Playback: playbackTarget("Speakers"),
	}))
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name:     "By window",
		Triggers: []profile.Trigger{profile.NewWindowTrigger("Game")},
		Playback: playbackTarget("Headset"),
	}))

	f.runForeground(t, ForegroundEvent{ProcessPath: "/usr/bin/game", WindowTitle: "Game", PID: 3})

	require.Equal(t, []switchCall{
		{deviceID: "sink-1", flow: profile.FlowPlayback, role: profile.RoleMultimedia, pid: 3},
	}, f.switcher.calls)
}

func TestForegroundMissIsNoOp(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name:     "Gaming",
		Triggers: []profile.Trigger{profile.NewWindowTrigger("Game")},
		Playback: playbackTarget("Speakers"),
	}))

	f.runForeground(t, ForegroundEvent{WindowTitle: "Editor", ProcessPath: "/usr/bin/editor", PID: 5})

	require.Empty(t, f.switcher.calls)
	require.Empty(t, f.notifier.notes)
}

func TestDispatchMissingDeviceNotifiesAndContinues(t *testing.T) {
	f := newFixture(t)
	f.devices.recording = []profile.Device{{ID: "src-1", Name: "Mic", Flow: profile.FlowRecording}}
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name:      "Streaming",
		Triggers:  []profile.Trigger{profile.NewWindowTrigger("OBS")},
		Playback:  playbackTarget("Loopback"),
		Recording: recordingTarget("Mic"),
	}))

	f.runForeground(t, ForegroundEvent{WindowTitle: "obs", PID: 7})

	require.Len(t, f.notifier.notes, 1)
	require.Contains(t, f.notifier.notes[0].message, `"Loopback"`)
	require.Contains(t, f.notifier.notes[0].message, `"Streaming"`)
	require.Equal(t, "Device not found", f.notifier.notes[0].title)
	require.Equal(t, []switchCall{
		{deviceID: "src-1", flow: profile.FlowRecording, role: profile.RoleCommunications, pid: 7},
	}, f.switcher.calls)
}

func TestHotkeyPressSwitchesDefaultOnly(t *testing.T) {
	f := newFixture(t)
	f.devices.playback = []profile.Device{{ID: "sink-1", Name: "Speakers", Flow: profile.FlowPlayback}}
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name: "Speakers",
		Triggers: []profile.Trigger{
			profile.NewHotKeyTrigger(mustHotKey(t, "ctrl+alt+s")),
			profile.NewProcessTrigger("/usr/bin/game"),
		},
		Playback: playbackTarget("Speakers"),
	}))

	f.runHotkeys(t, mustHotKey(t, "Ctrl+Alt+S"))

	require.Equal(t, []switchCall{
		{deviceID: "sink-1", flow: profile.FlowPlayback, role: profile.RoleMultimedia, pid: NoProcess},
	}, f.switcher.calls)
}

func TestUnknownHotkeyPressIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.runHotkeys(t, mustHotKey(t, "ctrl+alt+x"))
	require.Empty(t, f.switcher.calls)
}

func TestTriggerLauncher(t *testing.T) {
	f := newFixture(t)
	require.False(t, f.engine.TriggerLauncher())

	f.devices.playback = []profile.Device{{ID: "sink-1", Name: "Speakers", Flow: profile.FlowPlayback}}
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name:     "Session start",
		Triggers: []profile.Trigger{profile.NewLauncherTrigger()},
		Playback: playbackTarget("Speakers"),
	}))

	require.True(t, f.engine.TriggerLauncher())
	require.Equal(t, []switchCall{
		{deviceID: "sink-1", flow: profile.FlowPlayback, role: profile.RoleMultimedia, pid: NoProcess},
	}, f.switcher.calls)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, f.engine.Run(ctx), context.Canceled)
}

func TestDeleteProfilesReportsMissingSubset(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name:     "Hotkey only",
		Triggers: []profile.Trigger{profile.NewHotKeyTrigger(mustHotKey(t, "ctrl+1"))},
		Playback: playbackTarget("Speakers"),
	}))
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name:     "Per process",
		Triggers: []profile.Trigger{profile.NewProcessTrigger("/usr/bin/game")},
		Playback: playbackTarget("Headset"),
	}))

	deleted, err := f.engine.DeleteProfiles([]string{"Hotkey only", "ghost", "Per process"})

	require.Equal(t, 2, deleted)
	require.ErrorIs(t, err, ErrProfileNotFound)
	require.Contains(t, err.Error(), `"ghost"`)
	require.Empty(t, f.engine.Profiles())
	require.Equal(t, 1, f.switcher.resets)
	require.Empty(t, f.hotkeys.reserved)
}

func TestDeleteHotkeyOnlyProfileKeepsProcessRouting(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.AddProfile(profile.Profile{
		Name:     "Hotkey only",
		Triggers: []profile.Trigger{profile.NewHotKeyTrigger(mustHotKey(t, "ctrl+1"))},
		Playback: playbackTarget("Speakers"),
	}))

	deleted, err := f.engine.DeleteProfiles([]string{"Hotkey only"})

	require.NoError(t, err)
	require.Equal(t, 1, deleted)
	require.Zero(t, f.switcher.resets)
}

func TestDeleteFreesTriggersForReuse(t *testing.T) {
	f := newFixture(t)
	p := profile.Profile{
		Name: "First",
		Triggers: []profile.Trigger{
			profile.NewHotKeyTrigger(mustHotKey(t, "ctrl+g")),
			profile.NewWindowTrigger("Chrome"),
		},
		Playback: playbackTarget("Speakers"),
	}
	require.NoError(t, f.engine.AddProfile(p))
	require.ErrorIs(t, f.engine.AddProfile(p), ErrNameTaken)

	deleted, err := f.engine.DeleteProfiles([]string{"First"})
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	p.Name = "Second"
	require.NoError(t, f.engine.AddProfile(p))
	require.Len(t, f.hotkeys.reserved, 1)
}

func TestAddProfileRollsBackOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.addErr = errors.New("disk full")
	p := profile.Profile{
		Name:     "Gaming",
		Triggers: []profile.Trigger{profile.NewHotKeyTrigger(mustHotKey(t, "ctrl+g"))},
		Playback: playbackTarget("Speakers"),
	}

	require.Error(t, f.engine.AddProfile(p))
	require.Empty(t, f.hotkeys.reserved)
	require.Empty(t, f.engine.Profiles())

	f.store.addErr = nil
	require.NoError(t, f.engine.AddProfile(p))
}

func TestInitializeRegistersStoredProfiles(t *testing.T) {
	f := newFixture(t)
	f.store.profiles = []profile.Profile{{
		Name:      "Meetings",
		Triggers:  []profile.Trigger{profile.NewWindowTrigger("Zoom")},
		Recording: recordingTarget("Headset Mic"),
	}}
	f.devices.recording = []profile.Device{{ID: "src-2", Name: "Headset Mic", Flow: profile.FlowRecording}}

	failed, err := f.engine.Initialize()
	require.NoError(t, err)
	require.Empty(t, failed)

	f.runForeground(t, ForegroundEvent{WindowTitle: "zoom", PID: 9})
	require.Equal(t, []switchCall{
		{deviceID: "src-2", flow: profile.FlowRecording, role: profile.RoleCommunications, pid: 9},
	}, f.switcher.calls)
}

func TestInitializeReportsRefusedHotkeys(t *testing.T) {
	f := newFixture(t)
	f.hotkeys.refuse[mustHotKey(t, "ctrl+r").MapKey()] = true
	f.store.profiles = []profile.Profile{
		{
			Name: "Clips",
			Triggers: []profile.Trigger{
				profile.NewHotKeyTrigger(mustHotKey(t, "ctrl+r")),
				profile.NewWindowTrigger("Editor"),
			},
			Playback: playbackTarget("Speakers"),
		},
		{
			Name:     "Music",
			Triggers: []profile.Trigger{profile.NewHotKeyTrigger(mustHotKey(t, "ctrl+m"))},
			Playback: playbackTarget("Speakers"),
		},
	}
	f.devices.playback = []profile.Device{{ID: "sink-1", Name: "Speakers", Flow: profile.FlowPlayback}}

	failed, err := f.engine.Initialize()
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, "Clips", failed[0].Name)

	// The refused hotkey does not disable the profile's other triggers.
	f.runForeground(t, ForegroundEvent{WindowTitle: "Editor", PID: 11})
	require.Len(t, f.switcher.calls, 1)
}

func TestInitializeMigratesLegacySettings(t *testing.T) {
	f := newFixture(t)
	f.store.legacy = []profile.Setting{
		{
			Name:     "Old game",
			HotKey:   hotKeyPtr(t, "ctrl+f5"),
			AppPath:  `C:\old\game.exe`,
			Playback: playbackTarget("Speakers"),
		},
		{Name: "Broken"},
	}

	failed, err := f.engine.Initialize()
	require.NoError(t, err)
	require.Empty(t, failed)

	profiles := f.engine.Profiles()
	require.Len(t, profiles, 1)
	require.Equal(t, "Old game", profiles[0].Name)
	require.True(t, profiles[0].AlsoSwitchDefault)
	require.Len(t, profiles[0].Triggers, 2)
	require.Empty(t, f.store.LegacySettings())
	require.Len(t, f.hotkeys.reserved, 1)
}

func TestInitializeReconcilesRunningProcesses(t *testing.T) {
	f := newFixture(t)
	f.store.profiles = []profile.Profile{{
		Name:     "Gaming",
		Triggers: []profile.Trigger{profile.NewProcessTrigger("/usr/bin/game")},
		Playback: playbackTarget("Speakers"),
	}}
	f.devices.playback = []profile.Device{{ID: "sink-1", Name: "Speakers", Flow: profile.FlowPlayback}}
	f.procs.procs = []Process{
		fakeProcess{id: 7, alive: true, path: "/usr/bin/GAME"},
		fakeProcess{id: 8, alive: false, path: "/usr/bin/game"},
		fakeProcess{id: 9, alive: true, err: errors.New("permission denied")},
		fakeProcess{id: 10, alive: true, path: "/usr/bin/editor"},
	}

	_, err := f.engine.Initialize()
	require.NoError(t, err)
	require.Equal(t, []switchCall{
		{deviceID: "sink-1", flow: profile.FlowPlayback, role: profile.RoleMultimedia, pid: 7},
	}, f.switcher.calls)
}

func TestInitializeSkipsProcessScanWithoutProcessTriggers(t *testing.T) {
	f := newFixture(t)
	f.store.profiles = []profile.Profile{{
		Name:     "Hotkey only",
		Triggers: []profile.Trigger{profile.NewHotKeyTrigger(mustHotKey(t, "ctrl+1"))},
		Playback: playbackTarget("Speakers"),
	}}
	f.procs.err = errors.New("must not be called")

	_, err := f.engine.Initialize()
	require.NoError(t, err)
	require.Zero(t, f.procs.calls)
}

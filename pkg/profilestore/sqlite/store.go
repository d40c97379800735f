// Package sqlite persists profiles in a sqlite database. Every mutation
// is committed immediately; the in-memory view only tracks what the
// database already holds.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
	"github.com/westonhowe98/SoundSwitch/pkg/profilestore/sqlite/migrations"
)

type ProfileStore struct {
	db       *sql.DB
	querier  *Queries
	profiles []profile.Profile
	legacy   []profile.Setting
}

func NewProfileStore(filename string, log *zap.SugaredLogger) (*ProfileStore, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrations.Migrate(db, log); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	store := &ProfileStore{
		db:      db,
		querier: New(db),
	}

	if store.profiles, err = store.loadProfiles(); err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	return store, nil
}

func (s *ProfileStore) Close() error {
	return s.db.Close()
}

func (s *ProfileStore) loadProfiles() ([]profile.Profile, error) {
	ctx := context.Background()

	rows, err := s.querier.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite select profiles: %w", err)
	}

	triggerRows, err := s.querier.ListTriggers(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite select triggers: %w", err)
	}

	triggers := make(map[string][]profile.Trigger)
	for _, row := range triggerRows {
		t, err := triggerFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", row.ProfileName, err)
		}
		triggers[row.ProfileName] = append(triggers[row.ProfileName], t)
	}

	out := make([]profile.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, profile.Profile{
			Name:              row.Name,
			Triggers:          triggers[row.Name],
			Playback:          targetFromColumns(row.PlaybackID, row.PlaybackName, row.PlaybackRole, profile.FlowPlayback),
			Recording:         targetFromColumns(row.RecordingID, row.RecordingName, row.RecordingRole, profile.FlowRecording),
			AlsoSwitchDefault: row.AlsoSwitchDefault,
		})
	}
	return out, nil
}

func (s *ProfileStore) Profiles() []profile.Profile {
	return append([]profile.Profile(nil), s.profiles...)
}

func (s *ProfileStore) Add(p profile.Profile) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := s.querier.WithTx(tx)

	playbackID, playbackName, playbackRole := targetColumns(p.Playback)
	recordingID, recordingName, recordingRole := targetColumns(p.Recording)
	if err := q.InsertProfile(ctx, InsertProfileParams{
		Name:              p.Name,
		PlaybackID:        playbackID,
		PlaybackName:      playbackName,
		PlaybackRole:      playbackRole,
		RecordingID:       recordingID,
		RecordingName:     recordingName,
		RecordingRole:     recordingRole,
		AlsoSwitchDefault: p.AlsoSwitchDefault,
	}); err != nil {
		return fmt.Errorf("sqlite insert profile: %w", err)
	}

	for i, t := range p.Triggers {
		hotkey, window, path := triggerColumns(t)
		if err := q.InsertTrigger(ctx, InsertTriggerParams{
			ProfileName: p.Name,
			Position:    int64(i),
			Kind:        string(t.Kind),
			Hotkey:      hotkey,
			WindowName:  window,
			ProcessPath: path,
		}); err != nil {
			return fmt.Errorf("sqlite insert trigger: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.profiles = append(s.profiles, p)
	return nil
}

func (s *ProfileStore) Remove(name string) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := s.querier.WithTx(tx)
	if err := q.DeleteProfileTriggers(ctx, name); err != nil {
		return fmt.Errorf("sqlite delete triggers: %w", err)
	}
	if err := q.DeleteProfile(ctx, name); err != nil {
		return fmt.Errorf("sqlite delete profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for i, stored := range s.profiles {
		if stored.Name == name {
			s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
			break
		}
	}
	return nil
}

func (s *ProfileStore) SeedLegacySettings(settings []profile.Setting) {
	s.legacy = append([]profile.Setting(nil), settings...)
}

func (s *ProfileStore) LegacySettings() []profile.Setting {
	return append([]profile.Setting(nil), s.legacy...)
}

func (s *ProfileStore) ClearLegacySettings() {
	s.legacy = nil
}

// Save is a no-op: every mutation commits on its own.
func (s *ProfileStore) Save() error {
	return nil
}

func triggerFromRow(row TriggerRow) (profile.Trigger, error) {
	switch profile.TriggerKind(row.Kind) {
	case profile.TriggerHotKey:
		hk, err := profile.ParseHotKey(row.Hotkey.String)
		if err != nil {
			return profile.Trigger{}, fmt.Errorf("parse stored hotkey %q: %w", row.Hotkey.String, err)
		}
		return profile.NewHotKeyTrigger(hk), nil
	case profile.TriggerWindow:
		return profile.NewWindowTrigger(row.WindowName.String), nil
	case profile.TriggerProcess:
		return profile.NewProcessTrigger(row.ProcessPath.String), nil
	case profile.TriggerLauncher:
		return profile.NewLauncherTrigger(), nil
	}
	return profile.Trigger{}, fmt.Errorf("unknown trigger kind %q", row.Kind)
}

func triggerColumns(t profile.Trigger) (hotkey, window, path sql.NullString) {
	switch t.Kind {
	case profile.TriggerHotKey:
		if t.HotKey != nil {
			hotkey = sql.NullString{String: t.HotKey.String(), Valid: true}
		}
	case profile.TriggerWindow:
		window = sql.NullString{String: t.WindowName, Valid: true}
	case profile.TriggerProcess:
		path = sql.NullString{String: t.ProcessPath, Valid: true}
	}
	return hotkey, window, path
}

// targetColumns flattens a device target; all three columns are set
// together so a null role column means no target at all.
func targetColumns(t *profile.DeviceTarget) (id, name, role sql.NullString) {
	if t == nil {
		return id, name, role
	}
	id = sql.NullString{String: t.ID, Valid: true}
	name = sql.NullString{String: t.Name, Valid: true}
	role = sql.NullString{String: string(t.Role), Valid: true}
	return id, name, role
}

func targetFromColumns(id, name, role sql.NullString, flow profile.Flow) *profile.DeviceTarget {
	if !role.Valid {
		return nil
	}
	return &profile.DeviceTarget{
		ID:   id.String,
		Name: name.String,
		Flow: flow,
		Role: profile.Role(role.String),
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type ProfileRow struct {
	Name              string
	PlaybackID        sql.NullString
	PlaybackName      sql.NullString
	PlaybackRole      sql.NullString
	RecordingID       sql.NullString
	RecordingName     sql.NullString
	RecordingRole     sql.NullString
	AlsoSwitchDefault bool
}

type TriggerRow struct {
	ProfileName string
	Position    int64
	Kind        string
	Hotkey      sql.NullString
	WindowName  sql.NullString
	ProcessPath sql.NullString
}

const listProfiles = `
select name,
       playback_id, playback_name, playback_role,
       recording_id, recording_name, recording_role,
       also_switch_default
from profiles
order by rowid
`

func (q *Queries) ListProfiles(ctx context.Context) ([]ProfileRow, error) {
	rows, err := q.db.QueryContext(ctx, listProfiles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProfileRow
	for rows.Next() {
		var r ProfileRow
		if err := rows.Scan(
			&r.Name,
			&r.PlaybackID, &r.PlaybackName, &r.PlaybackRole,
			&r.RecordingID, &r.RecordingName, &r.RecordingRole,
			&r.AlsoSwitchDefault,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const listTriggers = `
select profile_name, position, kind, hotkey, window_name, process_path
from triggers
order by profile_name, position
`

func (q *Queries) ListTriggers(ctx context.Context) ([]TriggerRow, error) {
	rows, err := q.db.QueryContext(ctx, listTriggers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TriggerRow
	for rows.Next() {
		var r TriggerRow
		if err := rows.Scan(
			&r.ProfileName, &r.Position, &r.Kind,
			&r.Hotkey, &r.WindowName, &r.ProcessPath,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type InsertProfileParams struct {
	Name              string
	PlaybackID        sql.NullString
	PlaybackName      sql.NullString
	PlaybackRole      sql.NullString
	RecordingID       sql.NullString
	RecordingName     sql.NullString
	RecordingRole     sql.NullString
	AlsoSwitchDefault bool
}

const insertProfile = `
insert into profiles (name,
                      playback_id, playback_name, playback_role,
                      recording_id, recording_name, recording_role,
                      also_switch_default)
values (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertProfile(ctx context.Context, arg InsertProfileParams) error {
	_, err := q.db.ExecContext(ctx, insertProfile,
		arg.Name,
		arg.PlaybackID, arg.PlaybackName, arg.PlaybackRole,
		arg.RecordingID, arg.RecordingName, arg.RecordingRole,
		arg.AlsoSwitchDefault,
	)
	return err
}

type InsertTriggerParams struct {
	ProfileName string
	Position    int64
	Kind        string
	Hotkey      sql.NullString
	WindowName  sql.NullString
	ProcessPath sql.NullString
}

const insertTrigger = `
insert into triggers (profile_name, position, kind, hotkey, window_name, process_path)
values (?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertTrigger(ctx context.Context, arg InsertTriggerParams) error {
	_, err := q.db.ExecContext(ctx, insertTrigger,
		arg.ProfileName, arg.Position, arg.Kind,
		arg.Hotkey, arg.WindowName, arg.ProcessPath,
	)
	return err
}

const deleteProfileTriggers = `
delete from triggers where profile_name = ?
`

func (q *Queries) DeleteProfileTriggers(ctx context.Context, profileName string) error {
	_, err := q.db.ExecContext(ctx, deleteProfileTriggers, profileName)
	return err
}

const deleteProfile = `
delete from profiles where name = ?
`

func (q *Queries) DeleteProfile(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, deleteProfile, name)
	return err
}

const dumpTables = `
select sql from sqlite_master where type = 'table' order by name
`

// DumpTables returns the creation statement of every table; entries are
// nil for tables sqlite tracks without stored SQL.
func (q *Queries) DumpTables(ctx context.Context) ([]*string, error) {
	return q.dumpStatements(ctx, dumpTables)
}

const dumpRest = `
select sql from sqlite_master where type != 'table' order by name
`

// DumpRest returns the creation statements of indexes, views and
// triggers.
func (q *Queries) DumpRest(ctx context.Context) ([]*string, error) {
	return q.dumpStatements(ctx, dumpRest)
}

func (q *Queries) dumpStatements(ctx context.Context, query string) ([]*string, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sqlite_master: %w", err)
	}
	defer rows.Close()

	var out []*string
	for rows.Next() {
		var stmt *string
		if err := rows.Scan(&stmt); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		out = append(out, stmt)
	}
	return out, rows.Err()
}

// Package json persists profiles in a single JSON document. Writes are
// buffered behind a dirty flag; Save flushes on demand and SaveLooper
// flushes periodically and on shutdown.
package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
)

const flushInterval = time.Minute

type document struct {
	Profiles []profile.Profile `json:"profiles"`
}

type ProfileStore struct {
	doc    document
	legacy []profile.Setting
	file   *os.File
	lock   sync.Mutex
	dirty  bool
}

func NewProfileStore(filename string) (*ProfileStore, error) {
	fileExists := true
	_, err := os.Stat(filename)
	if os.IsNotExist(err) {
		fileExists = false
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	store := &ProfileStore{
		file:  file,
		dirty: true,
	}

	if fileExists {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		store.dirty = false
	}

	return store, nil
}

func (s *ProfileStore) Close() error {
	return s.file.Close()
}

func (s *ProfileStore) load() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err := s.file.Seek(0, 0); err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	err := json.NewDecoder(s.file).Decode(&s.doc)
	if errors.Is(err, io.EOF) {
		// an existing but empty file holds no profiles
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	return nil
}

// Save writes the document back to disk when anything changed since the
// last flush.
func (s *ProfileStore) Save() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.dirty {
		return nil
	}

	if _, err := s.file.Seek(0, 0); err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}
	if err := s.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate file: %w", err)
	}

	enc := json.NewEncoder(s.file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	s.dirty = false

	return nil
}

// SaveLooper flushes on a timer until the context ends, then flushes one
// last time and closes the file. It backstops the eager saves so an
// unclean exit loses at most one interval of changes.
func (s *ProfileStore) SaveLooper(ctx context.Context) error {
	defer s.file.Close()

	for {
		select {
		case <-ctx.Done():
			if err := s.Save(); err != nil {
				return fmt.Errorf("save: %w", err)
			}
			return ctx.Err()
		case <-time.After(flushInterval):
			if err := s.Save(); err != nil {
				return fmt.Errorf("save: %w", err)
			}
		}
	}
}

func (s *ProfileStore) Profiles() []profile.Profile {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]profile.Profile(nil), s.doc.Profiles...)
}

func (s *ProfileStore) Add(p profile.Profile) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, stored := range s.doc.Profiles {
		if stored.Name == p.Name {
			return fmt.Errorf("profile %q already stored", p.Name)
		}
	}

	s.doc.Profiles = append(s.doc.Profiles, p)
	s.dirty = true
	return nil
}

func (s *ProfileStore) Remove(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for i, stored := range s.doc.Profiles {
		if stored.Name == name {
			s.doc.Profiles = append(s.doc.Profiles[:i], s.doc.Profiles[i+1:]...)
			s.dirty = true
			return nil
		}
	}
	return nil
}

// SeedLegacySettings hands the store settings imported from the old
// configuration format. They are kept in memory only; once migrated into
// real profiles they are cleared and never written back.
func (s *ProfileStore) SeedLegacySettings(settings []profile.Setting) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.legacy = append([]profile.Setting(nil), settings...)
}

func (s *ProfileStore) LegacySettings() []profile.Setting {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]profile.Setting(nil), s.legacy...)
}

func (s *ProfileStore) ClearLegacySettings() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.legacy = nil
}

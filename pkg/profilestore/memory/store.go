// Package memory holds profiles in process memory, mainly for tests and
// throwaway runs.
package memory

import (
	"fmt"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
)

type ProfileStore struct {
	profiles []profile.Profile
	legacy   []profile.Setting
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{}
}

func (s *ProfileStore) Profiles() []profile.Profile {
	return append([]profile.Profile(nil), s.profiles...)
}

func (s *ProfileStore) Add(p profile.Profile) error {
	for _, stored := range s.profiles {
		if stored.Name == p.Name {
			return fmt.Errorf("profile %q already stored", p.Name)
		}
	}
	s.profiles = append(s.profiles, p)
	return nil
}

func (s *ProfileStore) Remove(name string) error {
	for i, stored := range s.profiles {
		if stored.Name == name {
			s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
			return nil
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

func (s *ProfileStore) Save() error {
	return nil
}

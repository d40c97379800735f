// Package legacyconfig reads the XML settings file of the pre-rewrite
// application so stored profiles survive the upgrade. Parsed settings go
// through the regular validation before becoming real profiles.
package legacyconfig

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
)

func ParseSettings(path string) ([]profile.Setting, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var doc settingsDocument
	if err := xml.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}

	settings := make([]profile.Setting, 0, len(doc.Profiles))
	for _, entry := range doc.Profiles {
		settings = append(settings, entry.setting())
	}

	return settings, nil
}

func (e settingEntry) setting() profile.Setting {
	s := profile.Setting{
		Name:      e.Name,
		AppPath:   e.AppPath,
		Playback:  e.Playback.target(profile.FlowPlayback, profile.RoleMultimedia),
		Recording: e.Recording.target(profile.FlowRecording, profile.RoleCommunications),
	}

	// A combination the old format recorded but we cannot parse is
	// dropped here; the entry survives on its application path alone.
	if hk, err := profile.ParseHotKey(e.HotKey); err == nil {
		s.HotKey = &hk
	}

	return s
}

func (d *deviceEntry) target(flow profile.Flow, role profile.Role) *profile.DeviceTarget {
	if d == nil {
		return nil
	}
	return &profile.DeviceTarget{ID: d.ID, Name: d.Name, Flow: flow, Role: role}
}

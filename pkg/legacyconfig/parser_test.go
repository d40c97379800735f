package legacyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
)

const sampleSettings = `<?xml version="1.0" encoding="utf-8"?>
<SoundSwitchSettings>
  <Profiles>
    <Profile>
      <Name>Gaming</Name>
      <HotKey>Ctrl+Alt+G</HotKey>
      <AppPath>C:\games\game.exe</AppPath>
      <Playback>
        <Id>{0.0.0.00000000}.{a1b2}</Id>
        <Name>Speakers</Name>
      </Playback>
    </Profile>
    <Profile>
      <Name>Calls</Name>
      <HotKey>not a real combination</HotKey>
      <AppPath>C:\apps\phone.exe</AppPath>
      <Recording>
        <Name>Headset Mic</Name>
      </Recording>
    </Profile>
  </Profiles>
</SoundSwitchSettings>`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "SoundSwitchSettings.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseSettings(t *testing.T) {
	settings, err := ParseSettings(writeSample(t, sampleSettings))
	require.NoError(t, err)
	require.Len(t, settings, 2)

	gaming := settings[0]
	require.Equal(t, "Gaming", gaming.Name)
	require.NotNil(t, gaming.HotKey)
	require.Equal(t, "Ctrl+Alt+G", gaming.HotKey.String())
	require.Equal(t, `C:\games\game.exe`, gaming.AppPath)
	require.NotNil(t, gaming.Playback)
	require.Equal(t, "{0.0.0.00000000}.{a1b2}", gaming.Playback.ID)
	require.Equal(t, "Speakers", gaming.Playback.Name)
	require.Equal(t, profile.FlowPlayback, gaming.Playback.Flow)
	require.Nil(t, gaming.Recording)

	calls := settings[1]
	require.Equal(t, "Calls", calls.Name)
	require.Nil(t, calls.HotKey, "unparseable combination is dropped")
	require.Equal(t, `C:\apps\phone.exe`, calls.AppPath)
	require.Nil(t, calls.Playback)
	require.NotNil(t, calls.Recording)
	require.Equal(t, profile.FlowRecording, calls.Recording.Flow)
}

func TestParseSettingsMissingFile(t *testing.T) {
	_, err := ParseSettings(filepath.Join(t.TempDir(), "nope.xml"))
	require.Error(t, err)
}

func TestParseSettingsRejectsMalformedXML(t *testing.T) {
	_, err := ParseSettings(writeSample(t, "<SoundSwitchSettings><Profiles>"))
	require.Error(t, err)
}

package legacyconfig

import "encoding/xml"

type settingsDocument struct {
	XMLName  xml.Name       `xml:"SoundSwitchSettings"`
	Profiles []settingEntry `xml:"Profiles>Profile"`
}

type settingEntry struct {
	Name      string       `xml:"Name"`
	HotKey    string       `xml:"HotKey"`
	AppPath   string       `xml:"AppPath"`
	Playback  *deviceEntry `xml:"Playback"`
	Recording *deviceEntry `xml:"Recording"`
}

type deviceEntry struct {
	ID   string `xml:"Id"`
	Name string `xml:"Name"`
}

// Package pulseaudio adapts the routing engine to a PulseAudio or
// pipewire-pulse server: it lists endpoints, changes the defaults, and
// moves the streams of individual processes.
package pulseaudio

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
	"go.uber.org/zap"

	"github.com/westonhowe98/SoundSwitch/pkg/profile"
)

const processIDProperty = "application.process.id"

type Adapter struct {
	client *pulse.Client
	log    *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) (*Adapter, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("soundswitch"),
		pulse.ClientApplicationIconName("audio-volume-high"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}

	return &Adapter{client: client, log: log}, nil
}

func (a *Adapter) Close() {
	a.client.Close()
}

// PlaybackDevices lists the sinks whose active port is usable. Listing
// failures surface as an empty list; the engine treats the wanted device
// as absent and the log carries the cause.
func (a *Adapter) PlaybackDevices() []profile.Device {
	var reply pulseproto.GetSinkInfoListReply
	if err := a.client.RawRequest(&pulseproto.GetSinkInfoList{}, &reply); err != nil {
		a.log.Warnf("list sinks: %v", err)
		return nil
	}

	devices := make([]profile.Device, 0, len(reply))
	for _, sink := range reply {
		if sink == nil || !sinkUsable(sink) {
			continue
		}
		devices = append(devices, profile.Device{
			ID:   sink.SinkName,
			Name: sink.Device,
			Flow: profile.FlowPlayback,
		})
	}
	return devices
}

func (a *Adapter) RecordingDevices() []profile.Device {
	var reply pulseproto.GetSourceInfoListReply
	if err := a.client.RawRequest(&pulseproto.GetSourceInfoList{}, &reply); err != nil {
		a.log.Warnf("list sources: %v", err)
		return nil
	}

	devices := make([]profile.Device, 0, len(reply))
	for _, source := range reply {
		if source == nil || !sourceUsable(source) {
			continue
		}
		devices = append(devices, profile.Device{
			ID:   source.SourceName,
			Name: source.Device,
			Flow: profile.FlowRecording,
		})
	}
	return devices
}

// SwitchTo makes the device the server default for its flow. The role is
// accepted for interface compatibility; pulse has a single default per
// flow, not one per role.
func (a *Adapter) SwitchTo(deviceID string, flow profile.Flow, _ profile.Role) error {
	switch flow {
	case profile.FlowPlayback:
		if err := a.client.RawRequest(&pulseproto.SetDefaultSink{SinkName: deviceID}, nil); err != nil {
			return fmt.Errorf("set default sink %q: %w", deviceID, err)
		}
	case profile.FlowRecording:
		if err := a.client.RawRequest(&pulseproto.SetDefaultSource{SourceName: deviceID}, nil); err != nil {
			return fmt.Errorf("set default source %q: %w", deviceID, err)
		}
	}
	return nil
}

// SwitchProcessTo moves every stream owned by the process to the device.
// A process with no streams yet is not an error; its future streams
// follow the default device set separately.
func (a *Adapter) SwitchProcessTo(deviceID string, flow profile.Flow, _ profile.Role, pid int) error {
	switch flow {
	case profile.FlowPlayback:
		return a.moveSinkInputs(deviceID, pid)
	case profile.FlowRecording:
		return a.moveSourceOutputs(deviceID, pid)
	}
	return nil
}

func (a *Adapter) moveSinkInputs(deviceID string, pid int) error {
	var reply pulseproto.GetSinkInputInfoListReply
	if err := a.client.RawRequest(&pulseproto.GetSinkInputInfoList{}, &reply); err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	var merr *multierror.Error
	moved := 0
	for _, input := range reply {
		if input == nil || !matchesPID(input.Properties, pid) {
			continue
		}
		if err := a.client.RawRequest(&pulseproto.MoveSinkInput{
			SinkInputIndex: input.SinkInputIndex,
			DeviceIndex:    pulseproto.Undefined,
			DeviceName:     deviceID,
		}, nil); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("move sink input %d: %w", input.SinkInputIndex, err))
			continue
		}
		moved++
	}

	if moved > 0 {
		a.log.Debugf("moved %d playback stream(s) of pid %d to %q", moved, pid, deviceID)
	}
	return merr.ErrorOrNil()
}

func (a *Adapter) moveSourceOutputs(deviceID string, pid int) error {
	var reply pulseproto.GetSourceOutputInfoListReply
	if err := a.client.RawRequest(&pulseproto.GetSourceOutputInfoList{}, &reply); err != nil {
		return fmt.Errorf("list source outputs: %w", err)
	}

	var merr *multierror.Error
	moved := 0
	for _, output := range reply {
		if output == nil || !matchesPID(output.Properties, pid) {
			continue
		}
		if err := a.client.RawRequest(&pulseproto.MoveSourceOutput{
			SourceOutputIndex: output.SourceOutpuIndex,
			DeviceIndex:       pulseproto.Undefined,
			DeviceName:        deviceID,
		}, nil); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("move source output %d: %w", output.SourceOutpuIndex, err))
			continue
		}
		moved++
	}

	if moved > 0 {
		a.log.Debugf("moved %d recording stream(s) of pid %d to %q", moved, pid, deviceID)
	}
	return merr.ErrorOrNil()
}

// ResetProcessRouting sends every stream back to the current defaults,
// dropping whatever per-process routing earlier switches built up.
func (a *Adapter) ResetProcessRouting() error {
	sink, err := a.client.DefaultSink()
	if err != nil {
		return fmt.Errorf("read default sink: %w", err)
	}
	source, err := a.client.DefaultSource()
	if err != nil {
		return fmt.Errorf("read default source: %w", err)
	}

	var merr *multierror.Error

	var inputs pulseproto.GetSinkInputInfoListReply
	if err := a.client.RawRequest(&pulseproto.GetSinkInputInfoList{}, &inputs); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("list sink inputs: %w", err))
	} else {
		for _, input := range inputs {
			if input == nil {
				continue
			}
			if err := a.client.RawRequest(&pulseproto.MoveSinkInput{
				SinkInputIndex: input.SinkInputIndex,
				DeviceIndex:    pulseproto.Undefined,
				DeviceName:     sink.ID(),
			}, nil); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("move sink input %d: %w", input.SinkInputIndex, err))
			}
		}
	}

	var outputs pulseproto.GetSourceOutputInfoListReply
	if err := a.client.RawRequest(&pulseproto.GetSourceOutputInfoList{}, &outputs); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("list source outputs: %w", err))
	} else {
		for _, output := range outputs {
			if output == nil {
				continue
			}
			if err := a.client.RawRequest(&pulseproto.MoveSourceOutput{
				SourceOutputIndex: output.SourceOutpuIndex,
				DeviceIndex:       pulseproto.Undefined,
				DeviceName:        source.ID(),
			}, nil); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("move source output %d: %w", output.SourceOutpuIndex, err))
			}
		}
	}

	return merr.ErrorOrNil()
}

func matchesPID(props pulseproto.PropList, pid int) bool {
	entry, ok := props[processIDProperty]
	if !ok {
		return false
	}
	return entry.String() == strconv.Itoa(pid)
}

// sinkUsable mirrors the availability rule for sources below: no ports
// means always usable, otherwise the active port must not report
// availability "no". PulseAudio values: unknown=0, no=1, yes=2.
func sinkUsable(sink *pulseproto.GetSinkInfoReply) bool {
	if len(sink.Ports) == 0 {
		return true
	}
	for _, port := range sink.Ports {
		if port.Name != sink.ActivePortName {
			continue
		}
		return port.Available == 0 || port.Available == 2
	}
	return true
}

func sourceUsable(source *pulseproto.GetSourceInfoReply) bool {
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		return port.Available == 0 || port.Available == 2
	}
	return true
}

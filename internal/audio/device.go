// SPDX-License-Identifier: MIT
package audio

import (
	"time"

	"github.com/gordonklaus/portaudio"
)

// Device describes one PortAudio device.
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowLatency        time.Duration // Input latency if the device has inputs, else output.
	HighLatency       time.Duration
	DefaultInput      bool
	DefaultOutput     bool
}

// Type returns "Input", "Output" or "Input/Output".
func (d Device) Type() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return "None"
	}
}

// HostDevices returns all devices known to PortAudio. PortAudio must be
// initialized. Missing default devices are not an error.
func HostDevices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	defIn, _ := paDefaultInputFunc()
	defOut, _ := paDefaultOutputFunc()

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = toDevice(i, info)
		devices[i].DefaultInput = defIn != nil && info.Name == defIn.Name && sameHost(info, defIn)
		devices[i].DefaultOutput = defOut != nil && info.Name == defOut.Name && sameHost(info, defOut)
	}
	return devices, nil
}

func toDevice(id int, info *portaudio.DeviceInfo) Device {
	d := Device{
		ID:                id,
		Name:              info.Name,
		MaxInputChannels:  info.MaxInputChannels,
		MaxOutputChannels: info.MaxOutputChannels,
		DefaultSampleRate: info.DefaultSampleRate,
		LowLatency:        info.DefaultLowInputLatency,
		HighLatency:       info.DefaultHighInputLatency,
	}
	if info.MaxInputChannels == 0 {
		d.LowLatency = info.DefaultLowOutputLatency
		d.HighLatency = info.DefaultHighOutputLatency
	}
	if info.HostApi != nil {
		d.HostAPI = info.HostApi.Name
	}
	return d
}

func sameHost(a, b *portaudio.DeviceInfo) bool {
	return a.HostApi == b.HostApi
}

// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"

	"bass/internal/config"

	"github.com/gordonklaus/portaudio"
)

// PortAudio entry points, replaced in tests.
var (
	paDevicesFunc       = portaudio.Devices
	paDefaultInputFunc  = portaudio.DefaultInputDevice
	paDefaultOutputFunc = portaudio.DefaultOutputDevice
)

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// InputDevice returns the device for deviceID, or the system default input
// when deviceID is config.MinDeviceID. The device must have inputs.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	dev, err := resolveDevice(deviceID, paDefaultInputFunc)
	if err != nil {
		return nil, fmt.Errorf("input device: %w", err)
	}
	if dev.MaxInputChannels == 0 {
		return nil, fmt.Errorf("input device: '%s' has no input channels", dev.Name)
	}
	return dev, nil
}

// OutputDevice returns the device for deviceID, or the system default output
// when deviceID is config.MinDeviceID. The device must have outputs.
func OutputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	dev, err := resolveDevice(deviceID, paDefaultOutputFunc)
	if err != nil {
		return nil, fmt.Errorf("output device: %w", err)
	}
	if dev.MaxOutputChannels == 0 {
		return nil, fmt.Errorf("output device: '%s' has no output channels", dev.Name)
	}
	return dev, nil
}

func resolveDevice(deviceID int, defaultFunc func() (*portaudio.DeviceInfo, error)) (*portaudio.DeviceInfo, error) {
	if deviceID == config.MinDeviceID {
		return defaultFunc()
	}

	devices, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	return devices[deviceID], nil
}

// ListDevices writes a description of every device to w. PortAudio must be
// initialized.
func ListDevices(w io.Writer) error {
	devices, err := HostDevices()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nAvailable Audio Devices\n\n")
	for _, d := range devices {
		marker := ""
		if d.DefaultInput || d.DefaultOutput {
			marker = " *"
		}
		fmt.Fprintf(w, "[%d] %s (%s)%s\n", d.ID, d.Name, d.Type(), marker)
		fmt.Fprintf(w, "    Host API: %s\n", d.HostAPI)
		fmt.Fprintf(w, "    Input channels: %d, Output channels: %d\n", d.MaxInputChannels, d.MaxOutputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
		fmt.Fprintf(w, "    Latency: Low=%.2fms, High=%.2fms\n",
			d.LowLatency.Seconds()*1000, d.HighLatency.Seconds()*1000)
		fmt.Fprintln(w)
	}
	return nil
}

package audio_capture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device describes one input-capable audio device.
type Device struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// InputDevices lists the devices that can capture audio.
func InputDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initializing audio: %v", ErrDevice, err)
	}
	defer func() { _ = portaudio.Terminate() }()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: listing devices: %v", ErrDevice, err)
	}

	defaultDevice, _ := portaudio.DefaultInputDevice()

	var out []Device
	for _, device := range devices {
		if device.MaxInputChannels < 1 {
			continue
		}

		out = append(out, Device{
			Name:              device.Name,
			MaxInputChannels:  device.MaxInputChannels,
			DefaultSampleRate: device.DefaultSampleRate,
			Default:           defaultDevice != nil && device.Name == defaultDevice.Name,
		})
	}

	return out, nil
}

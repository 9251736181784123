package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

type portAudioHost struct{}

// PortAudio initializes the PortAudio library. It is the Opener used for
// real recordings; closing the returned Host terminates the library.
func PortAudio() (Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioHost{}, nil
}

func (h *portAudioHost) OpenInput(p StreamParams) (InputStream, error) {
	device, err := findInputDevice(p.Device)
	if err != nil {
		return nil, err
	}
	if device.MaxInputChannels < p.Channels {
		return nil, fmt.Errorf("device %s supports %d input channels, need %d", device.Name, device.MaxInputChannels, p.Channels)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: p.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(p.Rate),
		FramesPerBuffer: p.FramesPerBuffer,
	}

	// Interleaved buffer: one slot per sample of every channel
	n := p.FramesPerBuffer * p.Channels
	s := &portAudioStream{}
	var buffer interface{}
	switch p.Format {
	case Int16:
		s.buf16 = make([]int16, n)
		buffer = s.buf16
	case Int32:
		s.buf32 = make([]int32, n)
		buffer = s.buf32
	default:
		return nil, fmt.Errorf("unsupported sample format %q", p.Format)
	}

	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

func (h *portAudioHost) Close() error {
	return portaudio.Terminate()
}

type portAudioStream struct {
	stream *portaudio.Stream
	buf16  []int16
	buf32  []int32
}

func (s *portAudioStream) Read() ([]int, error) {
	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	// Copy out so the next read cannot clobber what the caller holds
	if s.buf16 != nil {
		out := make([]int, len(s.buf16))
		for i, v := range s.buf16 {
			out[i] = int(v)
		}
		return out, nil
	}
	out := make([]int, len(s.buf32))
	for i, v := range s.buf32 {
		out[i] = int(v)
	}
	return out, nil
}

func (s *portAudioStream) Close() error {
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		return fmt.Errorf("failed to stop audio stream: %w", err)
	}
	return s.stream.Close()
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", name)
}

// ListInputDevices returns every device able to capture audio.
func ListInputDevices() ([]AudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]AudioDevice, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultInputDevice()

	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, AudioDevice{
				ID:      d.Name,
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}

	return result, nil
}

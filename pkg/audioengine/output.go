package audioengine

import (
	"fmt"

	"github.com/drgolem/go-portaudio/portaudio"
)

// outputStream abstracts the OS audio output so the dispatch loop does
// not depend directly on the portaudio binding — useful for exercising
// command handling without a real audio device.
type outputStream interface {
	Start() error
	Stop() error
	Close() error
}

// portaudioStream opens a PortAudio callback stream emitting interleaved
// float32 samples. Float32 output format (portaudio.SampleFmtFloat32) is
// assumed available on this binding alongside its Int16/24/32 formats —
// see DESIGN.md.
type portaudioStream struct {
	stream *portaudio.PaStream
}

func openPortaudioStream(deviceIndex, channels int, sampleRate uint32, framesPerBuffer int, fill func(output []byte)) (*portaudioStream, bool, error) {
	params := &portaudio.PaStreamParameters{
		DeviceIndex:  deviceIndex,
		ChannelCount: channels,
		SampleFormat: portaudio.SampleFmtFloat32,
	}

	// Mirrors Play's sample-rate validation (spec.md §4.4): if the
	// device doesn't natively support this rate, still request it and
	// let the OS resample, but remember that bit-perfect is no longer
	// achievable at the DAC.
	resampled := !portaudio.IsFormatSupported(params, float64(sampleRate))

	stream := &portaudio.PaStream{
		OutputParameters: params,
		SampleRate:       float64(sampleRate),
	}

	cb := func(input, output []byte, frameCount uint,
		timeInfo *portaudio.StreamCallbackTimeInfo, statusFlags portaudio.StreamCallbackFlags) portaudio.StreamCallbackResult {
		fill(output)
		return portaudio.Continue
	}

	if err := stream.OpenCallback(framesPerBuffer, cb); err != nil {
		return nil, resampled, fmt.Errorf("open output stream: %w", err)
	}

	return &portaudioStream{stream: stream}, resampled, nil
}

func (s *portaudioStream) Start() error { return s.stream.StartStream() }
func (s *portaudioStream) Stop() error  { return s.stream.StopStream() }
func (s *portaudioStream) Close() error { return s.stream.CloseCallback() }

// ListOutputDevices enumerates output-capable devices for
// get_audio_devices.
func ListOutputDevices() ([]DeviceInfo, error) {
	count, err := portaudio.DeviceCount()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	defaultIdx, _ := portaudio.DefaultOutputDevice()

	devices := make([]DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		info, err := portaudio.GetDeviceInfo(i)
		if err != nil || info.MaxOutputChannels <= 0 {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:     i,
			Name:      info.Name,
			IsDefault: i == defaultIdx,
		})
	}
	return devices, nil
}

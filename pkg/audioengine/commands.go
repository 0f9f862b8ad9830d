package audioengine

import "github.com/drgolem/audiocore/pkg/replaygain"

// ReplayGainMode re-exports replaygain.Mode so callers don't need to
// import pkg/replaygain just to issue a SetReplayGainMode command.
type ReplayGainMode = replaygain.Mode

const (
	ReplayGainOff   = replaygain.Off
	ReplayGainTrack = replaygain.Track
	ReplayGainAlbum = replaygain.Album
)

type commandKind int

const (
	cmdPlay commandKind = iota
	cmdPause
	cmdResume
	cmdStop
	cmdSeek
	cmdSetVolume
	cmdSetReplayGainMode
	cmdSetClippingPrevention
	cmdSetEQBands
	cmdSetEQEnabled
	cmdShutdown
)

// command is the single sum type carried over the bounded command
// channel; only the fields relevant to Kind are populated.
type command struct {
	kind               commandKind
	path               string
	positionSecs       float64
	volume             float32
	replayGainMode     ReplayGainMode
	clippingPrevention bool
	eqGains            [10]float32
	eqEnabled          bool
}

// PlaybackState is a point-in-time snapshot for the host to poll. It is
// assembled from the atomic mirrors on every GetState call — no lock is
// held on the hot (audio) path to produce it.
type PlaybackState struct {
	IsPlaying    bool
	IsPaused     bool
	PositionSecs float64
	DurationSecs float64
	SampleRate   uint32
	BitDepth     uint8 // 0 when the decoder does not report one
	Channels     uint8
	CurrentFile  string
	// Resampled is true when the output device does not natively
	// support the file's sample rate and the OS is converting it.
	Resampled bool
}

// Diagnostics answers get_audio_diagnostics: a live view of the ring
// buffer and signal path for a latency/health UI.
type Diagnostics struct {
	BufferCapacity   uint64
	BufferFilled     uint64
	BufferFillPct    float32
	LatencyMs        float64
	DropoutCount     uint64
	OutputSampleRate uint32
	OutputChannels   uint8
	IsBitPerfect     bool
	// SharedMode is always true: the output binding uses the host's
	// shared-mode audio device, never exclusive mode.
	SharedMode bool
}

// DeviceInfo describes one enumerated output device. Index is the
// PortAudio device index to pass to NewEngine/NewEngineWithBuffer.
type DeviceInfo struct {
	Index     int
	Name      string
	IsDefault bool
}

// Package audioengine is the command-dispatch core: it owns the ring
// buffer, the decoder worker lifecycle, and the OS output stream, and
// exposes a small set of idempotent commands to a host (CLI, UI,
// whatever). Grounded on original_source/src-tauri/src/audio/engine.rs,
// re-expressed as a single dispatch goroutine reading a bounded command
// channel instead of a Rust thread reading a crossbeam channel.
package audioengine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drgolem/audiocore/pkg/decoders"
	"github.com/drgolem/audiocore/pkg/equalizer"
	"github.com/drgolem/audiocore/pkg/nulltest"
	"github.com/drgolem/audiocore/pkg/replaygain"
	"github.com/drgolem/audiocore/pkg/ringbuffer"
)

// ringBufferSize is 131072 samples, ~1.5s at 44.1kHz stereo, ~0.34s at
// 192kHz stereo — a balance between latency and underrun safety.
const ringBufferSize = 131072

// commandQueueCapacity bounds the command channel. The sender never
// blocks: a full queue means the host is issuing commands faster than
// the engine can apply them, and dropping the overflow is acceptable for
// UI-speed command traffic.
const commandQueueCapacity = 64

// defaultFramesPerBuffer is the OS output callback's chunk size.
const defaultFramesPerBuffer = 512

// Engine is the command-dispatch core described by spec.md §4.4. All
// host-visible operations are non-blocking sends into cmdCh; the
// dispatch goroutine applies them serially, so command effects are
// visible to the host in the order they were issued.
type Engine struct {
	cmdCh chan command

	deviceIndex     int
	framesPerBuffer int

	stateMu sync.Mutex
	state   PlaybackState

	positionMs  atomic.Uint64
	durationMs  atomic.Uint64
	isPlaying   atomic.Bool
	isPaused    atomic.Bool
	dropoutCnt  atomic.Uint64
	curSampleRt atomic.Uint32
	curChannels atomic.Uint32
	bitPerfect  atomic.Bool

	ring *ringbuffer.RingBuffer

	rgMu   sync.Mutex
	rg     *replaygain.State
	eqMu   sync.Mutex
	eq     *equalizer.Equalizer
	// eqGains/eqEnabled mirror the equalizer's last-set state across Play
	// commands: each Play rebuilds eq for the new file's sample rate, and
	// without this mirror that rebuild would silently reset the user's
	// band gains to flat.
	eqGains   [10]float32
	eqEnabled bool
	volume    *floatAtomic

	worker *decoderWorker
	stream outputStream
	output *outputState

	fadeReqPause  atomic.Bool
	fadeReqResume atomic.Bool
	fadeReqStop   atomic.Bool
}

// NewEngine starts the dispatch goroutine and returns immediately; it
// owns no audio device until the first Play command arrives.
func NewEngine(deviceIndex int) *Engine {
	return NewEngineWithBuffer(deviceIndex, defaultFramesPerBuffer)
}

// NewEngineWithBuffer is NewEngine with an explicit output callback chunk
// size, for hosts that need to trade latency against CPU headroom.
func NewEngineWithBuffer(deviceIndex, framesPerBuffer int) *Engine {
	e := &Engine{
		cmdCh:           make(chan command, commandQueueCapacity),
		deviceIndex:     deviceIndex,
		framesPerBuffer: framesPerBuffer,
		ring:            ringbuffer.New(ringBufferSize),
		rg:              replaygain.NewState(),
		eq:              equalizer.New(44100),
		volume:          newFloatAtomic(1.0),
	}
	e.bitPerfect.Store(true)

	go e.dispatchLoop()
	return e
}

func (e *Engine) send(cmd command) {
	select {
	case e.cmdCh <- cmd:
	default:
		slog.Warn("command queue full, dropping command")
	}
}

// Play starts decoding and playing path, tearing down any current
// playback first.
func (e *Engine) Play(path string) { e.send(command{kind: cmdPlay, path: path}) }

// Pause requests a fade-out and halts the decoder.
func (e *Engine) Pause() { e.send(command{kind: cmdPause}) }

// Resume requests a fade-in and restarts the decoder.
func (e *Engine) Resume() { e.send(command{kind: cmdResume}) }

// Stop requests a fade-out, then tears playback down entirely.
func (e *Engine) Stop() { e.send(command{kind: cmdStop}) }

// Seek requests a jump to positionSecs; the position mirror updates
// immediately, the decoder worker catches up on its next iteration.
func (e *Engine) Seek(positionSecs float64) {
	e.send(command{kind: cmdSeek, positionSecs: positionSecs})
}

// SetVolume clamps v to [0,1] and applies it to subsequent output.
func (e *Engine) SetVolume(v float32) { e.send(command{kind: cmdSetVolume, volume: v}) }

// SetReplayGainMode switches which tag pair ReplayGain reads from.
func (e *Engine) SetReplayGainMode(mode ReplayGainMode) {
	e.send(command{kind: cmdSetReplayGainMode, replayGainMode: mode})
}

// SetClippingPrevention toggles ReplayGain's peak-based gain clamp.
func (e *Engine) SetClippingPrevention(on bool) {
	e.send(command{kind: cmdSetClippingPrevention, clippingPrevention: on})
}

// SetEQBands sets all ten equalizer band gains (dB, clamped to [-12,12]).
func (e *Engine) SetEQBands(gains [10]float32) {
	e.send(command{kind: cmdSetEQBands, eqGains: gains})
}

// SetEQEnabled toggles whether the equalizer participates in the signal
// path at all.
func (e *Engine) SetEQEnabled(on bool) {
	e.send(command{kind: cmdSetEQEnabled, eqEnabled: on})
}

// Shutdown fades out, tears down playback, and terminates the dispatch
// goroutine. The Engine must not be used afterward.
func (e *Engine) Shutdown() { e.send(command{kind: cmdShutdown}) }

// GetState returns a point-in-time snapshot assembled from the atomic
// mirrors — safe to call from any goroutine, never blocks on the
// dispatch loop.
func (e *Engine) GetState() PlaybackState {
	e.stateMu.Lock()
	s := e.state
	e.stateMu.Unlock()

	s.PositionSecs = float64(e.positionMs.Load()) / 1000.0
	s.DurationSecs = float64(e.durationMs.Load()) / 1000.0
	s.IsPlaying = e.isPlaying.Load()
	s.IsPaused = e.isPaused.Load()
	return s
}

// GetPositionMs returns the current playback position in milliseconds.
func (e *Engine) GetPositionMs() uint64 { return e.positionMs.Load() }

// GetDiagnostics answers get_audio_diagnostics.
func (e *Engine) GetDiagnostics() Diagnostics {
	filled := e.ring.AvailableRead()
	capacity := e.ring.Capacity()
	sr := e.curSampleRt.Load()
	ch := e.curChannels.Load()
	if ch == 0 {
		ch = 1
	}

	latencyMs := 0.0
	if sr > 0 {
		latencyMs = (float64(filled) / float64(ch)) / float64(sr) * 1000.0
	}

	return Diagnostics{
		BufferCapacity:   capacity,
		BufferFilled:     filled,
		BufferFillPct:    float32(filled) / float32(capacity) * 100.0,
		LatencyMs:        latencyMs,
		DropoutCount:     e.dropoutCnt.Load(),
		OutputSampleRate: sr,
		OutputChannels:   uint8(ch),
		IsBitPerfect:     e.bitPerfect.Load(),
		SharedMode:       true,
	}
}

// GetDevices answers get_audio_devices.
func (e *Engine) GetDevices() ([]DeviceInfo, error) { return ListOutputDevices() }

// RunNullTest answers run_null_test: an independent offline decode
// determinism check, unrelated to the live playback path.
func (e *Engine) RunNullTest(path string) (nulltest.Result, error) { return nulltest.Run(path) }

// dispatchLoop is the engine thread: it owns everything except the
// output callback's private fade state.
func (e *Engine) dispatchLoop() {
	for {
		select {
		case cmd := <-e.cmdCh:
			if !e.handle(cmd) {
				return
			}
		case <-time.After(16 * time.Millisecond):
			e.detectEndOfStream()
		}
	}
}

// detectEndOfStream implements spec.md §4.4's auto-detect: fires on each
// command-receive timeout.
func (e *Engine) detectEndOfStream() {
	if e.worker != nil && !e.worker.isRunning() && e.isPlaying.Load() && e.ring.AvailableRead() == 0 {
		e.isPlaying.Store(false)
		e.isPaused.Store(false)
		e.teardownStream()
		e.stateMu.Lock()
		e.state.IsPlaying = false
		e.state.IsPaused = false
		e.stateMu.Unlock()
	}
}

func (e *Engine) handle(cmd command) bool {
	switch cmd.kind {
	case cmdPlay:
		e.handlePlay(cmd.path)
	case cmdPause:
		e.handlePause()
	case cmdResume:
		e.handleResume()
	case cmdStop:
		e.handleStop()
	case cmdSeek:
		ms := int64(cmd.positionSecs * 1000.0)
		if e.worker != nil {
			e.worker.requestSeek(ms)
		}
		e.positionMs.Store(uint64(ms))
	case cmdSetVolume:
		v := cmd.volume
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		e.volume.Store(v)
		e.updateBitPerfect()
	case cmdSetReplayGainMode:
		e.rgMu.Lock()
		e.rg.SetMode(cmd.replayGainMode)
		e.rgMu.Unlock()
		e.updateBitPerfect()
	case cmdSetClippingPrevention:
		e.rgMu.Lock()
		e.rg.SetClippingPrevention(cmd.clippingPrevention)
		e.rgMu.Unlock()
		e.updateBitPerfect()
	case cmdSetEQBands:
		e.eqMu.Lock()
		e.eq.SetBands(cmd.eqGains)
		e.eqMu.Unlock()
		e.eqGains = cmd.eqGains
		e.updateBitPerfect()
	case cmdSetEQEnabled:
		e.eqMu.Lock()
		e.eq.SetEnabled(cmd.eqEnabled)
		e.eqMu.Unlock()
		e.eqEnabled = cmd.eqEnabled
		e.updateBitPerfect()
	case cmdShutdown:
		e.fadeReqStop.Store(true)
		time.Sleep(15 * time.Millisecond)
		e.teardownStream()
		return false
	}
	return true
}

func (e *Engine) handlePlay(path string) {
	e.teardownStream()
	time.Sleep(50 * time.Millisecond) // let the callback quiesce

	decoder, err := decoders.NewDecoder(path)
	if err != nil {
		slog.Error("failed to open file", "path", path, "error", err)
		e.isPlaying.Store(false)
		e.isPaused.Store(false)
		e.stateMu.Lock()
		e.state = PlaybackState{}
		e.stateMu.Unlock()
		return
	}

	spec := decoder.Format()
	dur := decoder.DurationSecs()

	e.rgMu.Lock()
	e.rg.LoadFromFile(path)
	e.rgMu.Unlock()

	e.eqMu.Lock()
	e.eq = equalizer.New(spec.SampleRate)
	e.eq.SetBands(e.eqGains)
	e.eq.SetEnabled(e.eqEnabled)
	e.eqMu.Unlock()

	e.stateMu.Lock()
	e.state = PlaybackState{
		IsPlaying:    true,
		IsPaused:     false,
		DurationSecs: dur,
		SampleRate:   spec.SampleRate,
		BitDepth:     spec.BitDepth,
		Channels:     spec.Channels,
		CurrentFile:  path,
	}
	e.stateMu.Unlock()

	e.isPlaying.Store(true)
	e.isPaused.Store(false)
	e.durationMs.Store(uint64(dur * 1000.0))
	e.positionMs.Store(0)
	e.curSampleRt.Store(spec.SampleRate)
	e.curChannels.Store(uint32(spec.Channels))
	e.dropoutCnt.Store(0)

	e.updateBitPerfect()

	e.ring.Clear()
	e.fadeReqPause.Store(false)
	e.fadeReqResume.Store(false)
	e.fadeReqStop.Store(false)

	e.worker = newDecoderWorker(decoder, e.ring, spec, &e.rgMu, e.rg, &e.eqMu, e.eq)
	go e.worker.run()

	e.output = newOutputState(e.ring, e.volume, &e.bitPerfect, &e.dropoutCnt,
		&e.fadeReqPause, &e.fadeReqResume, &e.fadeReqStop, int(spec.Channels), e.framesPerBuffer)
	fill := func(output []byte) { e.output.fill(output) }

	stream, resampled, err := openPortaudioStream(e.deviceIndex, int(spec.Channels), spec.SampleRate, e.framesPerBuffer, fill)
	if err != nil {
		slog.Error("failed to build output stream", "error", err)
		return
	}
	if resampled {
		e.stateMu.Lock()
		e.state.Resampled = true
		e.stateMu.Unlock()
		e.bitPerfect.Store(false)
	}
	if err := stream.Start(); err != nil {
		slog.Error("failed to start output stream", "error", err)
		return
	}
	e.stream = stream
}

func (e *Engine) handlePause() {
	e.fadeReqPause.Store(true)
	if e.worker != nil {
		e.worker.setPaused(true)
	}
	e.isPaused.Store(true)
	e.isPlaying.Store(false)
	e.stateMu.Lock()
	e.state.IsPaused = true
	e.state.IsPlaying = false
	e.stateMu.Unlock()
}

func (e *Engine) handleResume() {
	if e.worker != nil {
		e.worker.setPaused(false)
	}
	e.fadeReqResume.Store(true)
	e.isPaused.Store(false)
	e.isPlaying.Store(true)
	e.stateMu.Lock()
	e.state.IsPaused = false
	e.state.IsPlaying = true
	e.stateMu.Unlock()
}

func (e *Engine) handleStop() {
	e.fadeReqStop.Store(true)
	sr := e.curSampleRt.Load()
	if sr == 0 {
		sr = 1
	}
	time.Sleep(time.Duration(fadeRampSamples*1000/int(sr)+5) * time.Millisecond)
	e.teardownStream()
	e.ring.Clear()
	e.isPlaying.Store(false)
	e.isPaused.Store(false)
	e.positionMs.Store(0)
	e.stateMu.Lock()
	e.state = PlaybackState{}
	e.stateMu.Unlock()
}

func (e *Engine) teardownStream() {
	if e.worker != nil {
		e.worker.stop()
		e.worker = nil
	}
	if e.stream != nil {
		if err := e.stream.Stop(); err != nil {
			slog.Warn("failed to stop output stream", "error", err)
		}
		if err := e.stream.Close(); err != nil {
			slog.Warn("failed to close output stream", "error", err)
		}
		e.stream = nil
	}
}

// updateBitPerfect recomputes whether the signal path is currently
// bit-perfect: volume exactly 1.0, ReplayGain off, and the equalizer
// either disabled or flat (all-zero gains).
func (e *Engine) updateBitPerfect() {
	vol := e.volume.Load()

	e.rgMu.Lock()
	rgOff := e.rg.Mode() == replaygain.Off
	e.rgMu.Unlock()

	e.eqMu.Lock()
	eqFlat := !e.eq.Enabled() || e.eq.IsFlat()
	e.eqMu.Unlock()

	diff := vol - 1.0
	if diff < 0 {
		diff = -diff
	}
	bp := diff < bitPerfectEpsilon && rgOff && eqFlat
	e.bitPerfect.Store(bp)
}

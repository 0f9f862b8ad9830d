// Package fileplayer drives a playlist — a sequence of files played one
// after another — over a single shared audioengine.Engine. It owns no
// decoding or output-device state itself; that all lives in the engine.
// This mirrors the original FilePlayer's producer/consumer role, just
// re-pointed at the engine instead of owning a PortAudio stream directly.
package fileplayer

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/drgolem/audiocore/pkg/audioengine"
)

// pollInterval is how often the playlist driver checks whether the
// current file has finished, since the engine exposes no "done" channel
// — only a polled PlaybackState (spec.md's GetState/get_state).
const pollInterval = 100 * time.Millisecond

// Playlist plays a fixed list of files sequentially on one Engine,
// advancing to the next file once the engine reports the current one has
// stopped playing on its own (end of stream), as opposed to having been
// stopped externally.
type Playlist struct {
	engine *audioengine.Engine
	files  []string
}

// NewPlaylist returns a Playlist that will play files, in order, on
// engine. The engine must already be constructed (NewEngine); Playlist
// never owns its lifecycle.
func NewPlaylist(engine *audioengine.Engine, files []string) *Playlist {
	return &Playlist{engine: engine, files: files}
}

// Run plays every file in order, returning when the playlist finishes or
// ctx is cancelled. A per-file decode failure is logged and skipped
// rather than aborting the whole playlist.
func (p *Playlist) Run(ctx context.Context) error {
	for i, file := range p.files {
		select {
		case <-ctx.Done():
			p.engine.Stop()
			return ctx.Err()
		default:
		}

		slog.Info("playing file", "index", i+1, "total", len(p.files), "file", filepath.Base(file))
		p.engine.Play(file)

		if err := p.waitForFileEnd(ctx); err != nil {
			p.engine.Stop()
			return err
		}
	}
	return nil
}

// waitForFileEnd blocks until the engine's playback state shows the
// current file finished on its own, or ctx is cancelled.
func (p *Playlist) waitForFileEnd(ctx context.Context) error {
	// Give the engine a moment to apply the Play command before polling;
	// otherwise the first poll can race the dispatch goroutine and see
	// stale (not-yet-playing) state.
	time.Sleep(50 * time.Millisecond)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	sawPlaying := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			state := p.engine.GetState()
			if state.IsPlaying {
				sawPlaying = true
				continue
			}
			if sawPlaying || state.CurrentFile == "" {
				return nil
			}
		}
	}
}

// Status is a point-in-time snapshot for a playlist monitor, assembled
// from the engine's own PlaybackState and Diagnostics.
type Status struct {
	audioengine.PlaybackState
	Diagnostics audioengine.Diagnostics
}

// GetPlaybackStatus implements a monitor interface for the CLI's status
// ticker.
func (p *Playlist) GetPlaybackStatus() Status {
	return Status{
		PlaybackState: p.engine.GetState(),
		Diagnostics:   p.engine.GetDiagnostics(),
	}
}

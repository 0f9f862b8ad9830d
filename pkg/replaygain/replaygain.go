// Package replaygain implements metadata-driven loudness normalisation:
// reading ReplayGain/R128 tags from a file and turning them into the linear
// gain the decoder worker multiplies samples by. When mode is Off, or no
// tag is found, gain is exactly 1.0 and apply is a no-op — the condition
// that keeps the signal path bit-perfect.
package replaygain

import (
	"math"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"
)

// Mode selects which tag pair recalculateGain reads from.
type Mode int

const (
	Off Mode = iota
	Track
	Album
)

// Info holds the raw tag values read from a file, any of which may be
// absent.
type Info struct {
	TrackGainDB *float32
	TrackPeak   *float32
	AlbumGainDB *float32
	AlbumPeak   *float32
}

// State is the per-track ReplayGain configuration and derived gain. It is
// owned by the decoder worker; the engine mutates Mode/ClippingPrevention
// through SetMode/SetClippingPrevention in response to host commands.
type State struct {
	mode                Mode
	clippingPrevention  bool
	info                Info
	gainLinear          float32
}

// NewState returns a State with clipping prevention on and gain at unity,
// matching the default in the original engine.
func NewState() *State {
	return &State{
		clippingPrevention: true,
		gainLinear:         1.0,
	}
}

func (s *State) Mode() Mode { return s.mode }

// SetMode changes the active mode and recomputes gainLinear.
func (s *State) SetMode(m Mode) {
	s.mode = m
	s.recalculateGain()
}

// SetClippingPrevention toggles the peak-based gain clamp and recomputes
// gainLinear.
func (s *State) SetClippingPrevention(on bool) {
	s.clippingPrevention = on
	s.recalculateGain()
}

// GainLinear returns the currently cached linear gain.
func (s *State) GainLinear() float32 { return s.gainLinear }

// Info returns the tag values last loaded from a file.
func (s *State) Info() Info { return s.info }

// LoadFromFile reads ReplayGain tags from path and recomputes gainLinear.
// A read failure (unsupported container, missing tags) is not fatal: info
// is simply left at its zero value, which recalculateGain treats as "no
// gain tag found" — i.e. passthrough.
func (s *State) LoadFromFile(path string) {
	s.info = readReplayGainTags(path)
	s.recalculateGain()
}

func (s *State) recalculateGain() {
	if s.mode == Off {
		s.gainLinear = 1.0
		return
	}

	var gainDB *float32
	switch s.mode {
	case Track:
		gainDB = s.info.TrackGainDB
	case Album:
		gainDB = s.info.AlbumGainDB
		if gainDB == nil {
			gainDB = s.info.TrackGainDB
		}
	}

	if gainDB == nil {
		s.gainLinear = 1.0
		return
	}

	gain := dbToLinear(*gainDB)

	if s.clippingPrevention {
		var peak *float32
		switch s.mode {
		case Track:
			peak = s.info.TrackPeak
		case Album:
			peak = s.info.AlbumPeak
			if peak == nil {
				peak = s.info.TrackPeak
			}
		}

		if peak != nil && *peak > 0 {
			maxGain := 1.0 / *peak
			if gain > maxGain {
				gain = maxGain
			}
		}
	}

	s.gainLinear = gain
}

// Apply multiplies samples in place by gainLinear. The fast path — when
// gain is within float32 epsilon of 1.0 — leaves the buffer untouched,
// which is what preserves bit-perfect output when ReplayGain is Off or no
// tag was found.
func (s *State) Apply(samples []float32) {
	g := s.gainLinear
	if float32(math.Abs(float64(g-1.0))) < epsilon {
		return
	}
	for i := range samples {
		samples[i] *= g
	}
}

const epsilon = 1.1920929e-7 // float32 machine epsilon, matching Rust's f32::EPSILON

func dbToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// trackGainKeys and friends list the accepted spellings for each
// tag, matching spec.md §4.3: case-insensitive lookup against whatever the
// tag library returns, plus the R128 variants.
var (
	trackGainKeys = []string{"REPLAYGAIN_TRACK_GAIN", "R128_TRACK_GAIN"}
	trackPeakKeys = []string{"REPLAYGAIN_TRACK_PEAK"}
	albumGainKeys = []string{"REPLAYGAIN_ALBUM_GAIN", "R128_ALBUM_GAIN"}
	albumPeakKeys = []string{"REPLAYGAIN_ALBUM_PEAK"}
)

func readReplayGainTags(path string) Info {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return Info{}
	}

	normalized := make(map[string]string, len(tags))
	for k, v := range tags {
		if len(v) == 0 {
			continue
		}
		normalized[strings.ToUpper(k)] = v[0]
	}

	return Info{
		TrackGainDB: parseGain(findKey(normalized, trackGainKeys)),
		TrackPeak:   parsePeak(findKey(normalized, trackPeakKeys)),
		AlbumGainDB: parseGain(findKey(normalized, albumGainKeys)),
		AlbumPeak:   parsePeak(findKey(normalized, albumPeakKeys)),
	}
}

func findKey(tags map[string]string, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := tags[strings.ToUpper(k)]; ok {
			return v, true
		}
	}
	return "", false
}

// parseGain parses a value like "-7.5 dB" into -7.5.
func parseGain(raw string, ok bool) *float32 {
	if !ok {
		return nil
	}
	v := strings.TrimSpace(raw)
	v = strings.TrimSuffix(v, "dB")
	v = strings.TrimSuffix(v, "db")
	v = strings.TrimSuffix(v, "DB")
	v = strings.TrimSpace(v)
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return nil
	}
	r := float32(f)
	return &r
}

// parsePeak parses a bare float like "0.988".
func parsePeak(raw string, ok bool) *float32 {
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
	if err != nil {
		return nil
	}
	r := float32(f)
	return &r
}

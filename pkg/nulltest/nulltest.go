// Package nulltest implements the bit-perfect verification tool: decode a
// file twice independently through the decoder factory and compare every
// sample. Any difference means the decode path is non-deterministic,
// which would poison the engine's bit-perfect guarantee before playback
// is even exercised.
package nulltest

import (
	"fmt"
	"math"

	"github.com/drgolem/audiocore/pkg/decoders"
	"github.com/drgolem/audiocore/pkg/types"
)

// Result is the report handed back to the host over the run_null_test
// command.
type Result struct {
	Passed       bool
	TotalSamples uint64
	DiffSamples  uint64
	MaxDiff      float64
	RMSDiff      float64
	Summary      string
}

// Run decodes path twice independently and compares the two sample
// sequences. Passes iff both decodes produce the same length and every
// sample pair is exactly equal.
func Run(path string) (Result, error) {
	samplesA, err := decodeAll(path)
	if err != nil {
		return Result{}, fmt.Errorf("decode pass 1 failed: %w", err)
	}

	samplesB, err := decodeAll(path)
	if err != nil {
		return Result{}, fmt.Errorf("decode pass 2 failed: %w", err)
	}

	length := len(samplesA)
	if len(samplesB) < length {
		length = len(samplesB)
	}

	var diffCount uint64
	var maxDiff, sumSq float64

	for i := 0; i < length; i++ {
		diff := float64(samplesA[i]) - float64(samplesB[i])
		if diff != 0 {
			diffCount++
			abs := math.Abs(diff)
			if abs > maxDiff {
				maxDiff = abs
			}
			sumSq += diff * diff
		}
	}

	if len(samplesA) != len(samplesB) {
		delta := len(samplesA) - len(samplesB)
		if delta < 0 {
			delta = -delta
		}
		diffCount += uint64(delta)
	}

	rmsDiff := 0.0
	if length > 0 {
		rmsDiff = math.Sqrt(sumSq / float64(length))
	}

	passed := diffCount == 0 && len(samplesA) == len(samplesB)

	var summary string
	if passed {
		summary = fmt.Sprintf("BIT-PERFECT: %d samples decoded twice with zero differences.", length)
	} else {
		summary = fmt.Sprintf("DIFFERENCES FOUND: %d/%d samples differ. Max diff: %.2e, RMS: %.2e",
			diffCount, length, maxDiff, rmsDiff)
	}

	return Result{
		Passed:       passed,
		TotalSamples: uint64(length),
		DiffSamples:  diffCount,
		MaxDiff:      maxDiff,
		RMSDiff:      rmsDiff,
		Summary:      summary,
	}, nil
}

func decodeAll(path string) ([]float32, error) {
	dec, err := decoders.NewDecoder(path)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []float32
	for {
		chunk, err := dec.NextSamples()
		if err == types.ErrEndOfStream {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

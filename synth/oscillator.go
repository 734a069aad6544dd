package synth

import (
	"math"

	"github.com/vibetracker/vibetracker"
)

// oscillator is a phase accumulator in [0, 1) cycles. The phase advances by
// frequency/samplerate per sample and wraps by subtracting exactly one
// cycle, so the waveform value is continuous across the wrap; that is what
// keeps looped notes click-free.
type oscillator struct {
	phase float64
}

func (o *oscillator) next(freq float64) float64 {
	phase := o.phase
	o.phase += freq / vibetracker.SampleRate
	if o.phase >= 1 {
		o.phase -= 1
	}
	return phase
}

// amplitude returns the waveform value at the given phase, always within
// [-1, 1]. Noise is handled separately as it has no phase.
func amplitude(wave vibetracker.Waveform, phase float64) float32 {
	switch wave {
	case vibetracker.Sine:
		return float32(math.Sin(2 * math.Pi * phase))
	case vibetracker.Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case vibetracker.Sawtooth:
		return float32(2 * (phase - math.Floor(0.5+phase)))
	case vibetracker.Triangle:
		saw := 2 * (phase - math.Floor(0.5+phase))
		return float32(2*math.Abs(saw) - 1)
	}
	return 0
}

// noiseSource is a small linear congruential generator, so noise rendering
// is deterministic for a given seed.
type noiseSource struct {
	seed uint32
}

func (n *noiseSource) next() float32 {
	n.seed *= 16007
	return float32(int32(n.seed)) / -2147483648.0
}

package synth

import "github.com/vibetracker/vibetracker"

// effect processes one track's mono mix in place. Effects are stateful, so
// one instance serves one track only.
type effect interface {
	process(buf []float32)
}

// newChain instantiates the runtime effects for one instrument's chain,
// skipping disabled entries. Unknown types are skipped too; Validate rejects
// them before a composition reaches the synthesizer.
func newChain(cfgs []vibetracker.Effect) []effect {
	var chain []effect
	for _, cfg := range cfgs {
		if cfg.Disabled {
			continue
		}
		if cfg.Type == vibetracker.EffectReverb {
			chain = append(chain, newReverb(cfg))
		}
	}
	return chain
}

// Classic Schroeder delay times, in samples at 44.1 kHz. The mutually prime
// lengths keep the comb filters from reinforcing a single resonance.
var reverbDelays = [8]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}

const (
	defaultRoomSize = 0.5
	defaultDamping  = 0.5
	defaultWetLevel = 0.3
	defaultDryLevel = 0.7
)

type (
	// delayLine is one feedback comb of the reverb: a circular buffer with a
	// one-pole lowpass in the feedback path so high frequencies decay faster.
	delayLine struct {
		buf     []float32
		pos     int
		lowpass float32
		gain    float32
	}

	reverb struct {
		lines    [len(reverbDelays)]delayLine
		feedback float32
		damping  float32
		wet      float32
		dry      float32
	}
)

func newReverb(cfg vibetracker.Effect) *reverb {
	roomSize := paramOrDefault(cfg.RoomSize, defaultRoomSize)
	damping := paramOrDefault(cfg.Damping, defaultDamping)
	wet := paramOrDefault(cfg.WetLevel, defaultWetLevel)
	dry := paramOrDefault(cfg.DryLevel, defaultDryLevel)
	feedback := 0.7 + roomSize*0.2
	if feedback > 0.8 {
		feedback = 0.8
	} else if feedback < -0.8 {
		feedback = -0.8
	}
	r := &reverb{
		feedback: float32(feedback),
		damping:  float32(damping * 0.5),
		wet:      float32(wet),
		dry:      float32(dry),
	}
	roomScale := 0.5 + roomSize*0.5
	for j, d := range reverbDelays {
		r.lines[j] = delayLine{
			buf:  make([]float32, int(float64(d)*roomScale)),
			gain: float32(0.125 + float64(j)*0.01),
		}
	}
	return r
}

func paramOrDefault(value, def float64) float64 {
	if value == 0 {
		return def
	}
	return value
}

func (r *reverb) process(buf []float32) {
	for i, sample := range buf {
		var sum float32
		for j := range r.lines {
			l := &r.lines[j]
			delayed := l.buf[l.pos]
			l.lowpass = delayed*(1-r.damping) + l.lowpass*r.damping
			l.buf[l.pos] = sample + l.lowpass*r.feedback
			l.pos++
			if l.pos == len(l.buf) {
				l.pos = 0
			}
			sum += delayed * l.gain
		}
		out := r.dry*sample + r.wet*sum*0.7
		if out > 0.95 {
			out = 0.95
		} else if out < -0.95 {
			out = -0.95
		}
		buf[i] = out
	}
}

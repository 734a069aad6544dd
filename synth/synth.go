// Package synth renders voices: one sounding note instance each, with its
// own oscillator phase and envelope progress. The voice pool is a fixed
// arena so the real-time render path never allocates; when the arena is
// full, new triggers are dropped rather than blocking or stealing a
// sounding voice.
package synth

import (
	"github.com/viterin/vek/vek32"

	"github.com/vibetracker/vibetracker"
)

// MaxVoices is the size of the voice arena, shared by all tracks.
const MaxVoices = 128

type (
	// Voice is the transient runtime state of one currently-sounding note.
	// The instrument parameters are captured by value at trigger time, so a
	// published edit never alters a note that is already sounding.
	Voice struct {
		on        bool
		id        int // external identity, for Release; 0 for sequenced notes
		track     int // mixing lane; -1 mixes at unity gain (live input)
		wave      vibetracker.Waveform
		frequency float64
		velocity  float32
		sustain   int // samples until release; -1 = held until Release
		osc       oscillator
		env       envelope
	}

	// Synth owns the voice arena and the mixing scratch buffers. It is not
	// safe for concurrent use; all calls are expected to come from the audio
	// path, one block at a time.
	Synth struct {
		voices  [MaxVoices]Voice
		noise   noiseSource
		effects [][]effect // per-track chain, indexed like Render's levels
		scratch []float32  // one track's voices, before gain
		master  []float32  // mono mix of all tracks
	}
)

func NewSynth() *Synth {
	return &Synth{noise: noiseSource{seed: 1}}
}

// Trigger starts a new voice. sustain is the number of samples after which
// the voice moves to its release stage on its own; -1 keeps it sounding
// until Release(id). Returns false if the voice pool was exhausted and the
// trigger was dropped.
func (s *Synth) Trigger(id, track int, instr vibetracker.Instrument, frequency, velocity float64, sustain int) bool {
	for i := range s.voices {
		if s.voices[i].on {
			continue
		}
		v := &s.voices[i]
		*v = Voice{
			on:        true,
			id:        id,
			track:     track,
			wave:      instr.Waveform,
			frequency: frequency,
			velocity:  float32(velocity),
			sustain:   sustain,
		}
		v.env.trigger(instr.Envelope)
		return true
	}
	return false
}

// Release moves every held voice with the given id to its release stage.
func (s *Synth) Release(id int) {
	for i := range s.voices {
		if s.voices[i].on && s.voices[i].id == id {
			s.voices[i].env.release()
			s.voices[i].sustain = -1
		}
	}
}

// ReleaseAll moves every voice to its release stage; used when playback is
// paused so notes fade out instead of sticking.
func (s *Synth) ReleaseAll() {
	for i := range s.voices {
		if s.voices[i].on {
			s.voices[i].env.release()
		}
	}
}

// CutAll silences every voice immediately, with no fade-out guarantee.
func (s *Synth) CutAll() {
	for i := range s.voices {
		s.voices[i].on = false
		s.voices[i].env = envelope{}
	}
}

// SetTrackEffects rebuilds the effect chain applied to the given track's
// mix. Rebuilding discards the old chain's state, so callers that survive
// an edit should only call this for tracks whose chain actually changed.
func (s *Synth) SetTrackEffects(track int, cfgs []vibetracker.Effect) {
	for len(s.effects) <= track {
		s.effects = append(s.effects, nil)
	}
	s.effects[track] = newChain(cfgs)
}

// ActiveVoices returns the number of currently sounding voices.
func (s *Synth) ActiveVoices() int {
	n := 0
	for i := range s.voices {
		if s.voices[i].on {
			n++
		}
	}
	return n
}

// Render advances all voices by len(buf) samples and mixes them into buf.
// levels holds the effective per-track gain (zero for muted or non-solo
// tracks); voices referencing a track beyond len(levels) are cut, as their
// track was removed by an edit. Each track's mix runs through the effect
// chain set for it before the gain is applied; live voices (track -1) mix
// at unity with no effects. The mono mix is hard-clamped to [-1, 1] and
// written to both output channels.
func (s *Synth) Render(buf vibetracker.AudioBuffer, levels []float32) {
	n := len(buf)
	if len(s.scratch) < n {
		s.scratch = make([]float32, n)
		s.master = make([]float32, n)
	}
	master := s.master[:n]
	for i := range master {
		master[i] = 0
	}
	for i := range s.voices {
		if v := &s.voices[i]; v.on && v.track >= len(levels) {
			v.on = false
		}
	}
	for track := range levels {
		var chain []effect
		if track < len(s.effects) {
			chain = s.effects[track]
		}
		scratch := s.scratch[:n]
		for i := range scratch {
			scratch[i] = 0
		}
		any := false
		for i := range s.voices {
			if v := &s.voices[i]; v.on && v.track == track {
				v.render(scratch, &s.noise)
				any = true
			}
		}
		// the chain runs even when no voice is sounding, so a reverb tail
		// keeps ringing after the last note ends
		for _, e := range chain {
			e.process(scratch)
		}
		// a muted track's voices and effects still advanced above; they
		// just mix at zero
		if (!any && len(chain) == 0) || levels[track] == 0 {
			continue
		}
		vek32.MulNumber_Inplace(scratch, levels[track])
		vek32.Add_Inplace(master, scratch)
	}
	for i := range s.voices {
		if v := &s.voices[i]; v.on && v.track < 0 {
			v.render(master, &s.noise)
		}
	}
	for i, m := range master {
		buf[i][0] = clip(m)
		buf[i][1] = clip(m)
	}
}

// render adds the voice's next samples into out, advancing the oscillator
// and envelope, releasing when the sustain countdown runs out and turning
// the voice off once the release stage completes.
func (v *Voice) render(out []float32, noise *noiseSource) {
	for i := range out {
		if v.sustain > 0 {
			v.sustain--
			if v.sustain == 0 {
				v.env.release()
			}
		}
		amp := v.env.next()
		if v.env.done() {
			v.on = false
			return
		}
		var sample float32
		if v.wave == vibetracker.Noise {
			sample = noise.next()
		} else {
			sample = amplitude(v.wave, v.osc.next(v.frequency))
		}
		out[i] += sample * amp * v.velocity
	}
}

func clip(value float32) float32 {
	if value < -1 {
		return -1
	}
	if value > 1 {
		return 1
	}
	return value
}

package vibetracker

import (
	"errors"
	"fmt"
)

// Waveform selects the oscillator shape of an instrument. Each waveform is a
// pure function of phase returning an amplitude in [-1, 1].
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
	Noise
)

var waveformNames = [...]string{"sine", "square", "sawtooth", "triangle", "noise"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// MarshalText makes waveforms serialize as their names in YAML and JSON.
func (w Waveform) MarshalText() ([]byte, error) {
	if w < 0 || int(w) >= len(waveformNames) {
		return nil, fmt.Errorf("unknown waveform %d", int(w))
	}
	return []byte(waveformNames[w]), nil
}

func (w *Waveform) UnmarshalText(text []byte) error {
	for i, name := range waveformNames {
		if string(text) == name {
			*w = Waveform(i)
			return nil
		}
	}
	return fmt.Errorf("unknown waveform %q", text)
}

// MarshalYAML and UnmarshalYAML delegate to the text form, as yaml does not
// pick up the text interfaces on decode.
func (w Waveform) MarshalYAML() (interface{}, error) {
	text, err := w.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

func (w *Waveform) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	return w.UnmarshalText([]byte(name))
}

type (
	// Envelope holds the ADSR parameters of an instrument: attack, decay and
	// release are durations in seconds, sustain is a level in [0, 1]. The
	// ramps are linear and always continuous; releasing a note during attack
	// or decay ramps down from the current level, not from the sustain level.
	Envelope struct {
		Attack  float64 `yaml:"attack" json:"attack"`
		Decay   float64 `yaml:"decay" json:"decay"`
		Sustain float64 `yaml:"sustain" json:"sustain"`
		Release float64 `yaml:"release" json:"release"`
	}

	// Instrument is a named synthesis configuration shared by all notes that
	// use it. Instruments are immutable once referenced by a playing note;
	// edits create a new Instrument value, so voices triggered before an edit
	// finish with the sound they started with.
	Instrument struct {
		Name     string   `yaml:"name" json:"name"`
		Waveform Waveform `yaml:"waveform" json:"waveform"`
		Envelope Envelope `yaml:"envelope" json:"envelope"`
		Effects  []Effect `yaml:"effects,omitempty" json:"effects,omitempty"`
	}

	// Effect is one entry of an instrument's effect chain, applied to the
	// summed output of the instrument's voices on a track. All parameters
	// are levels in [0, 1]; zero values mean "use the effect's default", the
	// same convention Track.Gain follows.
	Effect struct {
		Type     string  `yaml:"type" json:"type"`
		Disabled bool    `yaml:"disabled,omitempty" json:"disabled,omitempty"`
		RoomSize float64 `yaml:"roomsize,omitempty" json:"roomsize,omitempty"`
		Damping  float64 `yaml:"damping,omitempty" json:"damping,omitempty"`
		WetLevel float64 `yaml:"wetlevel,omitempty" json:"wetlevel,omitempty"`
		DryLevel float64 `yaml:"drylevel,omitempty" json:"drylevel,omitempty"`
	}
)

// EffectReverb is the only effect type so far: a Schroeder-style
// parallel-delay reverb.
const EffectReverb = "reverb"

// Copy returns a deep copy of the Instrument, so that editing the effect
// chain of one copy does not leak into snapshots holding another.
func (instr *Instrument) Copy() Instrument {
	ret := *instr
	if instr.Effects != nil {
		ret.Effects = make([]Effect, len(instr.Effects))
		copy(ret.Effects, instr.Effects)
	}
	return ret
}

// Validate checks that the effect names a known type and that all its
// parameters are levels.
func (e Effect) Validate() error {
	if e.Type != EffectReverb {
		return fmt.Errorf("unknown effect type %q", e.Type)
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"roomsize", e.RoomSize},
		{"damping", e.Damping},
		{"wetlevel", e.WetLevel},
		{"drylevel", e.DryLevel},
	} {
		if p.value < 0 || p.value > 1 {
			return fmt.Errorf("effect %s should be within [0, 1]", p.name)
		}
	}
	return nil
}

// Validate checks the envelope invariants.
func (e Envelope) Validate() error {
	if e.Attack < 0 || e.Decay < 0 || e.Release < 0 {
		return errors.New("envelope durations should be >= 0")
	}
	if e.Sustain < 0 || e.Sustain > 1 {
		return errors.New("sustain level should be within [0, 1]")
	}
	return nil
}

// Validate checks that the instrument can be given to the synthesizer.
func (instr *Instrument) Validate() error {
	if instr.Name == "" {
		return errors.New("instrument has no name")
	}
	if instr.Waveform < Sine || instr.Waveform > Noise {
		return fmt.Errorf("unknown waveform %d", int(instr.Waveform))
	}
	for _, e := range instr.Effects {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return instr.Envelope.Validate()
}

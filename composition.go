package vibetracker

import (
	"errors"
	"fmt"
)

// SampleRate is the fixed playback and rendering rate of the engine, in
// samples per second. The step clock, the envelopes and the export headers
// all assume this rate, the same way the original tracker formats did.
const SampleRate = 44100

type (
	// Composition is the full mutable musical state: tempo, the loop length
	// in steps, the instrument bank and the tracks. A Composition is the unit
	// of atomic replacement for live updates: once a Composition has been
	// published to the audio path it must be treated as immutable, and every
	// edit constructs a new value (usually starting from Copy).
	Composition struct {
		BPM          int          `yaml:"bpm" json:"bpm"`
		StepsPerBeat int          `yaml:"stepsperbeat" json:"stepsperbeat"`
		LoopSteps    int          `yaml:"loopsteps" json:"loopsteps"`
		Instruments  []Instrument `yaml:"instruments" json:"instruments"`
		Tracks       []Track      `yaml:"tracks" json:"tracks"`
	}

	// Track associates a pattern with an instrument. Each track has its own
	// patterns; Pattern is the index of the currently playing one, so pattern
	// variations can be kept around and switched by publishing an edit.
	Track struct {
		Name       string    `yaml:"name,omitempty" json:"name,omitempty"`
		Instrument string    `yaml:"instrument" json:"instrument"`
		Pattern    int       `yaml:"pattern" json:"pattern"`
		Patterns   []Pattern `yaml:"patterns" json:"patterns"`
		Mute       bool      `yaml:"mute,omitempty" json:"mute,omitempty"`
		Solo       bool      `yaml:"solo,omitempty" json:"solo,omitempty"`
		Gain       float64   `yaml:"gain" json:"gain"`
	}
)

// Copy makes a deep copy of a Track.
func (t *Track) Copy() Track {
	patterns := make([]Pattern, len(t.Patterns))
	for i, oldPat := range t.Patterns {
		patterns[i] = oldPat.Copy()
	}
	return Track{
		Name:       t.Name,
		Instrument: t.Instrument,
		Pattern:    t.Pattern,
		Patterns:   patterns,
		Mute:       t.Mute,
		Solo:       t.Solo,
		Gain:       t.Gain,
	}
}

// ActivePattern returns the pattern the track is currently playing, or an
// empty pattern if the index is out of range.
func (t *Track) ActivePattern() Pattern {
	if t.Pattern < 0 || t.Pattern >= len(t.Patterns) {
		return Pattern{}
	}
	return t.Patterns[t.Pattern]
}

// Copy makes a deep copy of a Composition.
func (c *Composition) Copy() Composition {
	instruments := make([]Instrument, len(c.Instruments))
	for i := range c.Instruments {
		instruments[i] = c.Instruments[i].Copy()
	}
	tracks := make([]Track, len(c.Tracks))
	for i, t := range c.Tracks {
		tracks[i] = t.Copy()
	}
	return Composition{
		BPM:          c.BPM,
		StepsPerBeat: c.StepsPerBeat,
		LoopSteps:    c.LoopSteps,
		Instruments:  instruments,
		Tracks:       tracks,
	}
}

// SamplesPerStep returns the length of one sequencer step in samples,
// assuming 44100 Hz playback. 120 BPM with 4 steps per beat gives 5512.
func (c *Composition) SamplesPerStep() int {
	if divisor := c.BPM * c.StepsPerBeat; divisor > 0 {
		return SampleRate * 60 / divisor
	}
	return 0
}

// LoopSamples returns the length of one full loop in samples.
func (c *Composition) LoopSamples() int {
	return c.LoopSteps * c.SamplesPerStep()
}

// SameTimingGrid reports whether two compositions share the timing grid, so
// that swapping one for the other mid-loop does not move any step boundary.
func (c *Composition) SameTimingGrid(other *Composition) bool {
	return c.BPM == other.BPM &&
		c.StepsPerBeat == other.StepsPerBeat &&
		c.LoopSteps == other.LoopSteps
}

// InstrumentForTrack resolves the instrument reference of track index t.
func (c *Composition) InstrumentForTrack(t int) (Instrument, error) {
	if t < 0 || t >= len(c.Tracks) {
		return Instrument{}, fmt.Errorf("track index %d out of range", t)
	}
	name := c.Tracks[t].Instrument
	for _, instr := range c.Instruments {
		if instr.Name == name {
			return instr, nil
		}
	}
	return Instrument{}, fmt.Errorf("track %d uses unknown instrument %q", t, name)
}

// Instrument returns the instrument with the given name, if any.
func (c *Composition) Instrument(name string) (Instrument, bool) {
	for _, instr := range c.Instruments {
		if instr.Name == name {
			return instr, true
		}
	}
	return Instrument{}, false
}

// Validate checks that the Composition is safe to hand to the audio path.
// All validation happens here, in the control context, before a publish;
// the audio callback assumes a validated snapshot and never re-checks.
func (c *Composition) Validate() error {
	if c.BPM < 1 {
		return errors.New("BPM should be > 0")
	}
	if c.StepsPerBeat < 1 {
		return errors.New("steps per beat should be > 0")
	}
	if c.LoopSteps < 1 {
		return errors.New("loop length should be > 0 steps")
	}
	if c.SamplesPerStep() < 1 {
		return errors.New("tempo too fast: step is shorter than one sample")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for _, instr := range c.Instruments {
		if err := instr.Validate(); err != nil {
			return fmt.Errorf("instrument %q: %w", instr.Name, err)
		}
		if seen[instr.Name] {
			return fmt.Errorf("duplicate instrument name %q", instr.Name)
		}
		seen[instr.Name] = true
	}
	for i, t := range c.Tracks {
		if !seen[t.Instrument] {
			return fmt.Errorf("track %d uses unknown instrument %q", i, t.Instrument)
		}
		if len(t.Patterns) == 0 {
			return fmt.Errorf("track %d has no patterns", i)
		}
		if t.Pattern < 0 || t.Pattern >= len(t.Patterns) {
			return fmt.Errorf("track %d uses a non-existing pattern", i)
		}
		if t.Gain < 0 {
			return fmt.Errorf("track %d has negative gain", i)
		}
		for j, p := range t.Patterns {
			if err := p.Validate(); err != nil {
				return fmt.Errorf("track %d pattern %d: %w", i, j, err)
			}
		}
	}
	return nil
}

package engine

import "github.com/vibetracker/vibetracker"

// DefaultComposition is the composition loaded when no file is given: a
// four-track demo loop exercising every waveform.
func DefaultComposition() vibetracker.Composition {
	return defaultComposition.Copy()
}

var defaultComposition = vibetracker.Composition{
	BPM:          120,
	StepsPerBeat: 4,
	LoopSteps:    64,
	Instruments: []vibetracker.Instrument{
		{Name: "kick", Waveform: vibetracker.Sine, Envelope: vibetracker.Envelope{Attack: 0.001, Decay: 0.18, Sustain: 0, Release: 0.05}},
		{Name: "hat", Waveform: vibetracker.Noise, Envelope: vibetracker.Envelope{Attack: 0.001, Decay: 0.04, Sustain: 0, Release: 0.02}},
		{Name: "bass", Waveform: vibetracker.Square, Envelope: vibetracker.Envelope{Attack: 0.005, Decay: 0.1, Sustain: 0.5, Release: 0.08}},
		{Name: "lead", Waveform: vibetracker.Sawtooth, Envelope: vibetracker.Envelope{Attack: 0.01, Decay: 0.2, Sustain: 0.4, Release: 0.25},
			Effects: []vibetracker.Effect{{Type: vibetracker.EffectReverb, RoomSize: 0.6, Damping: 0.4, WetLevel: 0.25, DryLevel: 0.75}}},
	},
	Tracks: []vibetracker.Track{
		{Name: "kick", Instrument: "kick", Gain: 1, Patterns: []vibetracker.Pattern{{
			Length: 16,
			Notes: []vibetracker.NoteEvent{
				{Step: 0, Note: "C2", Velocity: 1},
				{Step: 4, Note: "C2", Velocity: 1},
				{Step: 8, Note: "C2", Velocity: 1},
				{Step: 12, Note: "C2", Velocity: 1},
			},
		}}},
		{Name: "hat", Instrument: "hat", Gain: 0.4, Patterns: []vibetracker.Pattern{{
			Length: 8,
			Notes: []vibetracker.NoteEvent{
				{Step: 2, Note: "C6", Velocity: 0.8},
				{Step: 6, Note: "C6", Velocity: 0.6},
			},
		}}},
		{Name: "bass", Instrument: "bass", Gain: 0.7, Patterns: []vibetracker.Pattern{{
			Length: 32,
			Notes: []vibetracker.NoteEvent{
				{Step: 0, Note: "C3", Velocity: 0.9, Steps: 3},
				{Step: 6, Note: "C3", Velocity: 0.7, Steps: 2},
				{Step: 8, Note: "G2", Velocity: 0.9, Steps: 3},
				{Step: 14, Note: "A#2", Velocity: 0.7, Steps: 2},
				{Step: 16, Note: "F2", Velocity: 0.9, Steps: 3},
				{Step: 22, Note: "F2", Velocity: 0.7, Steps: 2},
				{Step: 24, Note: "G2", Velocity: 0.9, Steps: 3},
				{Step: 30, Note: "G2", Velocity: 0.7, Steps: 2},
			},
		}}},
		{Name: "lead", Instrument: "lead", Gain: 0.5, Patterns: []vibetracker.Pattern{{
			Length: 64,
			Notes: []vibetracker.NoteEvent{
				{Step: 0, Note: "C5", Velocity: 0.8, Steps: 4},
				{Step: 6, Note: "D#5", Velocity: 0.7, Steps: 2},
				{Step: 8, Note: "G5", Velocity: 0.8, Steps: 4},
				{Step: 16, Note: "F5", Velocity: 0.8, Steps: 4},
				{Step: 22, Note: "D#5", Velocity: 0.7, Steps: 2},
				{Step: 24, Note: "D5", Velocity: 0.8, Steps: 6},
				{Step: 32, Note: "C5", Velocity: 0.8, Steps: 4},
				{Step: 38, Note: "D#5", Velocity: 0.7, Steps: 2},
				{Step: 40, Note: "G5", Velocity: 0.8, Steps: 4},
				{Step: 48, Note: "A#5", Velocity: 0.8, Steps: 4},
				{Step: 54, Note: "G5", Velocity: 0.7, Steps: 2},
				{Step: 56, Note: "F5", Velocity: 0.8, Steps: 6},
			},
		}}},
	},
}
